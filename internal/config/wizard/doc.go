// Package wizard provides the interactive configuration wizard behind
// kubestrap init.
//
// RunWizard asks the questions in groups using charmbracelet/huh and
// returns a WizardResult. BuildConfig turns the answers into a
// config.Config and WriteConfig writes it as YAML with a short header.
package wizard
