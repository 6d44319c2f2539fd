package provisioning

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error or warning.
type ValidationError struct {
	Field    string // Configuration field that failed validation
	Message  string // Human-readable error message
	Severity string // "error" or "warning"
}

// Error implements the error interface.
func (ve ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", ve.Severity, ve.Field, ve.Message)
}

// IsError returns true if this is an error (not a warning).
func (ve ValidationError) IsError() bool {
	return ve.Severity == "error"
}

// ValidationPhase implements the Phase interface for pre-flight validation.
// Besides the configuration itself it checks what only the project can
// answer: server types and their disks, and the SSH key.
type ValidationPhase struct{}

// NewValidationPhase creates a new validation phase.
func NewValidationPhase() *ValidationPhase {
	return &ValidationPhase{}
}

// Name implements the Phase interface.
func (vp *ValidationPhase) Name() string {
	return "validation"
}

// Provision implements the Phase interface.
func (vp *ValidationPhase) Provision(ctx *Context) error {
	ctx.Observer.Printf("[Validation] Running pre-flight validation...")

	if err := ctx.Config.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	var errs []ValidationError
	for _, ve := range validate(ctx) {
		if ve.IsError() {
			errs = append(errs, ve)
			continue
		}
		ctx.Observer.Event(Event{
			Type:    EventValidationWarning,
			Phase:   vp.Name(),
			Message: ve.Message,
			Fields:  map[string]string{"field": ve.Field},
		})
	}

	if len(errs) > 0 {
		msgs := make([]string, 0, len(errs))
		for _, e := range errs {
			ctx.Observer.Event(Event{
				Type:    EventValidationError,
				Phase:   vp.Name(),
				Message: e.Message,
				Fields:  map[string]string{"field": e.Field},
			})
			msgs = append(msgs, e.Error())
		}
		return fmt.Errorf("pre-flight validation failed:\n  %s", strings.Join(msgs, "\n  "))
	}

	ctx.Observer.Printf("[Validation] Validation passed")
	return nil
}

// validate runs the project checks and returns any errors or warnings.
func validate(ctx *Context) []ValidationError {
	var errs []ValidationError
	cfg := ctx.Config

	for _, w := range cfg.Warnings() {
		errs = append(errs, ValidationError{Field: "network", Message: w, Severity: "warning"})
	}

	if len(cfg.AdminAllowedCIDRs) == 0 {
		errs = append(errs, ValidationError{
			Field:    "admin_allowed_cidrs",
			Message:  "no admin CIDRs configured, SSH and the Kubernetes API will only be open to this machine's public IP",
			Severity: "warning",
		})
	}

	if _, err := ctx.Infra.CheckServerType(ctx, cfg.ControlPlane.ServerType, cfg.ControlPlane.MinDiskGB); err != nil {
		errs = append(errs, ValidationError{Field: "control_plane.server_type", Message: err.Error(), Severity: "error"})
	}
	if cfg.Workers.Count > 0 {
		if _, err := ctx.Infra.CheckServerType(ctx, cfg.Workers.ServerType, cfg.Workers.MinDiskGB); err != nil {
			errs = append(errs, ValidationError{Field: "workers.server_type", Message: err.Error(), Severity: "error"})
		}
	}

	key, err := ctx.Infra.GetSSHKey(ctx, cfg.SSH.KeyName)
	switch {
	case err != nil:
		errs = append(errs, ValidationError{Field: "ssh.key_name", Message: err.Error(), Severity: "error"})
	case key == nil:
		errs = append(errs, ValidationError{
			Field:    "ssh.key_name",
			Message:  fmt.Sprintf("SSH key %q does not exist in the project", cfg.SSH.KeyName),
			Severity: "error",
		})
	}

	return errs
}
