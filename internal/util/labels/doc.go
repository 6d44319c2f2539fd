// Package labels provides consistent labeling for Hetzner Cloud resources.
//
// All labels use the kubestrap.io domain prefix. Servers additionally carry
// their role and ordinal index so node identities can be rebuilt from a
// label-filtered server listing.
package labels
