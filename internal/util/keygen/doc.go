// Package keygen generates SSH key pairs for cluster access.
//
// Private keys are written in OpenSSH format and public keys in
// authorized_keys format, the form Hetzner Cloud accepts for SSH keys.
package keygen
