package wizard

import "errors"

// Returned by the field validators and shown below the input.
var (
	errClusterNameRequired = errors.New("cluster name is required")
	errClusterNameInvalid  = errors.New("cluster name must be 1-32 lowercase alphanumeric characters or hyphens, starting and ending with alphanumeric")
	errSSHKeyRequired      = errors.New("SSH key name is required")
	errKeyPathRequired     = errors.New("private key path is required")
	errCIDRRequired        = errors.New("CIDR is required")
	errCIDRInvalid         = errors.New("invalid CIDR format (expected: x.x.x.x/xx)")
	errDNSNameInvalid      = errors.New("invalid DNS name (expected: api.example.com)")
)
