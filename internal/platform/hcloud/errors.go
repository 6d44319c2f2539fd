package hcloud

import (
	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// Error codes returned while another action holds the resource. Calls
// failing with them are retried.
var transientCodes = []hcloud.ErrorCode{
	hcloud.ErrorCodeLocked,
	hcloud.ErrorCodeConflict,
	hcloud.ErrorCodeResourceUnavailable,
}

// Error codes that no retry can fix.
var permanentCodes = []hcloud.ErrorCode{
	hcloud.ErrorCodeNotFound,
	hcloud.ErrorCodeInvalidInput,
	hcloud.ErrorCodeUniquenessError,
}

func isResourceLocked(err error) bool {
	return err != nil && hcloud.IsError(err, transientCodes...)
}

func isInvalidParameter(err error) bool {
	return err != nil && hcloud.IsError(err, permanentCodes...)
}

// IsNotFound reports a missing resource.
func IsNotFound(err error) bool {
	return err != nil && hcloud.IsError(err, hcloud.ErrorCodeNotFound)
}

// IsResourceInUse reports a resource still referenced by another, like a
// network with attached servers during destroy.
func IsResourceInUse(err error) bool {
	return err != nil && hcloud.IsError(err, hcloud.ErrorCodeResourceInUse)
}

// isTargetAlreadyDefined reports adding a target the load balancer has.
func isTargetAlreadyDefined(err error) bool {
	return err != nil && hcloud.IsError(err, hcloud.ErrorCodeTargetAlreadyDefined)
}
