// Package permissions checks operator permission claims against required permissions
// with support for wildcards.
//
// Permission Format:
//   - "*" - Full access (all permissions)
//   - "resource.*" - All actions on a resource (e.g., "ledger.*")
//   - "resource.action" - Specific action (e.g., "ledger.read")
package permissions

import (
	"net/http"
	"strings"
)

// Resources guarded by the operator surface
const (
	Attendance = "attendance"
	Ledger     = "ledger"
)

// Actions
const (
	ActionRead  = "read"
	ActionWrite = "write"
)

// HasPermission checks if the operator's permissions include the required permission.
// Supports wildcard matching:
//   - "*" matches everything
//   - "ledger.*" matches "ledger.read", "ledger.write", etc.
//   - Exact match for specific permissions
func HasPermission(granted []string, required string) bool {
	if required == "" {
		return true
	}

	for _, p := range granted {
		if p == "*" || p == required {
			return true
		}
		if strings.HasSuffix(p, ".*") {
			prefix := strings.TrimSuffix(p, ".*")
			if strings.HasPrefix(required, prefix+".") {
				return true
			}
		}
	}
	return false
}

// HasAnyPermission checks if the operator has any of the required permissions.
func HasAnyPermission(granted []string, required []string) bool {
	for _, req := range required {
		if HasPermission(granted, req) {
			return true
		}
	}
	return false
}

// ForMethod returns the permission an HTTP method needs on a resource: safe methods
// read, everything else writes.
func ForMethod(resource, method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return resource + "." + ActionRead
	default:
		return resource + "." + ActionWrite
	}
}

// Known lists the permissions operators can be granted
var Known = []string{
	"attendance.read",
	"attendance.write",
	"attendance.*",
	"ledger.read",
	"ledger.write",
	"ledger.*",
	"*",
}

// IsValidPermission checks if a permission string is in the known list.
func IsValidPermission(perm string) bool {
	for _, p := range Known {
		if p == perm {
			return true
		}
	}
	return false
}
