package middleware

import (
	"net/http" // HTTP status codes

	"github.com/RbroH99/les-sha-app-api/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// Role of the caller, resolved per request
type Role int

const (
	RoleAnonymous Role = iota // No valid credentials
	RoleUser                  // Authenticated, non-staff
	RoleStaff                 // Authenticated staff member
)

// Decision of a permission policy
type Decision int

const (
	Allow            Decision = iota // Request may proceed
	DenyUnauthorized                 // Reject with 401, credentials required
	DenyForbidden                    // Reject with 403, insufficient role
)

// Policy decides whether a role may perform a read or write operation
type Policy func(role Role, write bool) Decision

// DenyWriteToNonStaff allows reads for everyone and writes for staff only
func DenyWriteToNonStaff(role Role, write bool) Decision {
	if !write {
		return Allow // Reads are open to everyone
	}
	switch role {
	case RoleStaff:
		return Allow // Staff may write
	case RoleUser:
		return DenyForbidden // Authenticated but not staff
	default:
		return DenyUnauthorized // Anonymous caller
	}
}

// AuthenticatedOrReadOnly allows reads for everyone and writes for any
// authenticated caller, staff or not
func AuthenticatedOrReadOnly(role Role, write bool) Decision {
	if !write || role != RoleAnonymous {
		return Allow // Reads open, writes need authentication only
	}
	return DenyUnauthorized // Anonymous write attempt
}

// isWrite reports whether an HTTP method mutates state
func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// PermissionMiddleware resolves the caller's role from the database and
// applies the given policy to the request. The operation kind is derived
// from the HTTP method.
func PermissionMiddleware(db *gorm.DB, policy Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := RoleAnonymous // Assume anonymous until proven otherwise
		if userID, exists := c.Get("userID"); exists {
			var user domain.User // Fetch user from database, role flags may have changed since token issue
			if err := db.First(&user, userID).Error; err == nil && user.IsActive {
				if user.IsStaff {
					role = RoleStaff // Staff member
				} else {
					role = RoleUser // Regular authenticated user
				}
			}
		}
		// Apply the policy to the resolved role and operation kind
		switch policy(role, isWrite(c.Request.Method)) {
		case DenyUnauthorized:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication credentials were not provided"})
		case DenyForbidden:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You do not have permission to perform this action"})
		default:
			c.Next() // Allowed, proceed to the next handler
		}
	}
}
