// Package httpkit provides HTTP utilities including identity abstraction.
package httpkit

import (
	"barops_backend/platform/apperr"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity represents the authenticated user's identity.
// This interface abstracts identity extraction from the web framework,
// allowing handlers to access user information without depending on Gin.
type Identity interface {
	// UserID returns the authenticated user's ID.
	UserID() uuid.UUID
	// Roles returns the user's assigned roles.
	Roles() []string
	// HasRole checks if the user has a specific role.
	HasRole(role string) bool
	// BarID returns the bar the token is scoped to, if any.
	BarID() (int, bool)
	// CanAccessBar reports whether the user may read data of barID.
	CanAccessBar(barID int) bool
	// IsAuthenticated returns true if the user is authenticated.
	IsAuthenticated() bool
}

// RoleAdmin may access every bar.
const RoleAdmin = "admin"

// identity is the concrete implementation of Identity.
type identity struct {
	userID        uuid.UUID
	roles         []string
	barID         int
	hasBar        bool
	authenticated bool
}

func (i *identity) UserID() uuid.UUID {
	return i.userID
}

func (i *identity) Roles() []string {
	return i.roles
}

func (i *identity) HasRole(role string) bool {
	for _, r := range i.roles {
		if r == role {
			return true
		}
	}
	return false
}

func (i *identity) BarID() (int, bool) {
	return i.barID, i.hasBar
}

func (i *identity) CanAccessBar(barID int) bool {
	if !i.authenticated {
		return false
	}
	if i.HasRole(RoleAdmin) || !i.hasBar {
		return true
	}
	return i.barID == barID
}

func (i *identity) IsAuthenticated() bool {
	return i.authenticated
}

// GetIdentity extracts the Identity from a Gin context.
// Returns an unauthenticated identity if user info is not present.
func GetIdentity(c *gin.Context) Identity {
	userID, userOK := c.Get(ContextUserIDKey)
	roles, rolesOK := c.Get(ContextRolesKey)

	if !userOK {
		return &identity{authenticated: false}
	}

	uid, ok := userID.(uuid.UUID)
	if !ok {
		return &identity{authenticated: false}
	}

	var roleList []string
	if rolesOK {
		roleList, _ = roles.([]string)
	}

	id := &identity{
		userID:        uid,
		roles:         roleList,
		authenticated: true,
	}
	if barID, ok := c.Get(ContextBarIDKey); ok {
		if v, ok := barID.(int); ok {
			id.barID = v
			id.hasBar = true
		}
	}
	return id
}

// MustGetIdentity extracts the Identity from a Gin context.
// If the user is not authenticated, it aborts with 401 Unauthorized and returns nil.
func MustGetIdentity(c *gin.Context) Identity {
	id := GetIdentity(c)
	if !id.IsAuthenticated() {
		HandleError(c, apperr.Unauthorized("unauthorized"))
		c.Abort()
		return nil
	}
	return id
}
