package rbac

import (
	"github.com/edupoint/school-app/models"
)

// Principal is the authenticated identity for the duration of a request.
// It is built from verified token claims, never from client-supplied
// fields.
type Principal struct {
	ID   uint
	Role models.Role
}

// DenyReason identifies why an authorization decision failed. It
// implements error so it can be fed straight into the response helpers.
type DenyReason string

const (
	ReasonMissingRoleClaim DenyReason = "missing_role_claim"
	ReasonInvalidRoleClaim DenyReason = "invalid_role_claim"
	ReasonRoleNotPermitted DenyReason = "role_not_permitted"
	ReasonNotResourceOwner DenyReason = "not_resource_owner"
)

func (r DenyReason) Error() string {
	return string(r)
}

// OwnerCheck reports whether the principal owns the resource under
// request. It is OR-ed with role membership so that, for example, a
// parent may act on their own profile where the base rule would require
// admin.
type OwnerCheck func(p Principal) bool

type Decision struct {
	Allowed bool
	Reason  DenyReason
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason DenyReason) Decision {
	return Decision{Reason: reason}
}

// Authorize grants access when the principal's role is in the required
// set, or when the owner check holds. Pure decision function, no side
// effects.
func Authorize(p Principal, required []models.Role, ownerCheck OwnerCheck) Decision {
	for _, r := range required {
		if p.Role == r {
			return allow()
		}
	}
	if ownerCheck != nil {
		if ownerCheck(p) {
			return allow()
		}
		return deny(ReasonNotResourceOwner)
	}
	return deny(ReasonRoleNotPermitted)
}

// IsSelf is the common owner check: the principal acts on its own record.
func IsSelf(ownerID uint) OwnerCheck {
	return func(p Principal) bool {
		return p.ID == ownerID
	}
}
