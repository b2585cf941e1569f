package rbac

import "github.com/gin-gonic/gin"

const principalKey = "principal"

// SetPrincipal stores the authenticated principal on the request context.
// Called by the auth middleware after the claims have been verified and
// the role parsed.
func SetPrincipal(c *gin.Context, p Principal) {
	c.Set(principalKey, p)
}

// FromContext returns the principal placed on the context by the auth
// middleware.
func FromContext(c *gin.Context) (Principal, bool) {
	v, exists := c.Get(principalKey)
	if !exists {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}
