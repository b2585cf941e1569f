package middlewares

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edupoint/school-app/models"
	"github.com/edupoint/school-app/rbac"
	"github.com/edupoint/school-app/utils"
)

// RequireRoles gates a route on role membership. Owner overrides are
// resource-specific and stay in the handlers, which call rbac.Authorize
// again with the owner check once the resource is known.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := rbac.FromContext(c)
		if !ok {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("unauthorized"))
			c.Abort()
			return
		}

		if dec := rbac.Authorize(p, roles, nil); !dec.Allowed {
			utils.RespondError(c, http.StatusForbidden, dec.Reason)
			c.Abort()
			return
		}

		c.Next()
	}
}
