package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/edupoint/school-app/models"
	"github.com/edupoint/school-app/rbac"
	"github.com/edupoint/school-app/utils"
)

// AuthMiddleware verifies the bearer token, parses the role claim into the
// closed role enum and stores the resulting principal on the context. A
// missing or unrecognized role is a hard failure here; nothing downstream
// ever sees a raw role string.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("authorization header missing"))
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := utils.ParseToken(tokenString)
		if err != nil || claims == nil {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid or expired token"))
			c.Abort()
			return
		}

		if claims.UserID == 0 {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid user id in token"))
			c.Abort()
			return
		}

		if claims.Role == "" {
			utils.RespondError(c, http.StatusUnauthorized, rbac.ReasonMissingRoleClaim)
			c.Abort()
			return
		}

		role, err := models.ParseRole(claims.Role)
		if err != nil {
			utils.RespondError(c, http.StatusUnauthorized, rbac.ReasonInvalidRoleClaim)
			c.Abort()
			return
		}

		rbac.SetPrincipal(c, rbac.Principal{ID: claims.UserID, Role: role})
		c.Next()
	}
}
