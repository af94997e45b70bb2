package auth

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "iiot-site/internal/common/errors"
)

// ContextKeyPrincipal holds the *Introspection of an authenticated admin.
const ContextKeyPrincipal = "auth.principal"

// TokenIntrospector is satisfied by *KeycloakClient.
type TokenIntrospector interface {
	Introspect(ctx context.Context, token string) (*Introspection, error)
}

// RequireRole rejects requests without an active bearer token carrying role.
func RequireRole(introspector TokenIntrospector, role string, eh *apperrors.ErrorHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			eh.Respond(c, apperrors.NewAuthenticationError("missing bearer token"))
			return
		}

		info, err := introspector.Introspect(c.Request.Context(), token)
		if err != nil {
			eh.Respond(c, apperrors.NewInternalError(err))
			return
		}
		if !info.Active {
			eh.Respond(c, apperrors.NewAuthenticationError("token inactive"))
			return
		}
		if !info.HasRole(role) {
			eh.Respond(c, apperrors.NewForbiddenError("missing role "+role))
			return
		}

		c.Set(ContextKeyPrincipal, info)
		c.Next()
	}
}

// Principal returns the introspection stored by RequireRole.
func Principal(c *gin.Context) *Introspection {
	v, ok := c.Get(ContextKeyPrincipal)
	if !ok {
		return nil
	}
	info, _ := v.(*Introspection)
	return info
}

func bearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
