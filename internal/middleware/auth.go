package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/sdelgado/gymtracker/internal/auth"
	"github.com/sdelgado/gymtracker/internal/telemetry/tracing"
	"github.com/sdelgado/gymtracker/pkg"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

type AuthMiddlewareHandler struct {
	tokenService *auth.TokenService
	allowedPaths map[string]bool
}

func NewAuthMiddlewareHandler(tokenService *auth.TokenService) *AuthMiddlewareHandler {
	return &AuthMiddlewareHandler{
		tokenService: tokenService,
		allowedPaths: map[string]bool{
			// api index:
			"/": true,

			// google code/credential exchange:
			"/auth/google": true,
		},
	}
}

// AuthCheck verifies the bearer session token on every route that is not in
// the allow list, and puts the verified claims on the request context. A
// missing token yields 401, an invalid or expired one 403.
func (h *AuthMiddlewareHandler) AuthCheck() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracing.GlobalTracer.Start(r.Context(), "middleware.auth")
			defer span.End()

			if r.Method == http.MethodOptions {
				w.Header().Add("Allow", "GET, POST, PUT, DELETE, OPTIONS")
				w.WriteHeader(http.StatusOK)
				span.SetStatus(codes.Ok, "options-ok")
				return
			}

			if h.allowedPaths[r.URL.Path] {
				span.SetStatus(codes.Ok, "ok")
				next.ServeHTTP(w, r)
				return
			}

			token := bearerToken(r)
			if token == "" {
				log.Tracef("[missing token] [auth middleware] unauthorized => %s", r.URL.Path)
				pkg.WriteJSONError(w, "access denied", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "missing-auth-token")
				return
			}

			claims, err := h.tokenService.Verify(token)
			if err != nil {
				if !errors.Is(err, auth.ErrTokenInvalid) {
					log.Errorf("[failed token check] => %s: %s", r.URL.Path, err)
				} else {
					log.Tracef("[invalid token] [auth middleware] unauthorized => %s", r.URL.Path)
				}
				pkg.WriteJSONError(w, "invalid token", http.StatusForbidden)
				span.SetStatus(codes.Error, "invalid-token")
				span.RecordError(err)
				return
			}

			span.SetStatus(codes.Ok, "ok")
			next.ServeHTTP(w, r.WithContext(auth.ContextWithClaims(ctx, claims)))
		})
	}
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
