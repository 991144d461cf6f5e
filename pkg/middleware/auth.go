package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"hall-booking/pkg/utils"

	"go.uber.org/zap"
)

// ServiceRole admits only requests bearing the service-role key.
func ServiceRole(serviceKey string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if serviceKey == "" {
				logger.Error("Service role key is not configured")
				utils.ResponseInternalError(w, "Server configuration error")
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				utils.ResponseUnauthorized(w, "Missing authorization token")
				return
			}

			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				utils.ResponseUnauthorized(w, "Invalid token format. Use: Bearer <token>")
				return
			}

			if subtle.ConstantTimeCompare([]byte(token), []byte(serviceKey)) != 1 {
				logger.Warn("Rejected service call with wrong key",
					zap.String("path", r.URL.Path),
					zap.String("ip", r.RemoteAddr),
				)
				utils.ResponseUnauthorized(w, "Invalid service credentials")
				return
			}

			ctx := utils.SetCallerContext(r.Context(), utils.CallerServiceRole)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
