package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mrops-br/products-contract-api/internal/app/dto"
	"github.com/mrops-br/products-contract-api/internal/infrastructure/http/response"
	"github.com/mrops-br/products-contract-api/pkg/auth"
)

// Authorization rejects requests whose Authorization header is missing or
// lacks the Bearer scheme with 401, before the next handler runs. The token
// value is not verified.
func Authorization(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := auth.Check(r.Header.Get(auth.HeaderName)); err != nil {
				logger.WarnContext(r.Context(), "Request rejected by authorization gate",
					slog.String("reason", err.Error()),
				)
				response.Outcome(w, dto.Unauthorized[struct{}]("Unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
