package middleware

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/benvon/pet-shop/internal/apperror"
	logpkg "github.com/benvon/pet-shop/internal/logger"
	"github.com/benvon/pet-shop/internal/response"
)

// ErrorHandler recovers panics and answers with the 500 envelope.
func ErrorHandler(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("panic_recovered",
					zap.String("error", logpkg.SanitizeString(fmt.Sprint(rec), logpkg.MaxGeneralStringLength)),
					zap.String("path", logpkg.SanitizePath(r.URL.Path)),
					zap.String("method", r.Method),
					zap.Stack("stack"),
				)
				response.Error(w, apperror.Internal(fmt.Errorf("panic: %v", rec)))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
