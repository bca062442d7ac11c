package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/actiontracker/pkg/domain/model/auth"
	"github.com/secmon-lab/actiontracker/pkg/service/metrics"
	"github.com/secmon-lab/actiontracker/pkg/usecase"
	"github.com/secmon-lab/actiontracker/pkg/utils/logging"
)

type ctxUseCasesKey struct{}

// identityMiddleware stores the resolved caller in the request context
func identityMiddleware(provider IdentityProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := auth.ContextWithIdentity(r.Context(), provider.Identify(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// readinessMiddleware initializes the datastore on demand and answers 503
// while it is unavailable
func readinessMiddleware(provider UseCaseProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uc, err := provider.UseCases(r.Context())
			if err != nil {
				writeError(r.Context(), w, err)
				return
			}
			ctx := context.WithValue(r.Context(), ctxUseCasesKey{}, uc)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func useCasesFrom(ctx context.Context) *usecase.UseCases {
	uc, _ := ctx.Value(ctxUseCasesKey{}).(*usecase.UseCases)
	return uc
}

// unmatchedRoute labels requests no route pattern matched, keeping raw paths
// out of metric labels
const unmatchedRoute = "unmatched"

// accessLogger logs HTTP requests and records request metrics by route pattern
func accessLogger(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			logger := logging.Default().With("request_id", middleware.GetReqID(r.Context()))
			ctx := logging.With(r.Context(), logger)

			defer func() {
				route := unmatchedRoute
				if rctx := chi.RouteContext(ctx); rctx != nil && rctx.RoutePattern() != "" {
					route = rctx.RoutePattern()
				}
				m.ObserveRequest(r.Method, route, ww.Status(), start)

				logger.Info("access",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"remote", r.RemoteAddr,
					"user_agent", r.UserAgent(),
					"user", auth.IdentityFromContext(ctx).Actor(),
				)
			}()

			next.ServeHTTP(ww, r.WithContext(ctx))
		})
	}
}
