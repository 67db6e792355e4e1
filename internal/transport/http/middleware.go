package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"gamified-lms/internal/domain"
	"gamified-lms/internal/logger"
)

// TokenVerifier turns a bearer token into an actor.
type TokenVerifier interface {
	Verify(token string) (domain.Actor, error)
}

type ctxKey struct{}

func WithActor(ctx context.Context, a domain.Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// ActorFromContext returns the zero Actor when the request is anonymous.
func ActorFromContext(ctx context.Context) domain.Actor {
	a, _ := ctx.Value(ctxKey{}).(domain.Actor)
	return a
}

// authenticate requires a valid bearer token and stores the actor in the request context.
func authenticate(tokens TokenVerifier, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				respondError(w, r, log, domain.ErrUnauthenticated)
				return
			}
			actor, err := tokens.Verify(token)
			if err != nil {
				respondError(w, r, log, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// requestLogger logs one line per request through zap.
func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info("http request",
					"request_id", middleware.GetReqID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
