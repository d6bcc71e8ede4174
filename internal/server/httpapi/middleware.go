package httpapi

import (
	"context"
	"errors"
	"math"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/localbizsite/localbiz/internal/common"
	"github.com/localbizsite/localbiz/internal/server/auth"
	"github.com/localbizsite/localbiz/internal/server/metrics"
	"github.com/localbizsite/localbiz/internal/server/models"
)

type ctxKey string

const accountKey ctxKey = "account"

var errAccountGone = apiError{http.StatusNotFound, "not_found", "Account not found"}

// accountFrom returns the account attached by requireAuth.
func accountFrom(ctx context.Context) *models.Account {
	a, _ := ctx.Value(accountKey).(*models.Account)
	return a
}

// bearerToken extracts the token from an Authorization: Bearer header.
func bearerToken(r *http.Request) string {
	h := r.Header.Get(common.AuthorizationHeader)
	if len(h) <= len(common.BearerPrefix) || !strings.EqualFold(h[:len(common.BearerPrefix)], common.BearerPrefix) {
		return ""
	}
	return strings.TrimSpace(h[len(common.BearerPrefix):])
}

// clientIP is the address used for rate-limit keys. RealIP, when enabled,
// has already rewritten RemoteAddr from proxy headers.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *HTTPServer) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			s.writeError(w, r, common.ErrorUnauthorized)
			return
		}

		a, err := s.svc.Accounts.Authenticate(r.Context(), token)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				writeAPIError(w, errAccountGone)
				return
			}
			s.writeError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), accountKey, a)))
	})
}

// rateLimit charges each request to "<policy>:<client ip>". Rejected
// requests never reach next. With SkipSuccessful the charge is refunded
// when the response status is below 400. Limiter failures let the request
// through.
func (s *HTTPServer) rateLimit(p auth.Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if p.Limit <= 0 || s.limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			key := p.Name + ":" + clientIP(r)

			d, err := s.limiter.Hit(ctx, key, p.Limit, p.Window)
			if err != nil {
				s.logger.Warn(ctx, "rate limiter unavailable", "policy", p.Name, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))

			if !d.Allowed {
				metrics.RecordRateLimited(p.Name)
				s.logger.Warn(ctx, "rate limited", "policy", p.Name, "ip", clientIP(r))
				w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(d.RetryAfter)))
				s.writeError(w, r, common.ErrRateLimited)
				return
			}

			if !p.SkipSuccessful {
				next.ServeHTTP(w, r)
				return
			}

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			if ww.Status() < http.StatusBadRequest {
				if err := s.limiter.Undo(ctx, key); err != nil {
					s.logger.Warn(ctx, "rate limit refund failed", "policy", p.Name, "error", err)
				}
			}
		})
	}
}

// retryAfterSeconds rounds up so clients never retry a moment too early.
func retryAfterSeconds(d time.Duration) int {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}

// requestLogger logs one line per request and feeds the request metrics.
func (s *HTTPServer) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		elapsed := time.Since(start)
		metrics.RecordRequest(r.Method, route, status, elapsed)

		s.logger.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", elapsed,
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// recoverer turns a handler panic into a logged 500 with the usual body.
func (s *HTTPServer) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.logger.Error(r.Context(), "panic", "recovered", rec, "stack", string(debug.Stack()))
				writeAPIError(w, errInternal)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
