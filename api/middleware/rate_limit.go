package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/earnpro/rewards-backend/api/responses"
	pkgerrors "github.com/earnpro/rewards-backend/pkg/errors"
	"github.com/earnpro/rewards-backend/pkg/logger"
)

// RateLimiter is satisfied by the Redis client.
type RateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// SubjectFunc picks the identity a request is counted against. An empty
// subject skips limiting.
type SubjectFunc func(*http.Request) string

type RateLimitPolicy struct {
	Name    string
	Limit   int
	Window  time.Duration
	Subject SubjectFunc
}

// RateLimit applies a fixed-window limit per policy subject. Limiter errors
// fail open so a Redis blip does not take the route down.
func RateLimit(limiter RateLimiter, policy RateLimitPolicy, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil || policy.Limit <= 0 || policy.Window <= 0 {
			return next
		}
		subjectOf := policy.Subject
		if subjectOf == nil {
			subjectOf = ClientIPSubject
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			subject := subjectOf(r)
			if subject == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowed, count, err := limiter.FixedWindowAllow(ctx, policy.Name+":"+subject, int64(policy.Limit), policy.Window)
			if err != nil {
				logError(ctx, logg, "rate_limit.check_failed", err)
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				if logg != nil {
					logg.Warn(logg.WithFields(ctx, map[string]any{
						"policy": policy.Name,
						"count":  count,
					}), "rate_limit.exceeded")
				}
				w.Header().Set("Retry-After", strconv.Itoa(int(policy.Window.Seconds())))
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AccountSubject counts requests per authenticated user.
func AccountSubject(r *http.Request) string {
	if id := AccountIDFromContext(r.Context()); id > 0 {
		return "account:" + strconv.FormatInt(id, 10)
	}
	return ""
}

// ClientIPSubject counts requests per remote address. chi's RealIP
// middleware rewrites RemoteAddr from proxy headers upstream.
func ClientIPSubject(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	if addr == "" {
		return ""
	}
	return "ip:" + addr
}
