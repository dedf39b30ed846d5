package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"otp-auth/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Policy is a fixed-window limit keyed by client IP.
type Policy struct {
	Name    string
	Limit   int
	Window  time.Duration
	Message string
}

var (
	GlobalPolicy = Policy{
		Name:    "global",
		Limit:   100,
		Window:  15 * time.Minute,
		Message: "Too many requests from this IP, please try again later.",
	}
	OTPPolicy = Policy{
		Name:    "otp",
		Limit:   3,
		Window:  time.Minute,
		Message: "Too many OTP requests. Please wait before requesting again.",
	}
	AuthPolicy = Policy{
		Name:    "auth",
		Limit:   10,
		Window:  15 * time.Minute,
		Message: "Too many authentication attempts. Please try again later.",
	}
	RefreshPolicy = Policy{
		Name:    "refresh",
		Limit:   5,
		Window:  time.Minute,
		Message: "Too many token refresh requests. Please wait.",
	}
)

type RateLimiter struct {
	rdb     redis.UniversalClient
	log     *zap.Logger
	enabled bool
	trusted []netip.Prefix
}

// NewRateLimiter keys limits on the socket peer. X-Forwarded-For is only
// read when the peer is inside trusted.
func NewRateLimiter(rdb redis.UniversalClient, enabled bool, trusted []netip.Prefix, log *zap.Logger) *RateLimiter {
	return &RateLimiter{
		rdb:     rdb,
		log:     log.With(zap.String("component", "rate_limiter")),
		enabled: enabled,
		trusted: trusted,
	}
}

// hit counts one request in the current window and returns the count and
// the time left in the window.
func (rl *RateLimiter) hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	count, err := rl.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("incr %s: %w", key, err)
	}

	// first hit opens the window
	if count == 1 {
		if err := rl.rdb.Expire(ctx, key, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("expire %s: %w", key, err)
		}
		return count, window, nil
	}

	ttl, err := rl.rdb.PTTL(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("pttl %s: %w", key, err)
	}
	if ttl < 0 {
		// key lost its expiry; reopen the window
		if err := rl.rdb.Expire(ctx, key, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("expire %s: %w", key, err)
		}
		ttl = window
	}

	return count, ttl, nil
}

// Limit rejects requests over p with 429. A Redis failure lets the request
// through.
func (rl *RateLimiter) Limit(p Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !rl.enabled {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := rl.clientIP(r)
			key := "ratelimit:" + p.Name + ":" + ip

			count, ttl, err := rl.hit(r.Context(), key, p.Window)
			if err != nil {
				rl.log.Error("Rate limiter unavailable", zap.Error(err), zap.String("policy", p.Name))
				next.ServeHTTP(w, r)
				return
			}

			remaining := int64(p.Limit) - count
			if remaining < 0 {
				remaining = 0
			}
			reset := int64((ttl + time.Second - 1) / time.Second)

			h := w.Header()
			h.Set("RateLimit-Limit", strconv.Itoa(p.Limit))
			h.Set("RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			h.Set("RateLimit-Reset", strconv.FormatInt(reset, 10))

			if count > int64(p.Limit) {
				h.Set("Retry-After", strconv.FormatInt(reset, 10))
				rl.log.Warn("Rate limit exceeded",
					zap.String("policy", p.Name),
					zap.String("ip", ip),
				)
				utils.ResponseTooManyRequests(w, p.Message)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP returns the socket peer, or, when the peer is a trusted proxy,
// the nearest X-Forwarded-For hop that is not itself trusted.
func (rl *RateLimiter) clientIP(r *http.Request) string {
	peer := r.RemoteAddr
	if host, _, err := net.SplitHostPort(peer); err == nil {
		peer = host
	}

	addr, err := netip.ParseAddr(peer)
	if err != nil || !rl.isTrusted(addr) {
		return peer
	}

	hops := strings.Split(strings.Join(r.Header.Values("X-Forwarded-For"), ","), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
		if err != nil {
			break
		}
		if !rl.isTrusted(hop) {
			return hop.Unmap().String()
		}
	}

	return addr.Unmap().String()
}

func (rl *RateLimiter) isTrusted(addr netip.Addr) bool {
	addr = addr.Unmap()
	for _, p := range rl.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
