package redis

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
	rd "github.com/redis/go-redis/v9"
)

// luaSlidingWindow trims the window, counts it and records the request only
// while under the limit. Returns the new count, or -1 when limited.
// KEYS[1]=key ARGV: now, windowStart, windowSec, member, limit
const luaSlidingWindow = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local windowStart = tonumber(ARGV[2])
local windowSec = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, '0', windowStart)

local count = redis.call('ZCARD', key)

if count < tonumber(ARGV[5]) then
  redis.call('ZADD', key, now, member)
  redis.call('EXPIRE', key, windowSec)
  return count + 1
else
  return -1
end
`

var slidingWindow = rd.NewScript(luaSlidingWindow)

// RateLimit throttles each client IP to limit requests per window within scope.
// Redis failures let the request through.
func RateLimit(rdb *rd.Client, scope string, limit int, window time.Duration, logger apt.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	windowSec := int64(window / time.Second)
	if windowSec < 1 {
		windowSec = 1
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := RateLimitKey(scope, clientIP(r))

			now := time.Now()
			member := fmt.Sprintf("%d-%d", now.Unix(), now.UnixNano())
			res, err := slidingWindow.Run(r.Context(), rdb, []string{key},
				now.Unix(), now.Unix()-windowSec, windowSec, member, limit).Int()
			if err != nil {
				logger.Error("rate limiter unavailable", "scope", scope, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			if res < 0 {
				w.Header().Set("Retry-After", fmt.Sprintf("%d", windowSec))
				apt.RespondError(w, http.StatusTooManyRequests, "Too many requests, please try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
