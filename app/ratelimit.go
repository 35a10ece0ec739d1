package main

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type ipRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterInfo
	rps      rate.Limit
	burst    int
	done     chan struct{}
	stopOnce sync.Once
}

type limiterInfo struct {
	limiter      *rate.Limiter
	lastAccessed time.Time
}

// newIPRateLimiter allows rps requests per second per client address with bursts of burst.
// A non-positive rps disables limiting.
func newIPRateLimiter(rps float64, burst int) *ipRateLimiter {
	l := &ipRateLimiter{
		limiters: make(map[string]*limiterInfo),
		rps:      rate.Limit(rps),
		burst:    burst,
		done:     make(chan struct{}),
	}

	go l.cleanupStaleEntries(time.Minute, 3*time.Minute)

	return l
}

func (l *ipRateLimiter) allow(ip string) bool {
	if l.rps <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	info, ok := l.limiters[ip]
	if !ok {
		info = &limiterInfo{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.limiters[ip] = info
	}
	info.lastAccessed = time.Now()

	return info.limiter.Allow()
}

func (l *ipRateLimiter) cleanupStaleEntries(interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.mu.Lock()
			for ip, info := range l.limiters {
				if time.Since(info.lastAccessed) > maxIdle {
					delete(l.limiters, ip)
				}
			}
			l.mu.Unlock()
		case <-l.done:
			return
		}
	}
}

func (l *ipRateLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.done) })
}

func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func (app *application) rateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !app.limiter.allow(clientIP(r)) {
			app.rateLimitExceededResponse(w, r)
			return
		}

		next.ServeHTTP(w, r)
	}
}
