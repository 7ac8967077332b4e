package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"workshop/internal/transport/http/api"
)

const (
	maxPeekBytes = 16 << 10
	sweepEvery   = 1024
)

type keyFunc func(r *http.Request) string

// fixedWindow counts hits per key and forgets them once the window ends.
type fixedWindow struct {
	mu       sync.Mutex
	limit    int
	length   time.Duration
	counters map[string]*windowCounter
	takes    int
	now      func() time.Time
}

type windowCounter struct {
	hits    int
	resetAt time.Time
}

type verdict struct {
	allowed   bool
	remaining int
	resetIn   time.Duration
}

func newFixedWindow(limit int, length time.Duration) *fixedWindow {
	return &fixedWindow{
		limit:    limit,
		length:   length,
		counters: make(map[string]*windowCounter),
		now:      time.Now,
	}
}

func (fw *fixedWindow) take(key string) verdict {
	now := fw.now()

	fw.mu.Lock()
	defer fw.mu.Unlock()

	fw.takes++
	if fw.takes%sweepEvery == 0 {
		for k, c := range fw.counters {
			if now.After(c.resetAt) {
				delete(fw.counters, k)
			}
		}
	}

	c, ok := fw.counters[key]
	if !ok || now.After(c.resetAt) {
		c = &windowCounter{resetAt: now.Add(fw.length)}
		fw.counters[key] = c
	}
	c.hits++
	return verdict{
		allowed:   c.hits <= fw.limit,
		remaining: max(fw.limit-c.hits, 0),
		resetIn:   c.resetAt.Sub(now),
	}
}

// limitRule pairs a window with the key it is counted by.
type limitRule struct {
	name   string
	window *fixedWindow
	key    keyFunc
}

func newRule(name string, limit int, length time.Duration, key keyFunc) limitRule {
	return limitRule{name: name, window: newFixedWindow(limit, length), key: key}
}

// admit records the request and writes a 429 when the rule is exhausted.
func (lr limitRule) admit(w http.ResponseWriter, r *http.Request) bool {
	if lr.window.limit <= 0 {
		return true
	}
	key := lr.key(r)
	if key == "" {
		key = addressKey(r)
	}
	v := lr.window.take(key)
	reset := ceilSeconds(v.resetIn)

	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(lr.window.limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(v.remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.Itoa(reset))
	if v.allowed {
		return true
	}

	w.Header().Set("Retry-After", strconv.Itoa(max(reset, 1)))
	zap.L().Warn("rate limit exceeded",
		zap.String("rule", lr.name),
		zap.String("key", key),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("limit", lr.window.limit),
	)
	api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
	return false
}

// RateLimit allows limit requests per window for each signed-in user, or
// for each client address when the caller is anonymous.
func RateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	rule := newRule("global", limit, window, actorKey)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rule.admit(w, r) {
				next.ServeHTTP(w, r)
			}
		})
	}
}

type routeClass int

const (
	routeOrdinary routeClass = iota
	routeLogin
	routeAccount
	routeExport
)

// SensitiveMutationRateLimit puts tighter budgets on routes that are costly
// or abusable. Login gets a quarter of base, counted both per address and
// per submitted email. Account changes and report exports each get half,
// counted per user.
func SensitiveMutationRateLimit(base int, window time.Duration) func(http.Handler) http.Handler {
	quarter := max(base/4, 1)
	half := max(base/2, 1)
	rules := map[routeClass][]limitRule{
		routeLogin: {
			newRule("login_address", quarter, window, addressKey),
			newRule("login_email", quarter, window, loginEmailKey),
		},
		routeAccount: {newRule("account", half, window, actorKey)},
		routeExport:  {newRule("export", half, window, actorKey)},
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, rule := range rules[classifyRoute(r)] {
				if !rule.admit(w, r) {
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func classifyRoute(r *http.Request) routeClass {
	path := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/v1"), "/")
	switch r.Method {
	case http.MethodGet:
		if path == "/reports/export" || path == "/reports/employees/export" {
			return routeExport
		}
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		switch {
		case path == "/auth/login":
			return routeLogin
		case path == "/jobs/report-export":
			return routeExport
		case path == "/me", path == "/users", strings.HasPrefix(path, "/users/"):
			return routeAccount
		}
	}
	return routeOrdinary
}

func actorKey(r *http.Request) string {
	if actor, ok := GetUser(r.Context()); ok && actor.UserID != "" {
		return "user:" + actor.UserID
	}
	return addressKey(r)
}

// addressKey prefers the first X-Forwarded-For hop over RemoteAddr.
func addressKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return "ip:" + first
		}
	}
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	return "ip:" + addr
}

// loginEmailKey counts login attempts per account, whatever address they
// come from. The body is restored for the handler.
func loginEmailKey(r *http.Request) string {
	if r.Body == nil || !strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		return addressKey(r)
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBytes))
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(raw), r.Body))
	if err != nil {
		return addressKey(r)
	}
	var body struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(raw, &body) != nil || strings.TrimSpace(body.Email) == "" {
		return addressKey(r)
	}
	return "email:" + strings.ToLower(strings.TrimSpace(body.Email))
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}
