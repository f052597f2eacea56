package httpserver

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"haus_search/internal/adapters/observability"
	"haus_search/internal/ratelimit"
)

func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler { return http.TimeoutHandler(next, d, "timeout") }
}

// ---- status-recording ResponseWriter ----

type srw struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (w *srw) WriteHeader(code int) {
	if !w.wrote {
		w.status = code
		w.wrote = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *srw) Write(b []byte) (int, error) {
	if !w.wrote {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *srw) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// ---- Metrics middleware ----

func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &srw{ResponseWriter: w}
		next.ServeHTTP(sw, r)
		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		observability.ObserveHTTP(route, r.Method, sw.Status(), time.Since(start))
	})
}

// ---- Structured logging middleware ----

func Logger(l zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &srw{ResponseWriter: w}
			next.ServeHTTP(sw, r)
			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = r.URL.Path
			}
			l.Info().
				Str("route", route).
				Str("method", r.Method).
				Int("status", sw.Status()).
				Dur("duration", time.Since(start)).
				Str("remote", remoteIP(r)).
				Str("ua", r.UserAgent()).
				Msg("http_request")
		})
	}
}

// ---- Rate limit middleware ----

// RateLimit evaluates the abuse-protection policy for one endpoint class
// before the handler runs. Decision headers are propagated verbatim; a store
// outage fails open and is logged so operators can see degraded mode.
func RateLimit(p *ratelimit.Policy, cfg ratelimit.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := p.Check(r.Context(), clientID(r), cfg)
			for k, v := range d.Headers {
				w.Header().Set(k, v)
			}
			observability.ObserveRateLimit(cfg.Name, decisionOutcome(d))
			if d.Err {
				log.Warn().
					Str("endpoint", cfg.Name).
					Str("identifier", clientID(r)).
					Msg("rate limit store unavailable, failing open")
			}
			if !d.Success {
				title := "Too Many Requests"
				if d.Blocked {
					title = "Blocked"
				}
				writeProblem(w, http.StatusTooManyRequests, title, "rate limit exceeded, honor X-RateLimit-Reset")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func decisionOutcome(d ratelimit.Decision) string {
	switch {
	case d.Err:
		return "error"
	case d.Blocked:
		return "blocked"
	case d.Burst:
		return "burst"
	case !d.Success:
		return "deny"
	default:
		return "allow"
	}
}

// clientID derives the rate-limit identifier from the caller IP, falling back
// to a loopback placeholder when no IP is resolvable.
func clientID(r *http.Request) string {
	if ip := remoteIP(r); ip != "" {
		return ip
	}
	return "127.0.0.1"
}

// Picks first X-Forwarded-For IP, else X-Real-IP, else RemoteAddr host.
func remoteIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xrip := r.Header.Get("X-Real-IP"); xrip != "" {
		return xrip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
