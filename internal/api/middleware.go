package api

import (
	"fmt"
	"log"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"menumakers/internal/config"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// SecurityHeaders adds security headers to responses
func SecurityHeaders(debug bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
			w.Header().Set("Cache-Control", "no-store")

			// HSTS only behind TLS in production
			if !debug && r.TLS != nil {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CORS applies the configured origin policy. Only origins on an explicit
// allow-list get credentialed responses; a wildcard or empty list answers
// with a literal "*" and no credentials.
func CORS(cfg *config.CORSConfig, debug bool) func(http.Handler) http.Handler {
	allowAny := len(cfg.AllowedOrigins) == 0
	allowed := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			allowAny = true
			continue
		}
		allowed[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case origin == "":
			case allowed[origin]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			case allowAny || debug:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			default:
				writeJSON(r.Context(), w, http.StatusForbidden, errorResponse{Message: "Origin not allowed"})
				return
			}

			w.Header().Set("Access-Control-Allow-Methods", strings.Join(cfg.AllowedMethods, ", "))
			w.Header().Set("Access-Control-Allow-Headers", strings.Join(cfg.AllowedHeaders, ", "))
			w.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, Retry-After")
			w.Header().Set("Access-Control-Max-Age", fmt.Sprintf("%d", cfg.MaxAge))

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// TrustedRealIP applies X-Forwarded-For / X-Real-IP only when the socket
// peer is one of the trusted proxies. Everyone else is identified by the
// socket address, so the headers cannot be used to dodge rate limits or
// forge the stored client address.
func TrustedRealIP(trusted []netip.Prefix) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(trusted) == 0 {
			return next
		}
		viaProxy := chimiddleware.RealIP(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if peerTrusted(r.RemoteAddr, trusted) {
				viaProxy.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func peerTrusted(remoteAddr string, trusted []netip.Prefix) bool {
	ap, err := netip.ParseAddrPort(remoteAddr)
	if err != nil {
		return false
	}
	addr := ap.Addr().Unmap()
	for _, p := range trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// EdgeMiddleware wraps h with the outer layers every production request
// passes through: client address resolution, panic recovery, security
// headers, then CORS.
func EdgeMiddleware(h http.Handler, cfg *config.Config) (http.Handler, error) {
	trusted, err := cfg.App.TrustedProxyPrefixes()
	if err != nil {
		return nil, err
	}
	h = CORS(&cfg.CORS, cfg.App.Debug)(h)
	h = SecurityHeaders(cfg.App.Debug)(h)
	h = chimiddleware.Recoverer(h)
	h = TrustedRealIP(trusted)(h)
	return h, nil
}

// statusRecorder wraps http.ResponseWriter to capture the status code
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// requestLogging logs every request and its outcome, tagged with the request id.
func requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		id := requestID(r.Context())
		if id != "-" {
			w.Header().Set("X-Request-ID", id)
		}
		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		log.Printf("[REQUEST] %s %s %s from %s", id, r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(wrapped, r)

		statusText := "OK"
		if wrapped.statusCode >= 400 {
			statusText = "ERROR"
		}
		log.Printf("[RESPONSE] %s %s %s -> %d %s (%v)", id, r.Method, r.URL.Path, wrapped.statusCode, statusText, time.Since(start))
	})
}
