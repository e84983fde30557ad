package httpmiddleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig configures cross-origin access to the API.
type CORSConfig struct {
	// AllowOrigins lists the origins allowed to call the API. Empty or a
	// single "*" allows any origin.
	AllowOrigins []string
	// AllowMethods defaults to the verbs the API actually serves.
	AllowMethods []string
	// AllowHeaders lists the request headers clients may send. When empty
	// the preflight echoes Access-Control-Request-Headers back.
	AllowHeaders []string
	// ExposeHeaders lists response headers scripts may read.
	ExposeHeaders []string
	// AllowCredentials permits cookies and Authorization headers. Incompatible
	// with the wildcard origin: the specific origin is echoed instead.
	AllowCredentials bool
	// MaxAge is the preflight cache lifetime in seconds; zero omits the header.
	MaxAge int
}

// cors holds the precomputed header values.
type cors struct {
	allowAll bool
	origins  map[string]string // lowercased -> as configured

	methods     string
	headers     string
	expose      string
	credentials bool
	maxAge      string
}

// CORS returns a middleware implementing the CORS protocol: preflight
// OPTIONS requests are answered directly, actual requests get the
// Access-Control response headers, and Vary is maintained so shared caches
// never serve one origin's response to another.
func CORS(cfg CORSConfig) Middleware {
	c := cors{
		allowAll:    len(cfg.AllowOrigins) == 0,
		origins:     make(map[string]string, len(cfg.AllowOrigins)),
		methods:     strings.Join(cfg.AllowMethods, ", "),
		headers:     strings.Join(cfg.AllowHeaders, ", "),
		expose:      strings.Join(cfg.ExposeHeaders, ", "),
		credentials: cfg.AllowCredentials,
	}
	for _, origin := range cfg.AllowOrigins {
		if origin == "*" {
			c.allowAll = true
			continue
		}
		c.origins[strings.ToLower(origin)] = origin
	}
	if c.credentials {
		// The wildcard is invalid with credentials.
		c.allowAll = false
	}
	if c.methods == "" {
		c.methods = "GET, POST, PUT, DELETE, OPTIONS"
	}
	if cfg.MaxAge > 0 {
		c.maxAge = strconv.Itoa(cfg.MaxAge)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				if !c.allowAll {
					w.Header().Add("Vary", "Origin")
				}
				next.ServeHTTP(w, r)
				return
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				c.preflight(w, r, origin)
				return
			}

			if !c.allowAll {
				w.Header().Add("Vary", "Origin")
			}
			if allow := c.match(origin); allow != "" {
				w.Header().Set("Access-Control-Allow-Origin", allow)
				if c.credentials {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
				if c.expose != "" {
					w.Header().Set("Access-Control-Expose-Headers", c.expose)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (c cors) preflight(w http.ResponseWriter, r *http.Request, origin string) {
	w.Header().Add("Vary", "Origin")
	w.Header().Add("Vary", "Access-Control-Request-Method")
	w.Header().Add("Vary", "Access-Control-Request-Headers")

	allow := c.match(origin)
	if allow == "" {
		// Disallowed origin: answer the preflight without CORS headers.
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Access-Control-Allow-Origin", allow)
	w.Header().Set("Access-Control-Allow-Methods", c.methods)
	switch {
	case c.headers != "":
		w.Header().Set("Access-Control-Allow-Headers", c.headers)
	default:
		if requested := r.Header.Get("Access-Control-Request-Headers"); requested != "" {
			w.Header().Set("Access-Control-Allow-Headers", requested)
		}
	}
	if c.credentials {
		w.Header().Set("Access-Control-Allow-Credentials", "true")
	}
	if c.maxAge != "" {
		w.Header().Set("Access-Control-Max-Age", c.maxAge)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c cors) match(origin string) string {
	if c.allowAll {
		return "*"
	}
	return c.origins[strings.ToLower(origin)]
}
