package ports

import (
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
)

const CORS_MAX_AGE_SECONDS = "3600"

// Origins served over https on one of the domains or any of their subdomains
type DomainSuffixes struct {
	suffixes []string
}

func NewDomainSuffixes(suffixes ...string) (*DomainSuffixes, error) {
	for _, suffix := range suffixes {
		if suffix == "" {
			return nil, fmt.Errorf("empty domain suffix")
		}
		if strings.HasPrefix(suffix, ".") {
			return nil, fmt.Errorf("domain suffix %s should not start with a dot", suffix)
		}
		if strings.Contains(suffix, "://") {
			return nil, fmt.Errorf("domain suffix %s should not contain a scheme", suffix)
		}
	}
	return &DomainSuffixes{
		suffixes: slices.Clone(suffixes),
	}, nil
}

func (d *DomainSuffixes) Allows(origin string) bool {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Scheme != "https" || parsed.Host == "" {
		return false
	}
	if parsed.Path != "" || parsed.RawQuery != "" || parsed.User != nil {
		return false
	}

	host := parsed.Host
	return slices.ContainsFunc(d.suffixes, func(suffix string) bool {
		return host == suffix || strings.HasSuffix(host, "."+suffix)
	})
}

func BuildCORSMiddleware(allowedOrigins *DomainSuffixes) middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Vary", "Origin")

			origin := r.Header.Get("Origin")
			if !allowedOrigins.Allows(origin) {
				next(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			if r.Method != http.MethodOptions {
				next(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Methods", "GET,POST")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Max-Age", CORS_MAX_AGE_SECONDS)
			w.WriteHeader(http.StatusNoContent)
		}
	}
}

// Answers preflight requests for routes that only register GET and POST
func BuildCORSHandler(allowedOrigins *DomainSuffixes) http.HandlerFunc {
	return BuildCORSMiddleware(allowedOrigins)(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}
