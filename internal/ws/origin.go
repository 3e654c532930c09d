package ws

import (
	"net/http"
	"strings"
)

// OriginChecker returns a CheckOrigin function accepting the given
// origins. Requests without an Origin header come from non-browser clients
// and are accepted. An empty list allows http://localhost:3000 only.
func OriginChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		allowed = []string{"http://localhost:3000"}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(origin, a) {
				return true
			}
		}
		return false
	}
}
