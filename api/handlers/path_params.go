package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

func pathParams(r *http.Request) map[string]string {
	out := map[string]string{}
	rc := chi.RouteContext(r.Context())
	if rc != nil {
		for i, key := range rc.URLParams.Keys {
			if i < len(rc.URLParams.Values) {
				out[key] = rc.URLParams.Values[i]
			}
		}
	}
	if len(out) > 0 {
		return out
	}
	// Fallback for direct handler tests without chi route context.
	segments := strings.Split(strings.Trim(strings.TrimSpace(r.URL.Path), "/"), "/")
	for i := 0; i < len(segments)-1; i++ {
		if segments[i] == "incidents" && strings.TrimSpace(segments[i+1]) != "" {
			out["id"] = segments[i+1]
			break
		}
	}
	return out
}
