// Package middleware holds chi-compatible HTTP middleware shared across the
// router, grounded in the same http.Handler-wrapping shape used throughout
// the teacher's delivery layer.
package middleware

import "net/http"

// CORS allows any origin to reach the API, matching the teacher's local
// development posture (LOCAL_CORS). It answers preflight OPTIONS requests
// directly rather than passing them down the chain.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
