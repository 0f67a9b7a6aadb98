package proxy

import "net/http"

// livenessHandler reports that the process is up. It never consults the upstream.
func livenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
	}
}

// readinessHandler returns 200 while checker reports ready and 503 during startup and shutdown.
func readinessHandler(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		status := http.StatusServiceUnavailable
		if checker.IsReady() {
			status = http.StatusOK
		}
		w.WriteHeader(status)
	}
}
