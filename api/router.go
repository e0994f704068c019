package api

import (
	"net/http"
	"strings"
)

// NewRouter wires the HTTP routes
func NewRouter(handlers *Handlers) http.Handler {
	mux := http.NewServeMux()

	// Envelopes
	mux.HandleFunc("/envelopes", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			handlers.CreateEnvelope(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/envelopes/", func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case strings.HasSuffix(path, "/claims") && r.Method == http.MethodPost:
			handlers.Claim(w, r)
		case strings.HasSuffix(path, "/records") && r.Method == http.MethodGet:
			handlers.GetRecords(w, r)
		case strings.HasSuffix(path, "/preview") && r.Method == http.MethodGet:
			handlers.GetPreview(w, r)
		case r.Method == http.MethodGet:
			handlers.GetEnvelope(w, r)
		case r.Method == http.MethodDelete:
			handlers.DeleteEnvelope(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Sender views
	mux.HandleFunc("/senders/", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/envelopes") && r.Method == http.MethodGet:
			handlers.GetActiveBySender(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Item snapshots
	mux.HandleFunc("/snapshots/", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.GetSnapshot(w, r)
		case http.MethodPut:
			handlers.SaveSnapshot(w, r)
		case http.MethodDelete:
			handlers.DeleteSnapshot(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	return mux
}
