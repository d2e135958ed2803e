package bridge

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazyhaar/designbridge/bridge/message"
)

// Handler returns the local status endpoint:
//
//	GET /state        session id, lifecycle state, injected flag, save count
//	GET /diagnostics  latest probe snapshot
//	GET /preview      latest save preview image
//
// It is meant to be bound to loopback only.
func (b *Bridge) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)

	r.Get("/state", func(w http.ResponseWriter, _ *http.Request) {
		resp := map[string]any{
			"session_id": b.sessionID,
			"state":      b.State().String(),
			"injected":   b.Injected(),
			"saves":      b.Saves(),
		}
		if p, ok := b.LatestSave(); ok {
			resp["latest_save"] = p.ID
		}
		writeJSON(w, http.StatusOK, resp)
	})

	r.Get("/diagnostics", func(w http.ResponseWriter, _ *http.Request) {
		snap, ok := b.Probe()
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no probe result yet"})
			return
		}
		writeJSON(w, http.StatusOK, snap)
	})

	r.Get("/preview", func(w http.ResponseWriter, _ *http.Request) {
		p, ok := b.LatestSave()
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "nothing saved yet"})
			return
		}
		img, err := p.Preview()
		if err != nil || len(img) == 0 {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "preview not decodable"})
			return
		}
		w.Header().Set("Content-Type", message.SniffImage(img).ContentType())
		w.Header().Set("X-Document-Id", p.ID)
		w.Write(img)
	})

	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
