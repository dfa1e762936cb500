package showfeed

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"stagedates/internal/showfeed/schedule"
	"stagedates/internal/telemetry"
)

const report_feed_read = "feed.read"

type feedHandler struct {
	path string
	tel  telemetry.API
}

// NewFeedHandler serves the schedule document written to path.
//
//	GET /shows.json      the whole document
//	GET /shows/{slug}    a single production
//	GET /healthz         ok once a document exists
func NewFeedHandler(path string, tel telemetry.API) http.Handler {
	h := feedHandler{
		path: path,
		tel:  telemetry.NewScopedAPI("showfeed", tel),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /shows.json", h.document)
	mux.HandleFunc("GET /shows/{slug}", h.production)
	mux.HandleFunc("GET /healthz", h.health)
	return mux
}

func (h feedHandler) read(w http.ResponseWriter) (schedule.Document, bool) {
	doc, err := schedule.Read(h.path)
	if errors.Is(err, os.ErrNotExist) {
		http.Error(w, "no schedule has been written yet", http.StatusServiceUnavailable)
		return schedule.Document{}, false
	}
	if err != nil {
		h.tel.ReportBroken(report_feed_read, h.path, err)
		http.Error(w, "failed to read schedule", http.StatusInternalServerError)
		return schedule.Document{}, false
	}
	return doc, true
}

func writeJson(w http.ResponseWriter, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(v)
}

func (h feedHandler) document(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.read(w)
	if !ok {
		return
	}
	w.Header().Set("last-modified", doc.LastUpdated.UTC().Format(http.TimeFormat))
	writeJson(w, doc)
}

func (h feedHandler) production(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.read(w)
	if !ok {
		return
	}
	production, found := doc.Shows[r.PathValue("slug")]
	if !found {
		http.NotFound(w, r)
		return
	}
	writeJson(w, production)
}

func (h feedHandler) health(w http.ResponseWriter, r *http.Request) {
	_, err := os.Stat(h.path)
	if err != nil {
		http.Error(w, "no schedule", http.StatusServiceUnavailable)
		return
	}
	w.Write([]byte("ok"))
}
