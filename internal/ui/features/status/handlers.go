package status

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/tsbridge/internal/state"
	"github.com/leapstack-labs/tsbridge/internal/ui/notifier"
)

// Handlers provides HTTP handlers for the status page.
type Handlers struct {
	project  string
	store    state.Store
	notifier *notifier.Notifier[Status]
}

// NewHandlers creates a new Handlers instance. store may be nil when emit
// history is disabled.
func NewHandlers(project string, store state.Store, notify *notifier.Notifier[Status]) *Handlers {
	return &Handlers{
		project:  project,
		store:    store,
		notifier: notify,
	}
}

func (h *Handlers) current() *Status {
	if s, ok := h.notifier.Latest(); ok {
		return &s
	}
	return nil
}

// HandlePage renders the full page with the latest status.
func (h *Handlers) HandlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := Page(h.project, h.current()).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Updates streams a new panel after every emit. The page is already
// rendered, so nothing is sent until the next publish.
func (h *Handlers) Updates(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	updates := h.notifier.Subscribe()
	defer h.notifier.Unsubscribe(updates)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			if err := sse.PatchElementTempl(Panel(h.current())); err != nil {
				_ = sse.ConsoleError(err)
			}
		}
	}
}

// APIStatus returns the latest status as JSON, or 204 before the first
// emit.
func (h *Handlers) APIStatus(w http.ResponseWriter, _ *http.Request) {
	s := h.current()
	if s == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, s)
}

// APIRuns returns recorded emit runs for the project, newest first.
func (h *Handlers) APIRuns(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeJSON(w, []*state.Run{})
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	runs, err := h.store.ListRuns(h.project, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []*state.Run{}
	}
	writeJSON(w, runs)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
