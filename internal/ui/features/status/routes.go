package status

import (
	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/tsbridge/internal/state"
	"github.com/leapstack-labs/tsbridge/internal/ui/notifier"
)

// SetupRoutes configures routes for the status feature.
func SetupRoutes(router chi.Router, project string, store state.Store, notify *notifier.Notifier[Status]) {
	handlers := NewHandlers(project, store, notify)

	router.Get("/", handlers.HandlePage)
	router.Get("/updates", handlers.Updates)
	router.Route("/api", func(r chi.Router) {
		r.Get("/status", handlers.APIStatus)
		r.Get("/runs", handlers.APIRuns)
	})
}
