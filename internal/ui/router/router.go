// Package router sets up HTTP routes for the status server.
package router

import (
	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/tsbridge/internal/state"
	"github.com/leapstack-labs/tsbridge/internal/ui/features/status"
	"github.com/leapstack-labs/tsbridge/internal/ui/notifier"
	"github.com/leapstack-labs/tsbridge/internal/ui/resources"
)

// SetupRoutes configures all routes for the status server.
func SetupRoutes(router chi.Router, project string, store state.Store, notify *notifier.Notifier[status.Status]) {
	router.Handle("/static/*", resources.Handler())
	status.SetupRoutes(router, project, store, notify)
}
