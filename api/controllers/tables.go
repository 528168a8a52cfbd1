package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/floorops/floorops-backend/api/middleware"
	"github.com/floorops/floorops-backend/api/responses"
	"github.com/floorops/floorops-backend/api/validators"
	"github.com/floorops/floorops-backend/internal/floor"
	pkgerrors "github.com/floorops/floorops-backend/pkg/errors"
	"github.com/floorops/floorops-backend/pkg/logger"
)

// TablesList returns every table in the caller's venue with its derived state.
func TablesList(svc floor.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "floor service unavailable"))
			return
		}

		venueID, err := validators.ParseUUIDParam(middleware.VenueIDFromContext(r.Context()), "venue_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tables, err := svc.ListTables(r.Context(), venueID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, tables)
	}
}

// TableGet returns one table annotated with its derived state.
func TableGet(svc floor.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "floor service unavailable"))
			return
		}

		tableID, err := validators.ParseUUIDParam(chi.URLParam(r, "tableID"), "table_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		table, err := svc.GetTable(r.Context(), tableID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, table)
	}
}
