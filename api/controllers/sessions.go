package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/floorops/floorops-backend/api/middleware"
	"github.com/floorops/floorops-backend/api/responses"
	"github.com/floorops/floorops-backend/api/validators"
	"github.com/floorops/floorops-backend/internal/sessions"
	"github.com/floorops/floorops-backend/pkg/enums"
	pkgerrors "github.com/floorops/floorops-backend/pkg/errors"
	"github.com/floorops/floorops-backend/pkg/logger"
)

type openSessionRequest struct {
	TableIDs []uuid.UUID `json:"table_ids" validate:"required,min=1"`
}

// SessionOpen seats a party on one or more tables.
func SessionOpen(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session service unavailable"))
			return
		}

		var body openSessionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		venueID, err := validators.ParseUUIDParam(middleware.VenueIDFromContext(r.Context()), "venue_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actorID, err := validators.ParseUUIDParam(middleware.StaffIDFromContext(r.Context()), "staff_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Open(r.Context(), sessions.OpenInput{
			VenueID:   venueID,
			TableIDs:  body.TableIDs,
			ActorID:   actorID,
			ActorRole: enums.StaffRole(middleware.RoleFromContext(r.Context())),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, session)
	}
}

// SessionClose closes a fully settled session.
func SessionClose(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session service unavailable"))
			return
		}

		sessionID, err := validators.ParseUUIDParam(chi.URLParam(r, "sessionID"), "session_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actorID, err := validators.ParseUUIDParam(middleware.StaffIDFromContext(r.Context()), "staff_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Close(r.Context(), sessions.CloseInput{
			SessionID: sessionID,
			ActorID:   actorID,
			ActorRole: enums.StaffRole(middleware.RoleFromContext(r.Context())),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

// SessionGet returns one session.
func SessionGet(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session service unavailable"))
			return
		}

		sessionID, err := validators.ParseUUIDParam(chi.URLParam(r, "sessionID"), "session_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Get(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

// SessionsListActive lists the venue's active sessions.
func SessionsListActive(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session service unavailable"))
			return
		}

		venueID, err := validators.ParseUUIDParam(middleware.VenueIDFromContext(r.Context()), "venue_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		active, err := svc.ListActive(r.Context(), venueID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, active)
	}
}
