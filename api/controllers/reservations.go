package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/floorops/floorops-backend/api/middleware"
	"github.com/floorops/floorops-backend/api/responses"
	"github.com/floorops/floorops-backend/api/validators"
	"github.com/floorops/floorops-backend/internal/reservations"
	pkgerrors "github.com/floorops/floorops-backend/pkg/errors"
	"github.com/floorops/floorops-backend/pkg/logger"
)

type createReservationRequest struct {
	TableIDs  []uuid.UUID `json:"table_ids" validate:"required,min=1"`
	PartySize int         `json:"party_size" validate:"required,min=1"`
	GuestName string      `json:"guest_name" validate:"required,max=200"`
	SlotStart time.Time   `json:"slot_start" validate:"required"`
	SlotEnd   time.Time   `json:"slot_end" validate:"required"`
}

// ReservationCreate books tables for a time slot.
func ReservationCreate(svc reservations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reservation service unavailable"))
			return
		}

		var body createReservationRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		venueID, err := validators.ParseUUIDParam(middleware.VenueIDFromContext(r.Context()), "venue_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reservation, err := svc.Create(r.Context(), reservations.CreateInput{
			VenueID:   venueID,
			TableIDs:  body.TableIDs,
			PartySize: body.PartySize,
			GuestName: body.GuestName,
			SlotStart: body.SlotStart,
			SlotEnd:   body.SlotEnd,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, reservation)
	}
}

// ReservationCheckIn marks a booked party as arrived.
func ReservationCheckIn(svc reservations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reservation service unavailable"))
			return
		}

		reservationID, err := validators.ParseUUIDParam(chi.URLParam(r, "reservationID"), "reservation_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reservation, err := svc.CheckIn(r.Context(), reservationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, reservation)
	}
}

// ReservationCancel releases a booking.
func ReservationCancel(svc reservations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reservation service unavailable"))
			return
		}

		reservationID, err := validators.ParseUUIDParam(chi.URLParam(r, "reservationID"), "reservation_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reservation, err := svc.Cancel(r.Context(), reservationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, reservation)
	}
}

// ReservationsUpcoming lists the venue's upcoming holds.
func ReservationsUpcoming(svc reservations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reservation service unavailable"))
			return
		}

		venueID, err := validators.ParseUUIDParam(middleware.VenueIDFromContext(r.Context()), "venue_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListUpcoming(r.Context(), venueID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
