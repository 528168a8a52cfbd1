package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/floorops/floorops-backend/api/middleware"
	"github.com/floorops/floorops-backend/api/responses"
	"github.com/floorops/floorops-backend/api/validators"
	"github.com/floorops/floorops-backend/internal/merge"
	"github.com/floorops/floorops-backend/pkg/enums"
	pkgerrors "github.com/floorops/floorops-backend/pkg/errors"
	"github.com/floorops/floorops-backend/pkg/logger"
	"github.com/floorops/floorops-backend/pkg/pagination"
)

type classifyMergeRequest struct {
	SourceTableID uuid.UUID `json:"source_table_id" validate:"required"`
	TargetTableID uuid.UUID `json:"target_table_id" validate:"required"`
}

type executeMergeRequest struct {
	SourceTableID    uuid.UUID `json:"source_table_id" validate:"required"`
	TargetTableID    uuid.UUID `json:"target_table_id" validate:"required"`
	ConfirmationText string    `json:"confirmation_text,omitempty"`
	ApprovedStrategy string    `json:"approved_strategy,omitempty"`
}

type unmergeRequest struct {
	TableID uuid.UUID `json:"table_id" validate:"required"`
}

// MergeCandidates lists which tables the anchor could merge with.
func MergeCandidates(svc merge.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "merge service unavailable"))
			return
		}

		tableID, err := validators.ParseUUIDParam(r.URL.Query().Get("table_id"), "table_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		includeAll, err := validators.ParseQueryBool(r, "include_all", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		candidates, err := svc.Candidates(r.Context(), tableID, includeAll)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, candidates)
	}
}

// MergeClassify previews the verdict for a source/target pair without
// touching any state.
func MergeClassify(svc merge.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "merge service unavailable"))
			return
		}

		var body classifyMergeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Classify(r.Context(), body.SourceTableID, body.TargetTableID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// MergeExecute performs the merge transaction.
func MergeExecute(svc merge.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "merge service unavailable"))
			return
		}

		var body executeMergeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actorID, err := validators.ParseUUIDParam(middleware.StaffIDFromContext(r.Context()), "staff_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Execute(r.Context(), merge.ExecuteInput{
			SourceTableID:    body.SourceTableID,
			TargetTableID:    body.TargetTableID,
			ConfirmationText: body.ConfirmationText,
			ApprovedStrategy: enums.MergeScenario(body.ApprovedStrategy),
			ActorID:          actorID,
			ActorRole:        enums.StaffRole(middleware.RoleFromContext(r.Context())),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// MergeUnmerge releases a table from its merge group.
func MergeUnmerge(svc merge.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "merge service unavailable"))
			return
		}

		var body unmergeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actorID, err := validators.ParseUUIDParam(middleware.StaffIDFromContext(r.Context()), "staff_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Unmerge(r.Context(), merge.UnmergeInput{
			TableID:   body.TableID,
			ActorID:   actorID,
			ActorRole: enums.StaffRole(middleware.RoleFromContext(r.Context())),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// MergeHistory lists past and active merge groups for the venue.
func MergeHistory(svc merge.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "merge service unavailable"))
			return
		}

		venueID, err := validators.ParseUUIDParam(middleware.VenueIDFromContext(r.Context()), "venue_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.History(r.Context(), venueID, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}
