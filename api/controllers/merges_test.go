package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floorops/floorops-backend/api/middleware"
	"github.com/floorops/floorops-backend/internal/merge"
	"github.com/floorops/floorops-backend/pkg/enums"
	pkgerrors "github.com/floorops/floorops-backend/pkg/errors"
	"github.com/floorops/floorops-backend/pkg/pagination"
)

type stubMergeService struct {
	classify *merge.ClassifyResult
	execute  *merge.MergeResult
	err      error

	gotExecute merge.ExecuteInput
}

func (s *stubMergeService) Classify(ctx context.Context, sourceTableID, targetTableID uuid.UUID) (*merge.ClassifyResult, error) {
	return s.classify, s.err
}

func (s *stubMergeService) Candidates(ctx context.Context, tableID uuid.UUID, includeAll bool) ([]merge.Candidate, error) {
	return nil, s.err
}

func (s *stubMergeService) Execute(ctx context.Context, input merge.ExecuteInput) (*merge.MergeResult, error) {
	s.gotExecute = input
	return s.execute, s.err
}

func (s *stubMergeService) Unmerge(ctx context.Context, input merge.UnmergeInput) (*merge.UnmergeResult, error) {
	return nil, s.err
}

func (s *stubMergeService) History(ctx context.Context, venueID uuid.UUID, params pagination.Params) (*merge.HistoryPage, error) {
	return nil, s.err
}

func authedContext(req *http.Request, staffID uuid.UUID, role enums.StaffRole) *http.Request {
	ctx := middleware.WithStaffID(req.Context(), staffID.String())
	ctx = middleware.WithRole(ctx, role.String())
	ctx = middleware.WithVenueID(ctx, uuid.NewString())
	return req.WithContext(ctx)
}

func TestMergeClassifyReturnsVerdict(t *testing.T) {
	source := uuid.New()
	target := uuid.New()
	svc := &stubMergeService{classify: &merge.ClassifyResult{
		SourceTableID: source,
		TargetTableID: target,
		SourceState:   enums.TableStateFree,
		TargetState:   enums.TableStateOccupied,
		Verdict: merge.Verdict{
			Kind:     merge.VerdictAllowed,
			Strategy: enums.MergeScenarioJoinSession,
		},
	}}

	body, err := json.Marshal(map[string]string{
		"source_table_id": source.String(),
		"target_table_id": target.String(),
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/merges/classify", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	MergeClassify(svc, nil).ServeHTTP(resp, authedContext(req, uuid.New(), enums.StaffRoleManager))
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope struct {
		Data merge.ClassifyResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, enums.MergeScenarioJoinSession, envelope.Data.Verdict.Strategy)
}

func TestMergeExecutePassesActor(t *testing.T) {
	staffID := uuid.New()
	svc := &stubMergeService{execute: &merge.MergeResult{GroupID: uuid.New()}}

	body := []byte(`{"source_table_id":"` + uuid.NewString() + `","target_table_id":"` + uuid.NewString() + `","confirmation_text":"` + merge.ConfirmationPhrase + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/merges/execute", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	MergeExecute(svc, nil).ServeHTTP(resp, authedContext(req, staffID, enums.StaffRoleManager))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, staffID, svc.gotExecute.ActorID)
	assert.Equal(t, enums.StaffRoleManager, svc.gotExecute.ActorRole)
	assert.Equal(t, merge.ConfirmationPhrase, svc.gotExecute.ConfirmationText)
}

func TestMergeExecuteSurfacesConfirmationRejection(t *testing.T) {
	svc := &stubMergeService{err: pkgerrors.New(pkgerrors.CodeConfirmationRejected, "confirmation text does not match")}

	body := []byte(`{"source_table_id":"` + uuid.NewString() + `","target_table_id":"` + uuid.NewString() + `","confirmation_text":"merge active bills"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/merges/execute", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	MergeExecute(svc, nil).ServeHTTP(resp, authedContext(req, uuid.New(), enums.StaffRoleManager))
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, string(pkgerrors.CodeConfirmationRejected), envelope.Error.Code)
}

func TestMergeClassifyRejectsMalformedBody(t *testing.T) {
	svc := &stubMergeService{}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/merges/classify", bytes.NewReader([]byte(`{"source_table_id":"nope"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	MergeClassify(svc, nil).ServeHTTP(resp, authedContext(req, uuid.New(), enums.StaffRoleManager))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
