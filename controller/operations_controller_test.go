// api/controller/operations_controller_test.go
package controller_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tmock "github.com/stretchr/testify/mock"

	"github.com/ledgerdash/ledgerdash/api/chain"
	"github.com/ledgerdash/ledgerdash/api/controller"
	ledger_errors "github.com/ledgerdash/ledgerdash/api/errors"
	"github.com/ledgerdash/ledgerdash/api/gate"
	logger "github.com/ledgerdash/ledgerdash/api/logging"
	"github.com/ledgerdash/ledgerdash/api/model"
	"github.com/ledgerdash/ledgerdash/api/operation"
	"github.com/ledgerdash/ledgerdash/api/test/mock"
)

const principalHex = "0xaabbccddeeff00112233445566778899aabbccdd"

func setupRouter(svc *mock.MockOperationService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	controller.NewOperationsController(svc).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func doRequest(r *gin.Engine, method, path, principal, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if principal != "" {
		req.Header.Set("X-Principal", principal)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestOperationsController(t *testing.T) {
	logger.InitLogger("../logging")
	defer logger.Sync()

	recoveryBody := `{"studentId": "` + principalHex + `", "term": 2}`

	t.Run("RequestRecovery_Success", func(t *testing.T) {
		svc := new(mock.MockOperationService)
		svc.On("RequestRecovery", tmock.Anything, model.Address(principalHex), tmock.Anything).Return(nil)
		svc.On("Status", chain.OpRecoverStudent).Return(operation.Snapshot{
			State:       operation.StatusIdle,
			LastOutcome: operation.StatusSucceeded,
		}, nil)

		w := doRequest(setupRouter(svc), http.MethodPost, "/api/v1/operations/recover-student", principalHex, recoveryBody)

		assert.Equal(t, http.StatusOK, w.Code)
		var snapshot operation.Snapshot
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snapshot))
		assert.Equal(t, operation.StatusSucceeded, snapshot.LastOutcome)
		svc.AssertExpectations(t)
	})

	t.Run("MissingPrincipal", func(t *testing.T) {
		svc := new(mock.MockOperationService)

		w := doRequest(setupRouter(svc), http.MethodPost, "/api/v1/operations/recover-student", "", recoveryBody)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		svc.AssertNotCalled(t, "RequestRecovery", tmock.Anything, tmock.Anything, tmock.Anything)
	})

	t.Run("MalformedPrincipal", func(t *testing.T) {
		svc := new(mock.MockOperationService)
		w := doRequest(setupRouter(svc), http.MethodPost, "/api/v1/operations/recover-student", "not-an-address", recoveryBody)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("UnknownKind", func(t *testing.T) {
		svc := new(mock.MockOperationService)
		w := doRequest(setupRouter(svc), http.MethodPost, "/api/v1/operations/mint-diploma", principalHex, "{}")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("MissingCapability_Forbidden", func(t *testing.T) {
		svc := new(mock.MockOperationService)
		svc.On("RequestRecovery", tmock.Anything, tmock.Anything, tmock.Anything).
			Return(ledger_errors.Wrap(ledger_errors.KindAuthorization, ledger_errors.ErrMissingCapability))

		w := doRequest(setupRouter(svc), http.MethodPost, "/api/v1/operations/recover-student", principalHex, recoveryBody)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("SystemPaused_ServiceUnavailable", func(t *testing.T) {
		svc := new(mock.MockOperationService)
		svc.On("RequestRecovery", tmock.Anything, tmock.Anything, tmock.Anything).
			Return(ledger_errors.Wrap(ledger_errors.KindSystemPaused, ledger_errors.ErrSystemPaused))

		w := doRequest(setupRouter(svc), http.MethodPost, "/api/v1/operations/recover-student", principalHex, recoveryBody)

		// Paused must never collapse into the 403 the missing-capability case gets
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("ValidationFailure_BadRequest", func(t *testing.T) {
		svc := new(mock.MockOperationService)
		svc.On("RequestRecovery", tmock.Anything, tmock.Anything, tmock.Anything).
			Return(ledger_errors.Wrap(ledger_errors.KindValidation, ledger_errors.ErrInvalidAddress))

		w := doRequest(setupRouter(svc), http.MethodPost, "/api/v1/operations/recover-student", principalHex, recoveryBody)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("ControllerBusy_Conflict", func(t *testing.T) {
		svc := new(mock.MockOperationService)
		svc.On("RequestRecovery", tmock.Anything, tmock.Anything, tmock.Anything).
			Return(ledger_errors.ErrControllerBusy)

		w := doRequest(setupRouter(svc), http.MethodPost, "/api/v1/operations/recover-student", principalHex, recoveryBody)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("ExecutionFailure_BadGateway", func(t *testing.T) {
		svc := new(mock.MockOperationService)
		svc.On("RequestWithdrawal", tmock.Anything, tmock.Anything, tmock.Anything).
			Return(ledger_errors.Wrap(ledger_errors.KindExecution, ledger_errors.ErrConfirmationTimeout))

		body := `{"recipient": "` + principalHex + `", "amountWei": 1000}`
		w := doRequest(setupRouter(svc), http.MethodPost, "/api/v1/operations/withdraw", principalHex, body)
		assert.Equal(t, http.StatusBadGateway, w.Code)
	})

	t.Run("Confirm", func(t *testing.T) {
		svc := new(mock.MockOperationService)
		svc.On("Confirm", tmock.Anything, chain.OpRemoveStudent).Return(nil)
		svc.On("Status", chain.OpRemoveStudent).Return(operation.Snapshot{
			State:       operation.StatusIdle,
			LastOutcome: operation.StatusSucceeded,
		}, nil)

		w := doRequest(setupRouter(svc), http.MethodPost, "/api/v1/operations/remove-student/confirm", principalHex, "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Confirm_NothingPending", func(t *testing.T) {
		svc := new(mock.MockOperationService)
		svc.On("Confirm", tmock.Anything, chain.OpRemoveStudent).Return(ledger_errors.ErrNotAwaitingConfirmation)

		w := doRequest(setupRouter(svc), http.MethodPost, "/api/v1/operations/remove-student/confirm", principalHex, "")
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Cancel", func(t *testing.T) {
		svc := new(mock.MockOperationService)
		svc.On("Cancel", chain.OpRemoveStudent).Return(nil)

		w := doRequest(setupRouter(svc), http.MethodPost, "/api/v1/operations/remove-student/cancel", principalHex, "")
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("Status", func(t *testing.T) {
		svc := new(mock.MockOperationService)
		svc.On("Status", chain.OpSetFee).Return(operation.Snapshot{State: operation.StatusIdle}, nil)

		w := doRequest(setupRouter(svc), http.MethodGet, "/api/v1/operations/set-fee/status", "", "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("History", func(t *testing.T) {
		svc := new(mock.MockOperationService)
		svc.On("History", chain.OpSetFee).Return([]operation.Record{
			{Kind: chain.OpSetFee, Outcome: operation.StatusSucceeded},
		}, nil)

		w := doRequest(setupRouter(svc), http.MethodGet, "/api/v1/operations/set-fee/history", "", "")
		assert.Equal(t, http.StatusOK, w.Code)

		var payload struct {
			History []operation.Record `json:"history"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
		require.Len(t, payload.History, 1)
		assert.Equal(t, operation.StatusSucceeded, payload.History[0].Outcome)
	})

	t.Run("Preflight_Blocked", func(t *testing.T) {
		svc := new(mock.MockOperationService)
		svc.On("Preflight", tmock.Anything, model.Address(principalHex), chain.OpWithdraw).Return(gate.Decision{
			State:             gate.Blocked,
			MissingCapability: true,
		}, nil)

		w := doRequest(setupRouter(svc), http.MethodGet, "/api/v1/operations/withdraw/preflight", principalHex, "")
		assert.Equal(t, http.StatusOK, w.Code)

		var decision gate.Decision
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decision))
		assert.Equal(t, gate.Blocked, decision.State)
		assert.True(t, decision.MissingCapability)
		assert.False(t, decision.SystemPaused)
	})

	t.Run("RecentTargets_EmptyIsNotNull", func(t *testing.T) {
		svc := new(mock.MockOperationService)
		svc.On("RecentTargets", tmock.Anything).Return(nil, nil)

		w := doRequest(setupRouter(svc), http.MethodGet, "/api/v1/recents", "", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"targets": []}`, w.Body.String())
	})
}
