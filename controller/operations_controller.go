// api/controller/operations_controller.go
package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	ledger_errors "github.com/ledgerdash/ledgerdash/api/errors"
	"github.com/ledgerdash/ledgerdash/api/chain"
	"github.com/ledgerdash/ledgerdash/api/model"
	"github.com/ledgerdash/ledgerdash/api/service"
	"github.com/ledgerdash/ledgerdash/api/util"
	helper_util "github.com/ledgerdash/ledgerdash/api/util/helper"
)

type OperationsController struct {
	operationService service.IOperationService
}

func NewOperationsController(operationService service.IOperationService) *OperationsController {
	return &OperationsController{
		operationService: operationService,
	}
}

// RegisterRoutes registers the API routes
func (oc *OperationsController) RegisterRoutes(r *gin.RouterGroup) {
	operations := r.Group("/operations")
	{
		operations.POST("/:kind", oc.RequestOperation)
		operations.POST("/:kind/confirm", oc.ConfirmOperation)
		operations.POST("/:kind/cancel", oc.CancelOperation)
		operations.GET("/:kind/status", oc.OperationStatus)
		operations.GET("/:kind/history", oc.OperationHistory)
		operations.GET("/:kind/preflight", oc.Preflight)
	}
	r.GET("/recents", oc.RecentTargets)
}

// RequestOperation endpoint. The request runs through the full guarded
// lifecycle before responding, except for two-step kinds which park at
// AwaitingConfirmation and must be confirmed via the confirm endpoint.
func (oc *OperationsController) RequestOperation(c *gin.Context) {
	principal, ok := util.PrincipalFromHeader(c)
	if !ok {
		util.RespondWithError(c, http.StatusUnauthorized, "Missing or invalid principal", ledger_errors.ErrInvalidAddress)
		return
	}

	kind := c.Param("kind")
	var err error
	switch kind {
	case chain.OpRecoverStudent:
		var input model.RecoveryInput
		if bindErr := c.ShouldBindJSON(&input); bindErr != nil {
			util.RespondWithError(c, http.StatusBadRequest, "Invalid operation input", bindErr)
			return
		}
		err = oc.operationService.RequestRecovery(c, principal, input)
	case chain.OpRemoveStudent:
		var input model.RemovalInput
		if bindErr := c.ShouldBindJSON(&input); bindErr != nil {
			util.RespondWithError(c, http.StatusBadRequest, "Invalid operation input", bindErr)
			return
		}
		err = oc.operationService.RequestRemoval(c, principal, input)
	case chain.OpSetFee:
		var input model.FeeUpdateInput
		if bindErr := c.ShouldBindJSON(&input); bindErr != nil {
			util.RespondWithError(c, http.StatusBadRequest, "Invalid operation input", bindErr)
			return
		}
		err = oc.operationService.RequestFeeUpdate(c, principal, input)
	case chain.OpWithdraw:
		var input model.WithdrawalInput
		if bindErr := c.ShouldBindJSON(&input); bindErr != nil {
			util.RespondWithError(c, http.StatusBadRequest, "Invalid operation input", bindErr)
			return
		}
		err = oc.operationService.RequestWithdrawal(c, principal, input)
	default:
		util.RespondWithError(c, http.StatusNotFound, "Unknown operation kind", ledger_errors.ErrUnknownOperation)
		return
	}

	oc.respondWithOutcome(c, kind, err)
}

// ConfirmOperation endpoint resumes a two-step operation.
func (oc *OperationsController) ConfirmOperation(c *gin.Context) {
	kind := c.Param("kind")
	err := oc.operationService.Confirm(c, kind)
	oc.respondWithOutcome(c, kind, err)
}

// CancelOperation endpoint abandons a two-step operation before submission.
func (oc *OperationsController) CancelOperation(c *gin.Context) {
	kind := c.Param("kind")
	if err := oc.operationService.Cancel(kind); err != nil {
		switch {
		case errors.Is(err, ledger_errors.ErrUnknownOperation):
			util.RespondWithError(c, http.StatusNotFound, "Unknown operation kind", err)
		case errors.Is(err, ledger_errors.ErrNotAwaitingConfirmation):
			util.RespondWithError(c, http.StatusConflict, "No operation awaiting confirmation", err)
		default:
			util.RespondWithError(c, http.StatusInternalServerError, "Failed to cancel operation", err)
		}
		return
	}
	c.Status(http.StatusNoContent)
}

// OperationStatus endpoint
func (oc *OperationsController) OperationStatus(c *gin.Context) {
	snapshot, err := oc.operationService.Status(c.Param("kind"))
	if err != nil {
		util.RespondWithError(c, http.StatusNotFound, "Unknown operation kind", err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// OperationHistory endpoint
func (oc *OperationsController) OperationHistory(c *gin.Context) {
	history, err := oc.operationService.History(c.Param("kind"))
	if err != nil {
		util.RespondWithError(c, http.StatusNotFound, "Unknown operation kind", err)
		return
	}
	limit, err := helper_util.GetLimitParam(c)
	if err != nil || limit < 0 {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid limit parameter", err)
		return
	}
	if limit < len(history) {
		history = history[len(history)-limit:]
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

// Preflight endpoint lets the UI annotate a form before the user submits.
// The decision is advisory; submission re-checks regardless.
func (oc *OperationsController) Preflight(c *gin.Context) {
	principal, ok := util.PrincipalFromHeader(c)
	if !ok {
		util.RespondWithError(c, http.StatusUnauthorized, "Missing or invalid principal", ledger_errors.ErrInvalidAddress)
		return
	}

	decision, err := oc.operationService.Preflight(c, principal, c.Param("kind"))
	if err != nil {
		if errors.Is(err, ledger_errors.ErrUnknownOperation) {
			util.RespondWithError(c, http.StatusNotFound, "Unknown operation kind", err)
			return
		}
		util.RespondWithError(c, http.StatusBadGateway, "Authorization check failed", err)
		return
	}
	c.JSON(http.StatusOK, decision)
}

// RecentTargets endpoint
func (oc *OperationsController) RecentTargets(c *gin.Context) {
	targets, err := oc.operationService.RecentTargets(c)
	if err != nil {
		util.RespondWithError(c, http.StatusInternalServerError, "Failed to read recent targets", err)
		return
	}
	if targets == nil {
		targets = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"targets": targets})
}

// respondWithOutcome maps a terminal operation result onto HTTP. Every
// blocking condition stays distinguishable: the UI must never render one
// generic error for both "you lack permission" and "the network rejected
// the call".
func (oc *OperationsController) respondWithOutcome(c *gin.Context, kind string, err error) {
	if err == nil {
		snapshot, statusErr := oc.operationService.Status(kind)
		if statusErr != nil {
			util.RespondWithError(c, http.StatusNotFound, "Unknown operation kind", statusErr)
			return
		}
		c.JSON(http.StatusOK, snapshot)
		return
	}

	switch {
	case errors.Is(err, ledger_errors.ErrUnknownOperation):
		util.RespondWithError(c, http.StatusNotFound, "Unknown operation kind", err)
	case errors.Is(err, ledger_errors.ErrControllerBusy):
		util.RespondWithError(c, http.StatusConflict, "Another operation is already in flight", err)
	case errors.Is(err, ledger_errors.ErrNotAwaitingConfirmation):
		util.RespondWithError(c, http.StatusConflict, "No operation awaiting confirmation", err)
	default:
		oc.respondWithKind(c, err)
	}
}

func (oc *OperationsController) respondWithKind(c *gin.Context, err error) {
	switch ledger_errors.KindOf(err) {
	case ledger_errors.KindValidation:
		util.RespondWithError(c, http.StatusBadRequest, "Operation input rejected", err)
	case ledger_errors.KindAuthorization:
		util.RespondWithError(c, http.StatusForbidden, "Principal lacks the required capability", err)
	case ledger_errors.KindSystemPaused:
		util.RespondWithError(c, http.StatusServiceUnavailable, "System is paused", err)
	case ledger_errors.KindSubmission:
		util.RespondWithError(c, http.StatusBadGateway, "Ledger rejected the submission", err)
	case ledger_errors.KindExecution:
		util.RespondWithError(c, http.StatusBadGateway, "Operation failed during confirmation", err)
	case ledger_errors.KindTransientRead:
		util.RespondWithError(c, http.StatusBadGateway, "Authorization check could not be completed", err)
	default:
		util.RespondWithError(c, http.StatusInternalServerError, "Operation failed", ledger_errors.ErrInternalServer)
	}
}
