// api/controller/metrics_controller.go
package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	ledger_errors "github.com/ledgerdash/ledgerdash/api/errors"
	"github.com/ledgerdash/ledgerdash/api/model"
	"github.com/ledgerdash/ledgerdash/api/service"
	"github.com/ledgerdash/ledgerdash/api/util"
	helper_util "github.com/ledgerdash/ledgerdash/api/util/helper"
)

type MetricsController struct {
	metricsService service.IMetricsService
}

func NewMetricsController(metricsService service.IMetricsService) *MetricsController {
	return &MetricsController{
		metricsService: metricsService,
	}
}

// RegisterRoutes registers the API routes
func (mc *MetricsController) RegisterRoutes(r *gin.RouterGroup) {
	students := r.Group("/students")
	{
		students.GET("/:address/attendance", mc.GetAttendance)
		students.GET("/:address/progress", mc.GetProgress)
	}
}

// GetAttendance endpoint
func (mc *MetricsController) GetAttendance(c *gin.Context) {
	student := model.Address(c.Param("address"))
	if !student.Valid() {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid student address", ledger_errors.ErrInvalidAddress)
		return
	}
	term, err := helper_util.GetTermParam(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid term parameter", err)
		return
	}

	metrics, err := mc.metricsService.GetAttendance(c, student, term)
	if err != nil {
		util.RespondWithError(c, http.StatusBadGateway, "Failed to read attendance", err)
		return
	}
	c.JSON(http.StatusOK, metrics)
}

// GetProgress endpoint
func (mc *MetricsController) GetProgress(c *gin.Context) {
	student := model.Address(c.Param("address"))
	if !student.Valid() {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid student address", ledger_errors.ErrInvalidAddress)
		return
	}
	term, err := helper_util.GetTermParam(c)
	if err != nil {
		util.RespondWithError(c, http.StatusBadRequest, "Invalid term parameter", err)
		return
	}

	report, err := mc.metricsService.GetProgress(c, student, term)
	if err != nil {
		util.RespondWithError(c, http.StatusBadGateway, "Failed to read progress", err)
		return
	}
	c.JSON(http.StatusOK, report)
}
