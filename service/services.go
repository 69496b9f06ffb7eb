// api/service/services.go
package service

import (
	"time"

	"github.com/ledgerdash/ledgerdash/api/audit"
	"github.com/ledgerdash/ledgerdash/api/chain"
	"github.com/ledgerdash/ledgerdash/api/gate"
	"github.com/ledgerdash/ledgerdash/api/util"
)

type Services struct {
	Operations IOperationService
	Metrics    IMetricsService
}

type Config struct {
	Operations OperationConfig
	MetricsTTL time.Duration
}

func InitializeServices(
	boundary chain.Boundary,
	authGate *gate.Gate,
	auditService audit.Service,
	validationUtil *util.ValidationUtil,
	notificationSvc *util.NotificationService,
	eventBus *util.EventBus,
	cfg Config,
) *Services {
	return &Services{
		Operations: NewOperationService(authGate, boundary, validationUtil, auditService, notificationSvc, eventBus, cfg.Operations),
		Metrics:    NewMetricsService(boundary, cfg.MetricsTTL),
	}
}
