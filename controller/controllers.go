// api/controller/controllers.go
package controller

import "github.com/ledgerdash/ledgerdash/api/service"

type Controllers struct {
	Operations *OperationsController
	Metrics    *MetricsController
}

func InitializeControllers(services *service.Services) *Controllers {
	return &Controllers{
		Operations: NewOperationsController(services.Operations),
		Metrics:    NewMetricsController(services.Metrics),
	}
}
