// api/util/http_util.go
package util

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	logger "github.com/ledgerdash/ledgerdash/api/logging"
	"github.com/ledgerdash/ledgerdash/api/model"
)

func RespondWithError(c *gin.Context, code int, message string, err error) {
	logger.Error(message,
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method))
	c.JSON(code, gin.H{"error": message})
}

// PrincipalFromHeader extracts the acting principal from the X-Principal
// header set by the wallet/session layer in front of this API.
func PrincipalFromHeader(c *gin.Context) (model.Address, bool) {
	principal := model.Address(c.GetHeader("X-Principal"))
	if !principal.Valid() {
		return "", false
	}
	return principal.Normalize(), true
}
