// api/util/helper/api.go
package helper_util

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetTermParam reads the term query parameter, defaulting to the first term.
func GetTermParam(c *gin.Context) (int, error) {
	term, err := strconv.Atoi(c.DefaultQuery("term", "1"))
	if err != nil {
		return 0, err
	}
	return term, nil
}

// GetLimitParam reads the history limit query parameter.
func GetLimitParam(c *gin.Context) (int, error) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil {
		return 0, err
	}
	return limit, nil
}
