package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/issue-tracker-api/pkg/response"
)

// Recovery turns a panic into a 500 envelope. The panic value and stack are
// only exposed when showDetail is set.
func Recovery(logger logrus.FieldLogger, showDetail bool) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		stack := string(debug.Stack())
		logger.WithFields(logrus.Fields{
			"request_id": c.GetString(CtxRequestID),
			"path":       c.Request.URL.Path,
			"method":     c.Request.Method,
			"panic":      fmt.Sprint(recovered),
		}).Error("panic recovered")

		resp := response.Error[any](c, http.StatusInternalServerError, "Internal server error", nil)
		if showDetail {
			resp.Message = fmt.Sprint(recovered)
			resp.Error.Message = resp.Message
			resp = resp.WithStack(stack)
		}
		c.AbortWithStatusJSON(resp.Status, resp)
	})
}
