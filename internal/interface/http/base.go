package handlers

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/issue-tracker-api/internal/application"
	"github.com/oksasatya/issue-tracker-api/internal/interface/middleware"
	"github.com/oksasatya/issue-tracker-api/pkg/apperror"
	"github.com/oksasatya/issue-tracker-api/pkg/response"
	"github.com/oksasatya/issue-tracker-api/pkg/validation"
)

// Base carries what every handler needs to answer a request.
// ShowDetail exposes messages and stacks of unexpected errors (development).
type Base struct {
	Logger     logrus.FieldLogger
	ShowDetail bool
}

type idURI struct {
	ID string `uri:"id" binding:"required,uuid"`
}

type issueIDURI struct {
	IssueID string `uri:"issueId" binding:"required,uuid"`
}

type pageQuery struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

func (q pageQuery) params() application.ListParams {
	return application.ListParams{Page: q.Page, Limit: q.Limit}
}

func actor(c *gin.Context) string {
	return c.GetString(middleware.CtxUserID)
}

func ok[T any](c *gin.Context, status int, data T, msg string, p *response.Pagination) {
	resp := response.Success(c, status, data, msg, p)
	c.JSON(resp.Status, resp)
}

func paged[T any](c *gin.Context, page *application.Page[T], msg string) {
	ok(c, http.StatusOK, page.Items, msg, response.NewPagination(page.Page, page.Limit, page.Total))
}

// invalid answers a binding or validator failure.
func (b Base) invalid(c *gin.Context, err error) {
	resp := response.Error[any](c, http.StatusBadRequest, "Validation failed", validation.ToDetails(err))
	c.JSON(resp.Status, resp)
}

// fail maps err onto the error envelope. Client errors carry their own
// message; anything else is logged and answered generically unless
// ShowDetail is set.
func (b Base) fail(c *gin.Context, err error) {
	ae, classified := apperror.As(err)
	if classified && ae.Kind != apperror.KindDatabase && ae.Kind != apperror.KindInternal {
		resp := response.Error[any](c, ae.StatusCode(), ae.Message, ae.Details)
		c.JSON(resp.Status, resp)
		return
	}

	_ = c.Error(err)
	if b.Logger != nil {
		b.Logger.WithError(err).WithFields(logrus.Fields{
			"request_id": c.GetString(middleware.CtxRequestID),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
		}).Error("request failed")
	}
	resp := response.Error[any](c, http.StatusInternalServerError, "Internal server error", nil)
	if b.ShowDetail {
		resp.Message = err.Error()
		resp.Error.Message = resp.Message
		resp = resp.WithStack(string(debug.Stack()))
	}
	c.JSON(resp.Status, resp)
}
