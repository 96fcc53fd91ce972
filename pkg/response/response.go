package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pagination describes an offset page. Pages is ceil(Total/Limit).
type Pagination struct {
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	Total   int64 `json:"total"`
	Pages   int   `json:"pages"`
	HasNext bool  `json:"hasNext"`
	HasPrev bool  `json:"hasPrev"`
}

func NewPagination(page, limit int, total int64) *Pagination {
	if page < 1 {
		page = 1
	}
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return &Pagination{
		Page:    page,
		Limit:   limit,
		Total:   total,
		Pages:   pages,
		HasNext: page < pages,
		HasPrev: page > 1,
	}
}

type ErrorBody struct {
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
	Details    any    `json:"details,omitempty"`
	Stack      string `json:"stack,omitempty"`
}

type APIResponse[T any] struct {
	Status     int         `json:"-"`
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	Data       T           `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Error      *ErrorBody  `json:"error,omitempty"`
	RequestID  string      `json:"requestId,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

func Success[T any](ctx *gin.Context, status int, data T, message string, pagination *Pagination) APIResponse[T] {
	if status == 0 {
		status = http.StatusOK
	}
	return APIResponse[T]{
		Status:     status,
		Timestamp:  time.Now(),
		RequestID:  ctx.GetString("request_id"),
		Success:    true,
		Message:    message,
		Data:       data,
		Pagination: pagination,
	}
}

func Error[T any](ctx *gin.Context, status int, message string, details any) APIResponse[T] {
	if status == 0 {
		status = http.StatusBadRequest
	}
	return APIResponse[T]{
		Status:    status,
		Timestamp: time.Now(),
		RequestID: ctx.GetString("request_id"),
		Success:   false,
		Message:   message,
		Error:     &ErrorBody{Message: message, StatusCode: status, Details: details},
	}
}

// WithStack attaches a stack trace to an error response (development only).
func (r APIResponse[T]) WithStack(stack string) APIResponse[T] {
	if r.Error != nil {
		r.Error.Stack = stack
	}
	return r
}

// Abort writes an error envelope and stops the handler chain.
func Abort(ctx *gin.Context, status int, message string, details any) {
	resp := Error[any](ctx, status, message, details)
	ctx.AbortWithStatusJSON(resp.Status, resp)
}
