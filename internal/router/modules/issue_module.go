package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/issue-tracker-api/internal/interface/http"
)

// IssueModule serves /api/issues. Every route requires a bearer token.
type IssueModule struct {
	Handler *handlers.IssueHandler
	Auth    gin.HandlerFunc
	Limit   gin.HandlerFunc
}

func NewIssueModule(h *handlers.IssueHandler, auth, limit gin.HandlerFunc) *IssueModule {
	return &IssueModule{Handler: h, Auth: auth, Limit: limit}
}

func (m *IssueModule) Register(rg *gin.RouterGroup) {
	g := rg.Group("/issues")
	g.Use(m.Auth, m.Limit)
	{
		g.GET("", m.Handler.List)
		g.POST("", m.Handler.Create)
		g.GET("/my-assigned", m.Handler.MyAssigned)
		g.GET("/my-created", m.Handler.MyCreated)
		g.GET("/search", m.Handler.Search)
		g.GET("/:id", m.Handler.Get)
		g.PUT("/:id", m.Handler.Update)
		g.PATCH("/:id/status", m.Handler.UpdateStatus)
		g.DELETE("/:id", m.Handler.Delete)
	}
}
