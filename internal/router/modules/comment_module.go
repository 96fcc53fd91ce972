package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/issue-tracker-api/internal/interface/http"
)

type CommentModule struct {
	Handler *handlers.CommentHandler
	Auth    gin.HandlerFunc
	Limit   gin.HandlerFunc
}

func NewCommentModule(h *handlers.CommentHandler, auth, limit gin.HandlerFunc) *CommentModule {
	return &CommentModule{Handler: h, Auth: auth, Limit: limit}
}

func (m *CommentModule) Register(rg *gin.RouterGroup) {
	g := rg.Group("/comments")
	g.Use(m.Auth, m.Limit)
	{
		g.GET("/issue/:issueId", m.Handler.ListForIssue)
		g.POST("/issue/:issueId", m.Handler.Create)
		g.GET("/my-comments", m.Handler.Mine)
		g.GET("/recent", m.Handler.Recent)
		g.GET("/:id", m.Handler.Get)
		g.PUT("/:id", m.Handler.Update)
		g.DELETE("/:id", m.Handler.Delete)
	}
}
