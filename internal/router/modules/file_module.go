package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/issue-tracker-api/internal/interface/http"
)

// FileModule serves attachment routes. /files/:id/validate takes an issue id.
type FileModule struct {
	Handler *handlers.FileHandler
	Auth    gin.HandlerFunc
	Limit   gin.HandlerFunc
}

func NewFileModule(h *handlers.FileHandler, auth, limit gin.HandlerFunc) *FileModule {
	return &FileModule{Handler: h, Auth: auth, Limit: limit}
}

func (m *FileModule) Register(rg *gin.RouterGroup) {
	g := rg.Group("/files")
	g.Use(m.Auth, m.Limit)
	{
		g.POST("/issue/:issueId/upload", m.Handler.Upload)
		g.GET("/issue/:issueId", m.Handler.ListForIssue)
		g.GET("/my-files", m.Handler.Mine)
		g.GET("/stats", m.Handler.Stats)
		g.GET("/:id", m.Handler.Get)
		g.GET("/:id/download", m.Handler.Download)
		g.GET("/:id/validate", m.Handler.Validate)
		g.DELETE("/:id", m.Handler.Delete)
	}
}
