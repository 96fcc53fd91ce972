package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/issue-tracker-api/internal/application"
	"github.com/oksasatya/issue-tracker-api/pkg/apperror"
)

// UploadField is the multipart field carrying the files.
const UploadField = "files"

type FileHandler struct {
	Base
	Svc *application.FileService
	// MaxBodyBytes caps a whole multipart request.
	MaxBodyBytes int64
}

func NewFileHandler(base Base, svc *application.FileService) *FileHandler {
	cfg := svc.Config
	return &FileHandler{
		Base:         base,
		Svc:          svc,
		MaxBodyBytes: int64(cfg.MaxFiles)*cfg.MaxFileSize + 1<<20,
	}
}

func uploadFiles(headers []*multipart.FileHeader) []application.UploadFile {
	out := make([]application.UploadFile, 0, len(headers))
	for _, fh := range headers {
		fh := fh
		out = append(out, application.UploadFile{
			OriginalName: fh.Filename,
			Size:         fh.Size,
			DeclaredType: fh.Header.Get("Content-Type"),
			Open:         func() (io.ReadCloser, error) { return fh.Open() },
		})
	}
	return out
}

// Upload POST /api/files/issue/:issueId/upload (multipart, field "files")
func (h *FileHandler) Upload(c *gin.Context) {
	var uri issueIDURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.invalid(c, err)
		return
	}
	if h.MaxBodyBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxBodyBytes)
	}
	form, err := c.MultipartForm()
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			h.fail(c, apperror.FileUpload("Upload is too large"))
			return
		}
		h.fail(c, apperror.FileUpload("Expected a multipart form with a \""+UploadField+"\" field"))
		return
	}
	defer form.RemoveAll()

	views, err := h.Svc.Upload(c.Request.Context(), actor(c), uri.IssueID, uploadFiles(form.File[UploadField]))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, gin.H{"files": views}, "Files uploaded successfully", nil)
}

// ListForIssue GET /api/files/issue/:issueId
func (h *FileHandler) ListForIssue(c *gin.Context) {
	var uri issueIDURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.invalid(c, err)
		return
	}
	views, err := h.Svc.ListForIssue(c.Request.Context(), uri.IssueID)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, views, "Files retrieved successfully", nil)
}

// Validate GET /api/files/:id/validate, where :id is the issue id.
func (h *FileHandler) Validate(c *gin.Context) {
	var uri idURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.invalid(c, err)
		return
	}
	report, err := h.Svc.ValidateIntegrity(c.Request.Context(), uri.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, report, "File integrity validated", nil)
}

// Mine GET /api/files/my-files
func (h *FileHandler) Mine(c *gin.Context) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.invalid(c, err)
		return
	}
	page, err := h.Svc.ListMine(c.Request.Context(), actor(c), q.params())
	if err != nil {
		h.fail(c, err)
		return
	}
	paged(c, page, "Files retrieved successfully")
}

// Stats GET /api/files/stats
func (h *FileHandler) Stats(c *gin.Context) {
	st, err := h.Svc.Stats(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, st, "File statistics retrieved successfully", nil)
}

// Get GET /api/files/:id
func (h *FileHandler) Get(c *gin.Context) {
	var uri idURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.invalid(c, err)
		return
	}
	v, err := h.Svc.Get(c.Request.Context(), uri.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"file": v}, "File retrieved successfully", nil)
}

// Download GET /api/files/:id/download
func (h *FileHandler) Download(c *gin.Context) {
	var uri idURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.invalid(c, err)
		return
	}
	v, rc, err := h.Svc.Download(c.Request.Context(), uri.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	defer rc.Close()
	c.DataFromReader(http.StatusOK, v.Size, v.MimeType, rc, map[string]string{
		"Content-Disposition": contentDisposition(v.OriginalName),
	})
}

// Delete DELETE /api/files/:id
func (h *FileHandler) Delete(c *gin.Context) {
	var uri idURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.invalid(c, err)
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), actor(c), uri.ID); err != nil {
		h.fail(c, err)
		return
	}
	ok[any](c, http.StatusOK, nil, "File deleted successfully", nil)
}

var dispositionEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\r", "", "\n", "")

func contentDisposition(name string) string {
	return `attachment; filename="` + dispositionEscaper.Replace(name) + `"`
}
