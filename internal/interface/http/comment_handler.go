package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/issue-tracker-api/internal/application"
)

type CommentHandler struct {
	Base
	Svc *application.CommentService
}

func NewCommentHandler(base Base, svc *application.CommentService) *CommentHandler {
	return &CommentHandler{Base: base, Svc: svc}
}

type commentRequest struct {
	Content string `json:"content" binding:"required,max=1000"`
}

type recentQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=50"`
}

// Create POST /api/comments/issue/:issueId
func (h *CommentHandler) Create(c *gin.Context) {
	var uri issueIDURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.invalid(c, err)
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.invalid(c, err)
		return
	}
	v, err := h.Svc.Create(c.Request.Context(), actor(c), uri.IssueID, req.Content)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, gin.H{"comment": v}, "Comment created successfully", nil)
}

// ListForIssue GET /api/comments/issue/:issueId
func (h *CommentHandler) ListForIssue(c *gin.Context) {
	var uri issueIDURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.invalid(c, err)
		return
	}
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.invalid(c, err)
		return
	}
	page, err := h.Svc.ListForIssue(c.Request.Context(), uri.IssueID, q.params())
	if err != nil {
		h.fail(c, err)
		return
	}
	paged(c, page, "Comments retrieved successfully")
}

// Mine GET /api/comments/my-comments
func (h *CommentHandler) Mine(c *gin.Context) {
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
	paged(c, page, "Comments retrieved successfully")
}

// Recent GET /api/comments/recent
func (h *CommentHandler) Recent(c *gin.Context) {
	var q recentQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.invalid(c, err)
		return
	}
	items, err := h.Svc.ListRecent(c.Request.Context(), q.Limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, items, "Recent comments retrieved successfully", nil)
}

// Get GET /api/comments/:id
func (h *CommentHandler) Get(c *gin.Context) {
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
	ok(c, http.StatusOK, gin.H{"comment": v}, "Comment retrieved successfully", nil)
}

// Update PUT /api/comments/:id
func (h *CommentHandler) Update(c *gin.Context) {
	var uri idURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.invalid(c, err)
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.invalid(c, err)
		return
	}
	v, err := h.Svc.Update(c.Request.Context(), actor(c), uri.ID, req.Content)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"comment": v}, "Comment updated successfully", nil)
}

// Delete DELETE /api/comments/:id
func (h *CommentHandler) Delete(c *gin.Context) {
	var uri idURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.invalid(c, err)
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), actor(c), uri.ID); err != nil {
		h.fail(c, err)
		return
	}
	ok[any](c, http.StatusOK, nil, "Comment deleted successfully", nil)
}
