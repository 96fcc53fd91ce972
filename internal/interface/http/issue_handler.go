package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/issue-tracker-api/internal/application"
	"github.com/oksasatya/issue-tracker-api/internal/domain/entity"
	repo "github.com/oksasatya/issue-tracker-api/internal/domain/repository"
)

type IssueHandler struct {
	Base
	Svc *application.IssueService
}

func NewIssueHandler(base Base, svc *application.IssueService) *IssueHandler {
	return &IssueHandler{Base: base, Svc: svc}
}

type createIssueRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description" binding:"required,max=2000"`
	Priority    string `json:"priority" binding:"omitempty,issue_priority"`
	AssignedTo  string `json:"assignedTo" binding:"omitempty,uuid"`
}

type updateIssueRequest struct {
	Title       *string `json:"title" binding:"omitempty,max=200"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	Status      *string `json:"status" binding:"omitempty,issue_status"`
	Priority    *string `json:"priority" binding:"omitempty,issue_priority"`
	AssignedTo  *string `json:"assignedTo" binding:"omitempty,uuid|len=0"`
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required,issue_status"`
}

type listIssuesQuery struct {
	pageQuery
	Status     string `form:"status" binding:"omitempty,issue_status"`
	Priority   string `form:"priority" binding:"omitempty,issue_priority"`
	AssignedTo string `form:"assignedTo" binding:"omitempty,uuid"`
	CreatedBy  string `form:"createdBy" binding:"omitempty,uuid"`
	Search     string `form:"search" binding:"omitempty,max=200"`
}

func (q listIssuesQuery) filter() repo.IssueFilter {
	return repo.IssueFilter{
		Status:     entity.IssueStatus(q.Status),
		Priority:   entity.IssuePriority(q.Priority),
		AssignedTo: q.AssignedTo,
		CreatedBy:  q.CreatedBy,
		Search:     q.Search,
	}
}

type searchQuery struct {
	Q     string `form:"q" binding:"required,max=200"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=50"`
}

// Create POST /api/issues
func (h *IssueHandler) Create(c *gin.Context) {
	var req createIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.invalid(c, err)
		return
	}
	v, err := h.Svc.Create(c.Request.Context(), actor(c), application.CreateIssueInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    entity.IssuePriority(req.Priority),
		AssignedTo:  req.AssignedTo,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, gin.H{"issue": v}, "Issue created successfully", nil)
}

// List GET /api/issues
func (h *IssueHandler) List(c *gin.Context) {
	var q listIssuesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.invalid(c, err)
		return
	}
	page, err := h.Svc.List(c.Request.Context(), q.filter(), q.params())
	if err != nil {
		h.fail(c, err)
		return
	}
	paged(c, page, "Issues retrieved successfully")
}

func (h *IssueHandler) listMine(c *gin.Context, role application.MineRole) {
	var q listIssuesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.invalid(c, err)
		return
	}
	page, err := h.Svc.ListMine(c.Request.Context(), actor(c), role, q.filter(), q.params())
	if err != nil {
		h.fail(c, err)
		return
	}
	paged(c, page, "Issues retrieved successfully")
}

// MyAssigned GET /api/issues/my-assigned
func (h *IssueHandler) MyAssigned(c *gin.Context) { h.listMine(c, application.MineAssigned) }

// MyCreated GET /api/issues/my-created
func (h *IssueHandler) MyCreated(c *gin.Context) { h.listMine(c, application.MineCreated) }

// Search GET /api/issues/search?q=
func (h *IssueHandler) Search(c *gin.Context) {
	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.invalid(c, err)
		return
	}
	items, total, err := h.Svc.SearchIssues(c.Request.Context(), q.Q, q.Limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"issues": items, "total": total}, "Search completed", nil)
}

// Get GET /api/issues/:id
func (h *IssueHandler) Get(c *gin.Context) {
	var uri idURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.invalid(c, err)
		return
	}
	d, err := h.Svc.Get(c.Request.Context(), uri.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, d, "Issue retrieved successfully", nil)
}

// Update PUT /api/issues/:id
func (h *IssueHandler) Update(c *gin.Context) {
	var uri idURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.invalid(c, err)
		return
	}
	var req updateIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.invalid(c, err)
		return
	}
	in := application.UpdateIssueInput{Title: req.Title, Description: req.Description, AssignedTo: req.AssignedTo}
	if req.Status != nil {
		s := entity.IssueStatus(*req.Status)
		in.Status = &s
	}
	if req.Priority != nil {
		p := entity.IssuePriority(*req.Priority)
		in.Priority = &p
	}
	v, err := h.Svc.Update(c.Request.Context(), actor(c), uri.ID, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"issue": v}, "Issue updated successfully", nil)
}

// UpdateStatus PATCH /api/issues/:id/status
func (h *IssueHandler) UpdateStatus(c *gin.Context) {
	var uri idURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.invalid(c, err)
		return
	}
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.invalid(c, err)
		return
	}
	v, err := h.Svc.UpdateStatus(c.Request.Context(), actor(c), uri.ID, entity.IssueStatus(req.Status))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"issue": v}, "Issue status updated successfully", nil)
}

// Delete DELETE /api/issues/:id
func (h *IssueHandler) Delete(c *gin.Context) {
	var uri idURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.invalid(c, err)
		return
	}
	report, err := h.Svc.Delete(c.Request.Context(), actor(c), uri.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"cascade": report}, "Issue deleted successfully", nil)
}
