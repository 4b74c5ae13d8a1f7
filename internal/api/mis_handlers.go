package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"jobgenie/internal/approval"
	"jobgenie/internal/models"
)

// ==================== Review queues ====================

// ListCandidatesForReview handles GET /api/v1/mis/candidates
func (h *Handler) ListCandidatesForReview(c *gin.Context) {
	status, ok := statusFilter(c)
	if !ok {
		return
	}
	page, pageSize := pagination(c)

	result, err := h.Approvals.ListCandidates(c.Request.Context(), status, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetCandidateForReview handles GET /api/v1/mis/candidates/:id
func (h *Handler) GetCandidateForReview(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.Approvals.CandidateProfile(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// ReviewCandidate handles POST /api/v1/mis/candidates/:id/:action
func (h *Handler) ReviewCandidate(c *gin.Context) {
	id, action, reason, ok := reviewInput(c)
	if !ok {
		return
	}
	candidate, err := h.Approvals.ReviewCandidate(c.Request.Context(), actor(c), id, action, reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, candidate)
}

// DownloadResumeForReview handles GET /api/v1/mis/candidates/:id/resume
func (h *Handler) DownloadResumeForReview(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	candidate, err := h.Approvals.Candidate(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	f, err := h.Resumes.Open(c.Request.Context(), candidate)
	if err != nil {
		respondError(c, err)
		return
	}
	serveResume(c, f)
}

// ListCompaniesForReview handles GET /api/v1/mis/companies
func (h *Handler) ListCompaniesForReview(c *gin.Context) {
	status, ok := statusFilter(c)
	if !ok {
		return
	}
	page, pageSize := pagination(c)

	result, err := h.Approvals.ListCompanies(c.Request.Context(), status, page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetCompanyForReview handles GET /api/v1/mis/companies/:id
func (h *Handler) GetCompanyForReview(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	company, err := h.Approvals.Company(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

// ReviewCompany handles POST /api/v1/mis/companies/:id/:action
func (h *Handler) ReviewCompany(c *gin.Context) {
	id, action, reason, ok := reviewInput(c)
	if !ok {
		return
	}
	company, err := h.Approvals.ReviewCompany(c.Request.Context(), actor(c), id, action, reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

// ==================== Audit ====================

// ApprovalHistory handles GET /api/v1/mis/approvals/:entity/:id/history
func (h *Handler) ApprovalHistory(c *gin.Context) {
	entity, ok := entityParams[c.Param("entity")]
	if !ok {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "Entity must be candidate or company",
			Code:  "INVALID_REQUEST",
		})
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	events, err := h.Approvals.History(c.Request.Context(), entity, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// ApprovalStats handles GET /api/v1/mis/stats
func (h *Handler) ApprovalStats(c *gin.Context) {
	stats, err := h.Approvals.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

var entityParams = map[string]models.EntityType{
	"candidate":  models.EntityCandidate,
	"candidates": models.EntityCandidate,
	"company":    models.EntityCompany,
	"companies":  models.EntityCompany,
}

func actor(c *gin.Context) approval.Actor {
	role, _ := GetRole(c)
	return approval.Actor{UserID: mustUserID(c), Role: role}
}

func reviewInput(c *gin.Context) (id uuid.UUID, action approval.Action, reason string, ok bool) {
	id, ok = pathID(c, "id")
	if !ok {
		return
	}
	action, err := approval.ParseAction(c.Param("action"))
	if err != nil {
		respondError(c, err)
		return id, "", "", false
	}

	var req models.ReviewRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return id, "", "", false
		}
	}
	return id, action, req.Reason, true
}

func statusFilter(c *gin.Context) (*models.ApprovalStatus, bool) {
	v := c.Query("status")
	if v == "" {
		return nil, true
	}
	status := models.ApprovalStatus(strings.ToLower(v))
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "Status must be pending, approved or rejected",
			Code:  "INVALID_REQUEST",
		})
		return nil, false
	}
	return &status, true
}
