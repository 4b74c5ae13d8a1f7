package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"jobgenie/internal/models"
)

// ==================== Company ====================

// GetEmployerMe handles GET /api/v1/employer/me
func (h *Handler) GetEmployerMe(c *gin.Context) {
	view, err := h.Companies.Me(c.Request.Context(), mustUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetCompany handles GET /api/v1/employer/company
func (h *Handler) GetCompany(c *gin.Context) {
	view, err := h.Companies.Me(c.Request.Context(), mustUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view.Company)
}

// UpdateCompany handles PUT /api/v1/employer/company
func (h *Handler) UpdateCompany(c *gin.Context) {
	var req models.CompanyRequest
	if !bindJSON(c, &req) {
		return
	}

	company, err := h.Companies.UpdateCompany(c.Request.Context(), mustUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

// ResubmitCompany handles POST /api/v1/employer/company/resubmit
func (h *Handler) ResubmitCompany(c *gin.Context) {
	company, err := h.Companies.Resubmit(c.Request.Context(), mustUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, company)
}

// ==================== Sub-admins ====================

// CreateInvitation handles POST /api/v1/employer/invitations
func (h *Handler) CreateInvitation(c *gin.Context) {
	var req models.InviteRequest
	if !bindJSON(c, &req) {
		return
	}

	inv, err := h.Invitations.Invite(c.Request.Context(), mustUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, inv)
}

// ListInvitations handles GET /api/v1/employer/invitations
func (h *Handler) ListInvitations(c *gin.Context) {
	items, err := h.Invitations.List(c.Request.Context(), mustUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// RevokeInvitation handles DELETE /api/v1/employer/invitations/:id
func (h *Handler) RevokeInvitation(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.Invitations.Revoke(c.Request.Context(), mustUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListSubAdmins handles GET /api/v1/employer/sub-admins
func (h *Handler) ListSubAdmins(c *gin.Context) {
	items, err := h.Invitations.ListSubAdmins(c.Request.Context(), mustUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// RemoveSubAdmin handles DELETE /api/v1/employer/sub-admins/:id
func (h *Handler) RemoveSubAdmin(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.Invitations.RemoveSubAdmin(c.Request.Context(), mustUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ==================== Candidates ====================

// SearchCandidates handles GET /api/v1/employer/candidates
func (h *Handler) SearchCandidates(c *gin.Context) {
	page, pageSize := pagination(c)
	f := models.CandidateSearch{Page: page, PageSize: pageSize}

	if v := strings.TrimSpace(c.Query("industry")); v != "" {
		industry := models.Industry(strings.ToLower(v))
		if !industry.Valid() {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: "Unknown industry",
				Code:  "INVALID_REQUEST",
			})
			return
		}
		f.Industry = &industry
	}
	if v := strings.TrimSpace(c.Query("city")); v != "" {
		f.City = &v
	}

	result, err := h.Companies.SearchCandidates(c.Request.Context(), mustUserID(c), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ViewCandidate handles GET /api/v1/employer/candidates/:id
func (h *Handler) ViewCandidate(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.Companies.ViewCandidate(c.Request.Context(), mustUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// DownloadCandidateResume handles GET /api/v1/employer/candidates/:id/resume
func (h *Handler) DownloadCandidateResume(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	candidate, err := h.Companies.AuthorizeCandidate(c.Request.Context(), mustUserID(c), id)
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

// pagination reads page and page_size query parameters.
func pagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.Query("page"))
	pageSize, _ := strconv.Atoi(c.Query("page_size"))
	return models.ClampPage(page, pageSize)
}
