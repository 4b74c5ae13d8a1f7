package api

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"jobgenie/internal/models"
	"jobgenie/internal/resume"
)

// multipartOverhead allows room for the multipart envelope around the file.
const multipartOverhead = 1 << 20

// ==================== Profile ====================

// GetProfile handles GET /api/v1/candidate/profile
func (h *Handler) GetProfile(c *gin.Context) {
	p, err := h.Profiles.Profile(c.Request.Context(), mustUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// UpdatePersonal handles PUT /api/v1/candidate/profile
func (h *Handler) UpdatePersonal(c *gin.Context) {
	var req models.PersonalDetailsRequest
	if !bindJSON(c, &req) {
		return
	}

	candidate, err := h.Profiles.UpdatePersonal(c.Request.Context(), mustUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, candidate)
}

// UpdateProfessional handles PUT /api/v1/candidate/profile/industry
func (h *Handler) UpdateProfessional(c *gin.Context) {
	var req models.ProfessionalDetailsRequest
	if !bindJSON(c, &req) {
		return
	}

	candidate, err := h.Profiles.UpdateProfessional(c.Request.Context(), mustUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, candidate)
}

// SubmitProfile handles POST /api/v1/candidate/profile/submit
func (h *Handler) SubmitProfile(c *gin.Context) {
	candidate, err := h.Profiles.Submit(c.Request.Context(), mustUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, candidate)
}

// ==================== Experience ====================

// ListExperiences handles GET /api/v1/candidate/experiences
func (h *Handler) ListExperiences(c *gin.Context) {
	items, err := h.Profiles.ListExperiences(c.Request.Context(), mustUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// CreateExperience handles POST /api/v1/candidate/experiences
func (h *Handler) CreateExperience(c *gin.Context) {
	var req models.ExperienceRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.Profiles.AddExperience(c.Request.Context(), mustUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// UpdateExperience handles PUT /api/v1/candidate/experiences/:id
func (h *Handler) UpdateExperience(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.ExperienceRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.Profiles.UpdateExperience(c.Request.Context(), mustUserID(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeleteExperience handles DELETE /api/v1/candidate/experiences/:id
func (h *Handler) DeleteExperience(c *gin.Context) {
	h.deleteItem(c, h.Profiles.DeleteExperience)
}

// ==================== Education ====================

// ListEducations handles GET /api/v1/candidate/educations
func (h *Handler) ListEducations(c *gin.Context) {
	items, err := h.Profiles.ListEducations(c.Request.Context(), mustUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// CreateEducation handles POST /api/v1/candidate/educations
func (h *Handler) CreateEducation(c *gin.Context) {
	var req models.EducationRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.Profiles.AddEducation(c.Request.Context(), mustUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// UpdateEducation handles PUT /api/v1/candidate/educations/:id
func (h *Handler) UpdateEducation(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.EducationRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.Profiles.UpdateEducation(c.Request.Context(), mustUserID(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeleteEducation handles DELETE /api/v1/candidate/educations/:id
func (h *Handler) DeleteEducation(c *gin.Context) {
	h.deleteItem(c, h.Profiles.DeleteEducation)
}

// ==================== Certificates ====================

// ListCertificates handles GET /api/v1/candidate/certificates
func (h *Handler) ListCertificates(c *gin.Context) {
	items, err := h.Profiles.ListCertificates(c.Request.Context(), mustUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// CreateCertificate handles POST /api/v1/candidate/certificates
func (h *Handler) CreateCertificate(c *gin.Context) {
	var req models.CertificateRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.Profiles.AddCertificate(c.Request.Context(), mustUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// UpdateCertificate handles PUT /api/v1/candidate/certificates/:id
func (h *Handler) UpdateCertificate(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.CertificateRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.Profiles.UpdateCertificate(c.Request.Context(), mustUserID(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeleteCertificate handles DELETE /api/v1/candidate/certificates/:id
func (h *Handler) DeleteCertificate(c *gin.Context) {
	h.deleteItem(c, h.Profiles.DeleteCertificate)
}

func (h *Handler) deleteItem(c *gin.Context, del func(ctx context.Context, userID, id uuid.UUID) error) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := del(c.Request.Context(), mustUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ==================== Resume ====================

// UploadResume handles POST /api/v1/candidate/resume
func (h *Handler) UploadResume(c *gin.Context) {
	limit := h.Resumes.MaxBytes()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, resume.ErrTooLarge)
			return
		}
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "A resume file is required",
			Code:    "INVALID_REQUEST",
			Details: err.Error(),
		})
		return
	}
	if fh.Size > limit {
		respondError(c, resume.ErrTooLarge)
		return
	}

	f, err := fh.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	candidate, err := h.Resumes.Upload(c.Request.Context(), mustUserID(c), fh.Filename, f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, candidate)
}

// DownloadResume handles GET /api/v1/candidate/resume
func (h *Handler) DownloadResume(c *gin.Context) {
	f, err := h.Resumes.OpenOwn(c.Request.Context(), mustUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	serveResume(c, f)
}

// ExtractResume handles POST /api/v1/candidate/resume/extract
func (h *Handler) ExtractResume(c *gin.Context) {
	apply, _ := strconv.ParseBool(c.DefaultQuery("apply", "false"))

	resp, err := h.Resumes.Extract(c.Request.Context(), mustUserID(c), apply)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GenerateCV handles GET /api/v1/candidate/cv.pdf
func (h *Handler) GenerateCV(c *gin.Context) {
	pdf, err := h.Resumes.GenerateCV(c.Request.Context(), mustUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": "cv.pdf"}))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func serveResume(c *gin.Context, f *resume.File) {
	defer f.Body.Close()
	c.DataFromReader(http.StatusOK, -1, f.ContentType, f.Body, map[string]string{
		"Content-Disposition": mime.FormatMediaType("attachment", map[string]string{"filename": f.Name}),
	})
}
