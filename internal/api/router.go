package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jobgenie/internal/auth"
	"jobgenie/internal/config"
	"jobgenie/internal/metrics"
	"jobgenie/internal/models"
)

// SetupRouter configures the Gin router with all routes.
func SetupRouter(cfg *config.Config, jwtManager *auth.JWTManager, svc Services, version string) (*gin.Engine, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := RegisterValidators(); err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(RequestLogger())
	r.Use(Recovery())
	r.Use(CORSMiddleware(cfg.FrontendURL))
	if cfg.MetricsEnabled {
		r.Use(Metrics())
	}
	r.MaxMultipartMemory = cfg.MaxUploadBytes()

	handler := NewHandler(svc, cfg.IsProduction(), version)

	r.GET("/health", handler.HealthCheck)
	if cfg.MetricsEnabled {
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "Not found", Code: "NOT_FOUND"})
	})

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", handler.HealthCheck)

		// Public auth routes
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/candidates/register", handler.RegisterCandidate)
			authGroup.POST("/employers/register", handler.RegisterEmployer)
			authGroup.POST("/verify", handler.VerifyEmail)
			authGroup.POST("/verify/resend", handler.ResendVerification)
			authGroup.POST("/login", handler.Login)
			authGroup.POST("/refresh", handler.RefreshToken)
			authGroup.POST("/logout", handler.Logout)
			authGroup.POST("/password/forgot", handler.ForgotPassword)
			authGroup.POST("/password/reset", handler.ResetPassword)
			authGroup.POST("/invitations/accept", handler.AcceptInvitation)

			if svc.Google != nil {
				authGroup.GET("/google", handler.GoogleAuth)
				authGroup.GET("/google/callback", handler.GoogleCallback)
			}
		}

		protected := v1.Group("")
		protected.Use(AuthMiddleware(jwtManager))
		{
			protected.GET("/me", handler.GetMe)
			protected.PUT("/me/password", handler.ChangePassword)

			candidate := protected.Group("/candidate", RequireRole(models.RoleCandidate))
			{
				candidate.GET("/profile", handler.GetProfile)
				candidate.PUT("/profile", handler.UpdatePersonal)
				candidate.PUT("/profile/industry", handler.UpdateProfessional)
				candidate.POST("/profile/submit", handler.SubmitProfile)

				candidate.GET("/experiences", handler.ListExperiences)
				candidate.POST("/experiences", handler.CreateExperience)
				candidate.PUT("/experiences/:id", handler.UpdateExperience)
				candidate.DELETE("/experiences/:id", handler.DeleteExperience)

				candidate.GET("/educations", handler.ListEducations)
				candidate.POST("/educations", handler.CreateEducation)
				candidate.PUT("/educations/:id", handler.UpdateEducation)
				candidate.DELETE("/educations/:id", handler.DeleteEducation)

				candidate.GET("/certificates", handler.ListCertificates)
				candidate.POST("/certificates", handler.CreateCertificate)
				candidate.PUT("/certificates/:id", handler.UpdateCertificate)
				candidate.DELETE("/certificates/:id", handler.DeleteCertificate)

				candidate.POST("/resume", handler.UploadResume)
				candidate.GET("/resume", handler.DownloadResume)
				candidate.POST("/resume/extract", handler.ExtractResume)
				candidate.GET("/cv.pdf", handler.GenerateCV)
			}

			employer := protected.Group("/employer", RequireRole(models.RoleEmployer))
			{
				employer.GET("/me", handler.GetEmployerMe)
				employer.GET("/company", handler.GetCompany)
				employer.PUT("/company", handler.UpdateCompany)
				employer.POST("/company/resubmit", handler.ResubmitCompany)

				employer.POST("/invitations", handler.CreateInvitation)
				employer.GET("/invitations", handler.ListInvitations)
				employer.DELETE("/invitations/:id", handler.RevokeInvitation)
				employer.GET("/sub-admins", handler.ListSubAdmins)
				employer.DELETE("/sub-admins/:id", handler.RemoveSubAdmin)

				employer.GET("/candidates", handler.SearchCandidates)
				employer.GET("/candidates/:id", handler.ViewCandidate)
				employer.GET("/candidates/:id/resume", handler.DownloadCandidateResume)
			}

			mis := protected.Group("/mis", RequireRole(models.RoleMIS))
			{
				mis.GET("/candidates", handler.ListCandidatesForReview)
				mis.GET("/candidates/:id", handler.GetCandidateForReview)
				mis.GET("/candidates/:id/resume", handler.DownloadResumeForReview)
				mis.POST("/candidates/:id/:action", handler.ReviewCandidate)

				mis.GET("/companies", handler.ListCompaniesForReview)
				mis.GET("/companies/:id", handler.GetCompanyForReview)
				mis.POST("/companies/:id/:action", handler.ReviewCompany)

				mis.GET("/approvals/:entity/:id/history", handler.ApprovalHistory)
				mis.GET("/stats", handler.ApprovalStats)
			}
		}
	}

	return r, nil
}
