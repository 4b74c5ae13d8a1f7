package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"jobgenie/internal/account"
	"jobgenie/internal/approval"
	"jobgenie/internal/auth"
	"jobgenie/internal/invitation"
	"jobgenie/internal/models"
	"jobgenie/internal/profile"
	"jobgenie/internal/resume"
	"jobgenie/internal/verification"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

// errorMappings is checked in order with errors.Is.
var errorMappings = []errorMapping{
	// account
	{account.ErrEmailTaken, http.StatusConflict, "EMAIL_TAKEN"},
	{account.ErrCompanyExists, http.StatusConflict, "COMPANY_EXISTS"},
	{account.ErrAlreadyVerified, http.StatusConflict, "ALREADY_VERIFIED"},
	{account.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
	{account.ErrEmailNotVerified, http.StatusForbidden, "EMAIL_NOT_VERIFIED"},
	{account.ErrAccountSuspended, http.StatusForbidden, "ACCOUNT_SUSPENDED"},
	{account.ErrInvalidToken, http.StatusUnauthorized, "INVALID_TOKEN"},
	{account.ErrSamePassword, http.StatusBadRequest, "SAME_PASSWORD"},
	{account.ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND"},
	{account.ErrGoogleCandidateOnly, http.StatusForbidden, "GOOGLE_CANDIDATE_ONLY"},
	{account.ErrGoogleUnverified, http.StatusForbidden, "GOOGLE_EMAIL_UNVERIFIED"},
	{auth.ErrPasswordTooShort, http.StatusBadRequest, "WEAK_PASSWORD"},
	{auth.ErrPasswordTooLong, http.StatusBadRequest, "WEAK_PASSWORD"},
	{auth.ErrPasswordWeak, http.StatusBadRequest, "WEAK_PASSWORD"},

	// verification
	{verification.ErrCodeNotFound, http.StatusBadRequest, "INVALID_CODE"},
	{verification.ErrCodeInvalid, http.StatusBadRequest, "INVALID_CODE"},
	{verification.ErrCodeConsumed, http.StatusBadRequest, "CODE_USED"},
	{verification.ErrCodeExpired, http.StatusBadRequest, "CODE_EXPIRED"},
	{verification.ErrTooManyAttempts, http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS"},
	{verification.ErrResendTooSoon, http.StatusTooManyRequests, "RESEND_TOO_SOON"},

	// approval
	{approval.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{approval.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{approval.ErrNotSubmitted, http.StatusConflict, "NOT_SUBMITTED"},
	{approval.ErrAlreadySubmitted, http.StatusConflict, "ALREADY_SUBMITTED"},
	{approval.ErrStaleStatus, http.StatusConflict, "STALE_STATUS"},
	{approval.ErrInvalidTransition, http.StatusConflict, "INVALID_TRANSITION"},
	{approval.ErrReasonRequired, http.StatusBadRequest, "REASON_REQUIRED"},

	// invitation
	{invitation.ErrNotSuperAdmin, http.StatusForbidden, "NOT_SUPER_ADMIN"},
	{invitation.ErrCompanyNotApproved, http.StatusForbidden, "COMPANY_NOT_APPROVED"},
	{invitation.ErrAlreadyInvited, http.StatusConflict, "ALREADY_INVITED"},
	{invitation.ErrEmailTaken, http.StatusConflict, "EMAIL_TAKEN"},
	{invitation.ErrInvalidPermission, http.StatusBadRequest, "INVALID_PERMISSION"},
	{invitation.ErrInvitationNotFound, http.StatusNotFound, "INVITATION_NOT_FOUND"},
	{invitation.ErrInvitationClosed, http.StatusGone, "INVITATION_CLOSED"},
	{invitation.ErrInvitationExpired, http.StatusGone, "INVITATION_EXPIRED"},
	{invitation.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
	{invitation.ErrPasswordUnchanged, http.StatusBadRequest, "SAME_PASSWORD"},
	{invitation.ErrSubAdminNotFound, http.StatusNotFound, "SUB_ADMIN_NOT_FOUND"},
	{invitation.ErrCannotRemove, http.StatusConflict, "CANNOT_REMOVE"},

	// profile
	{profile.ErrProfileNotFound, http.StatusNotFound, "PROFILE_NOT_FOUND"},
	{profile.ErrItemNotFound, http.StatusNotFound, "NOT_FOUND"},
	{profile.ErrInvalidDate, http.StatusBadRequest, "INVALID_DATE"},
	{profile.ErrIncomplete, http.StatusUnprocessableEntity, "PROFILE_INCOMPLETE"},
	{profile.ErrInvalidDetails, http.StatusBadRequest, "INVALID_DETAILS"},
	{profile.ErrEmployerNotFound, http.StatusNotFound, "EMPLOYER_NOT_FOUND"},
	{profile.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{profile.ErrCompanyNotApproved, http.StatusForbidden, "COMPANY_NOT_APPROVED"},
	{profile.ErrCompanyExists, http.StatusConflict, "COMPANY_EXISTS"},
	{profile.ErrCandidateNotFound, http.StatusNotFound, "CANDIDATE_NOT_FOUND"},

	// resume
	{resume.ErrProfileNotFound, http.StatusNotFound, "PROFILE_NOT_FOUND"},
	{resume.ErrTooLarge, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"},
	{resume.ErrEmptyFile, http.StatusBadRequest, "EMPTY_FILE"},
	{resume.ErrUnsupportedType, http.StatusUnsupportedMediaType, "UNSUPPORTED_FILE_TYPE"},
	{resume.ErrNoResume, http.StatusNotFound, "NO_RESUME"},
	{resume.ErrExtractionUnavailable, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
	{resume.ErrNotExtractable, http.StatusUnprocessableEntity, "NOT_EXTRACTABLE"},
	{resume.ErrExtractionFailed, http.StatusBadGateway, "EXTRACTION_FAILED"},
}

// respondError writes the API error for err. Unknown errors are logged and
// reported as internal errors without details.
func respondError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.err) {
			continue
		}
		resp := models.ErrorResponse{Error: err.Error(), Code: m.code}
		var incomplete *profile.IncompleteError
		if errors.As(err, &incomplete) {
			resp.Error = profile.ErrIncomplete.Error()
			resp.Details = strings.Join(incomplete.Missing, ",")
		}
		if m.status >= http.StatusInternalServerError {
			requestID, _ := c.Get(ctxRequestID)
			slog.Warn("Request failed", "request_id", requestID, "code", m.code, "error", err)
		}
		c.AbortWithStatusJSON(m.status, resp)
		return
	}

	requestID, _ := c.Get(ctxRequestID)
	slog.Error("Unhandled error", "request_id", requestID, "path", c.FullPath(), "error", err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{
		Error: "Internal server error",
		Code:  "INTERNAL_ERROR",
	})
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "Invalid request",
		Code:    "INVALID_REQUEST",
		Details: bindingDetails(err),
	})
}
