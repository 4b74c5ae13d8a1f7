package resume

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"time"

	"github.com/google/uuid"

	"jobgenie/internal/gemini"
	"jobgenie/internal/metrics"
	"jobgenie/internal/models"
	"jobgenie/internal/pdf"
	"jobgenie/internal/storage"
)

var (
	ErrTooLarge              = errors.New("resume file is too large")
	ErrEmptyFile             = errors.New("resume file is empty")
	ErrNoResume              = errors.New("no resume uploaded")
	ErrProfileNotFound       = errors.New("candidate profile not found")
	ErrExtractionUnavailable = errors.New("resume extraction is not configured")
	ErrNotExtractable        = errors.New("legacy .doc files cannot be extracted, upload a PDF or DOCX")
	ErrExtractionFailed      = errors.New("resume extraction failed")
)

const importSource = "resume"

// Store is the persistence the resume service needs.
type Store interface {
	GetCandidateByUserID(ctx context.Context, userID uuid.UUID) (*models.Candidate, error)
	UpdateResume(ctx context.Context, userID uuid.UUID, key, fileName, contentType string, at time.Time) (*string, error)
	ImportParsedResume(ctx context.Context, userID uuid.UUID, parsed *models.ParsedResume, importedFrom string) (*models.ImportResult, error)
	GetCandidateProfile(ctx context.Context, candidate *models.Candidate) (*models.CandidateProfile, error)
}

// Extractor turns a resume document into structured data.
type Extractor interface {
	ExtractResume(ctx context.Context, doc *gemini.Document) (*models.ParsedResume, error)
}

// Converter renders HTML to PDF.
type Converter interface {
	ConvertHTMLToPDF(ctx context.Context, html string) ([]byte, error)
}

// File is an opened resume. The caller closes Body.
type File struct {
	Name        string
	ContentType string
	Body        io.ReadCloser
}

// Service manages candidate resumes and generated CVs.
type Service struct {
	store     Store
	files     storage.FileStore
	extractor Extractor
	converter Converter
	maxBytes  int64
	now       func() time.Time
}

// NewService creates a resume service. extractor may be nil when Gemini is not configured.
func NewService(store Store, files storage.FileStore, extractor Extractor, converter Converter, maxBytes int64) *Service {
	return &Service{
		store:     store,
		files:     files,
		extractor: extractor,
		converter: converter,
		maxBytes:  maxBytes,
		now:       time.Now,
	}
}

// MaxBytes returns the upload size limit.
func (s *Service) MaxBytes() int64 {
	return s.maxBytes
}

// Upload validates and stores a resume, replacing the previous one.
func (s *Service) Upload(ctx context.Context, userID uuid.UUID, fileName string, r io.Reader) (*models.Candidate, error) {
	candidate, err := s.candidate(ctx, userID)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, ErrTooLarge
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	contentType, ext, err := DetectType(fileName, data)
	if err != nil {
		return nil, err
	}

	key := path.Join("resumes", userID.String(), uuid.NewString()+ext)
	if err := s.files.Save(ctx, key, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to store resume: %w", err)
	}

	previous, err := s.store.UpdateResume(ctx, userID, key, path.Base(fileName), contentType, s.now())
	if err != nil {
		if delErr := s.files.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			slog.Warn("Failed to remove orphaned resume", "key", key, "error", delErr)
		}
		return nil, err
	}
	if previous != nil && *previous != "" && *previous != key {
		if err := s.files.Delete(ctx, *previous); err != nil {
			slog.Warn("Failed to remove previous resume", "key", *previous, "error", err)
		}
	}

	slog.Info("Resume uploaded", "user_id", userID, "candidate_id", candidate.ID, "content_type", contentType, "bytes", len(data))
	return s.candidate(ctx, userID)
}

// OpenOwn opens the resume of the candidate owned by userID.
func (s *Service) OpenOwn(ctx context.Context, userID uuid.UUID) (*File, error) {
	candidate, err := s.candidate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.Open(ctx, candidate)
}

// Open opens the resume of candidate. Callers authorize access first.
func (s *Service) Open(ctx context.Context, candidate *models.Candidate) (*File, error) {
	if !candidate.HasResume() {
		return nil, ErrNoResume
	}
	body, err := s.files.Open(ctx, *candidate.ResumeKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNoResume
		}
		return nil, fmt.Errorf("failed to open resume: %w", err)
	}

	f := &File{Body: body, ContentType: "application/octet-stream", Name: "resume"}
	if candidate.ResumeFileName != nil {
		f.Name = *candidate.ResumeFileName
	}
	if candidate.ResumeContentType != nil {
		f.ContentType = *candidate.ResumeContentType
	}
	return f, nil
}

// Extract runs AI extraction on the stored resume. With apply set the parsed
// data is imported into the profile.
func (s *Service) Extract(ctx context.Context, userID uuid.UUID, apply bool) (*models.ExtractResponse, error) {
	if s.extractor == nil {
		return nil, ErrExtractionUnavailable
	}

	candidate, err := s.candidate(ctx, userID)
	if err != nil {
		return nil, err
	}
	doc, err := s.document(ctx, candidate)
	if err != nil {
		return nil, err
	}

	parsed, err := s.extractor.ExtractResume(ctx, doc)
	if err != nil {
		metrics.ResumeExtractionsCounter.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
	metrics.ResumeExtractionsCounter.WithLabelValues("success").Inc()

	resp := &models.ExtractResponse{Parsed: parsed}
	if !apply {
		return resp, nil
	}

	result, err := s.store.ImportParsedResume(ctx, userID, parsed, importSource)
	if err != nil {
		return nil, err
	}
	resp.Import = result
	slog.Info("Resume imported",
		"user_id", userID,
		"experiences", result.ExperiencesImported,
		"education", result.EducationImported,
		"certificates", result.CertificatesImported,
	)
	return resp, nil
}

func (s *Service) document(ctx context.Context, candidate *models.Candidate) (*gemini.Document, error) {
	f, err := s.Open(ctx, candidate)
	if err != nil {
		return nil, err
	}
	defer f.Body.Close()

	data, err := io.ReadAll(f.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read resume: %w", err)
	}

	doc := &gemini.Document{FileName: f.Name, MIMEType: f.ContentType}
	switch f.ContentType {
	case MIMEPDF:
		doc.Data = data
	case MIMEDOCX:
		text, err := DocxText(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNotExtractable, err)
		}
		doc.Text = text
	default:
		return nil, ErrNotExtractable
	}
	return doc, nil
}

// GenerateCV renders the candidate's profile as a PDF.
func (s *Service) GenerateCV(ctx context.Context, userID uuid.UUID) ([]byte, error) {
	candidate, err := s.candidate(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile, err := s.store.GetCandidateProfile(ctx, candidate)
	if err != nil {
		return nil, err
	}

	html, err := pdf.RenderCV(profile)
	if err != nil {
		return nil, err
	}
	out, err := s.converter.ConvertHTMLToPDF(ctx, html)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CV: %w", err)
	}
	return out, nil
}

func (s *Service) candidate(ctx context.Context, userID uuid.UUID) (*models.Candidate, error) {
	candidate, err := s.store.GetCandidateByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if candidate == nil {
		return nil, ErrProfileNotFound
	}
	return candidate, nil
}
