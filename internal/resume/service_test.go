package resume

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"jobgenie/internal/gemini"
	"jobgenie/internal/models"
	"jobgenie/internal/storage"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetCandidateByUserID(ctx context.Context, userID uuid.UUID) (*models.Candidate, error) {
	args := m.Called(ctx, userID)
	c, _ := args.Get(0).(*models.Candidate)
	return c, args.Error(1)
}

func (m *mockStore) UpdateResume(ctx context.Context, userID uuid.UUID, key, fileName, contentType string, at time.Time) (*string, error) {
	args := m.Called(ctx, userID, key, fileName, contentType, at)
	prev, _ := args.Get(0).(*string)
	return prev, args.Error(1)
}

func (m *mockStore) ImportParsedResume(ctx context.Context, userID uuid.UUID, parsed *models.ParsedResume, importedFrom string) (*models.ImportResult, error) {
	args := m.Called(ctx, userID, parsed, importedFrom)
	r, _ := args.Get(0).(*models.ImportResult)
	return r, args.Error(1)
}

func (m *mockStore) GetCandidateProfile(ctx context.Context, candidate *models.Candidate) (*models.CandidateProfile, error) {
	args := m.Called(ctx, candidate)
	p, _ := args.Get(0).(*models.CandidateProfile)
	return p, args.Error(1)
}

type memoryFiles struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemoryFiles() *memoryFiles {
	return &memoryFiles{files: map[string][]byte{}}
}

func (f *memoryFiles) Save(_ context.Context, key string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[key] = data
	return nil
}

func (f *memoryFiles) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *memoryFiles) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, key)
	return nil
}

type stubExtractor struct {
	doc    *gemini.Document
	result *models.ParsedResume
	err    error
}

func (s *stubExtractor) ExtractResume(_ context.Context, doc *gemini.Document) (*models.ParsedResume, error) {
	s.doc = doc
	return s.result, s.err
}

type stubConverter struct {
	html string
}

func (s *stubConverter) ConvertHTMLToPDF(_ context.Context, html string) ([]byte, error) {
	s.html = html
	return []byte("%PDF-1.7"), nil
}

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n")

func docxBytes(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body + `</w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func withResume(userID uuid.UUID, key, name, contentType string) *models.Candidate {
	return &models.Candidate{
		ID:                uuid.New(),
		UserID:            userID,
		ResumeKey:         &key,
		ResumeFileName:    &name,
		ResumeContentType: &contentType,
	}
}

func TestDetectType(t *testing.T) {
	doc := append(append([]byte{}, oleMagic...), make([]byte, 64)...)

	tests := []struct {
		name     string
		fileName string
		data     []byte
		want     string
		wantErr  bool
	}{
		{"pdf", "cv.PDF", pdfBytes, MIMEPDF, false},
		{"docx", "cv.docx", docxBytes(t, ""), MIMEDOCX, false},
		{"doc", "cv.doc", doc, MIMEDOC, false},
		{"pdf renamed to docx", "cv.docx", pdfBytes, "", true},
		{"zip that is not docx", "cv.docx", func() []byte {
			var buf bytes.Buffer
			zw := zip.NewWriter(&buf)
			_, _ = zw.Create("readme.txt")
			_ = zw.Close()
			return buf.Bytes()
		}(), "", true},
		{"text file", "cv.txt", []byte("hello"), "", true},
		{"html posing as pdf", "cv.pdf", []byte("<html><body>x</body></html>"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := DetectType(tt.fileName, tt.data)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDocxText(t *testing.T) {
	data := docxBytes(t, `<w:p><w:r><w:t>Ada</w:t></w:r><w:r><w:t xml:space="preserve"> Lovelace</w:t></w:r></w:p>`+
		`<w:p><w:r><w:t>Analyst</w:t><w:tab/><w:t>2019</w:t></w:r></w:p>`)

	text, err := DocxText(data)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace\nAnalyst\t2019", text)
}

func TestDocxText_SizeLimit(t *testing.T) {
	prev := maxDocxBodyBytes
	maxDocxBodyBytes = 1024
	t.Cleanup(func() { maxDocxBodyBytes = prev })

	body := `<w:p><w:r><w:t>` + strings.Repeat("a", 4096) + `</w:t></w:r></w:p>`
	_, err := DocxText(docxBytes(t, body))
	assert.ErrorIs(t, err, ErrDocxTooLarge)

	text, err := DocxText(docxBytes(t, `<w:p><w:r><w:t>short</w:t></w:r></w:p>`))
	require.NoError(t, err)
	assert.Equal(t, "short", text)
}

func TestCappedReader(t *testing.T) {
	src := strings.Repeat("x", 100)

	r := &cappedReader{r: io.LimitReader(strings.NewReader(src), 51), max: 50}
	_, err := io.ReadAll(r)
	assert.ErrorIs(t, err, ErrDocxTooLarge)

	r = &cappedReader{r: io.LimitReader(strings.NewReader(src), 101), max: 100}
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Len(t, data, 100)
}

func TestUpload(t *testing.T) {
	userID := uuid.New()
	st := new(mockStore)
	files := newMemoryFiles()
	files.files["resumes/old.pdf"] = pdfBytes
	svc := NewService(st, files, nil, nil, 1<<20)

	old := "resumes/old.pdf"
	st.On("GetCandidateByUserID", mock.Anything, userID).Return(&models.Candidate{UserID: userID}, nil)
	st.On("UpdateResume", mock.Anything, userID, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "resumes/"+userID.String()+"/") && strings.HasSuffix(key, ".pdf")
	}), "cv.pdf", MIMEPDF, mock.Anything).Return(&old, nil)

	_, err := svc.Upload(context.Background(), userID, "cv.pdf", bytes.NewReader(pdfBytes))
	require.NoError(t, err)

	assert.NotContains(t, files.files, old)
	assert.Len(t, files.files, 1)
	st.AssertExpectations(t)
}

func TestUpload_Rejections(t *testing.T) {
	userID := uuid.New()
	st := new(mockStore)
	st.On("GetCandidateByUserID", mock.Anything, userID).Return(&models.Candidate{UserID: userID}, nil)
	files := newMemoryFiles()
	svc := NewService(st, files, nil, nil, 16)

	_, err := svc.Upload(context.Background(), userID, "cv.pdf", bytes.NewReader(pdfBytes))
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = svc.Upload(context.Background(), userID, "cv.pdf", bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = svc.Upload(context.Background(), userID, "cv.exe", bytes.NewReader([]byte("MZ")))
	assert.ErrorIs(t, err, ErrUnsupportedType)

	assert.Empty(t, files.files)
	st.AssertNotCalled(t, "UpdateResume", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpload_RemovesFileWhenRecordFails(t *testing.T) {
	userID := uuid.New()
	st := new(mockStore)
	files := newMemoryFiles()
	svc := NewService(st, files, nil, nil, 1<<20)

	st.On("GetCandidateByUserID", mock.Anything, userID).Return(&models.Candidate{UserID: userID}, nil)
	st.On("UpdateResume", mock.Anything, userID, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("db down"))

	_, err := svc.Upload(context.Background(), userID, "cv.pdf", bytes.NewReader(pdfBytes))
	assert.Error(t, err)
	assert.Empty(t, files.files)
}

func TestOpen(t *testing.T) {
	files := newMemoryFiles()
	files.files["resumes/a.pdf"] = pdfBytes
	svc := NewService(new(mockStore), files, nil, nil, 1<<20)

	f, err := svc.Open(context.Background(), withResume(uuid.New(), "resumes/a.pdf", "ada.pdf", MIMEPDF))
	require.NoError(t, err)
	defer f.Body.Close()
	assert.Equal(t, "ada.pdf", f.Name)
	assert.Equal(t, MIMEPDF, f.ContentType)

	_, err = svc.Open(context.Background(), &models.Candidate{})
	assert.ErrorIs(t, err, ErrNoResume)

	_, err = svc.Open(context.Background(), withResume(uuid.New(), "resumes/missing.pdf", "x.pdf", MIMEPDF))
	assert.ErrorIs(t, err, ErrNoResume)
}

func TestExtract(t *testing.T) {
	userID := uuid.New()
	parsed := &models.ParsedResume{FirstName: "Ada"}

	t.Run("pdf is sent as a blob", func(t *testing.T) {
		st := new(mockStore)
		files := newMemoryFiles()
		files.files["k.pdf"] = pdfBytes
		ext := &stubExtractor{result: parsed}
		svc := NewService(st, files, ext, nil, 1<<20)

		st.On("GetCandidateByUserID", mock.Anything, userID).Return(withResume(userID, "k.pdf", "cv.pdf", MIMEPDF), nil)

		resp, err := svc.Extract(context.Background(), userID, false)
		require.NoError(t, err)
		assert.Same(t, parsed, resp.Parsed)
		assert.Nil(t, resp.Import)
		assert.Equal(t, pdfBytes, ext.doc.Data)
		assert.Empty(t, ext.doc.Text)
		st.AssertNotCalled(t, "ImportParsedResume", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("docx is sent as text and applied", func(t *testing.T) {
		st := new(mockStore)
		files := newMemoryFiles()
		files.files["k.docx"] = docxBytes(t, `<w:p><w:r><w:t>Ada Lovelace</w:t></w:r></w:p>`)
		ext := &stubExtractor{result: parsed}
		svc := NewService(st, files, ext, nil, 1<<20)

		st.On("GetCandidateByUserID", mock.Anything, userID).Return(withResume(userID, "k.docx", "cv.docx", MIMEDOCX), nil)
		st.On("ImportParsedResume", mock.Anything, userID, parsed, "resume").
			Return(&models.ImportResult{ExperiencesImported: 2, ProfileUpdated: true}, nil)

		resp, err := svc.Extract(context.Background(), userID, true)
		require.NoError(t, err)
		require.NotNil(t, resp.Import)
		assert.Equal(t, 2, resp.Import.ExperiencesImported)
		assert.Equal(t, "Ada Lovelace", ext.doc.Text)
		assert.Nil(t, ext.doc.Data)
	})

	t.Run("legacy doc is not extractable", func(t *testing.T) {
		st := new(mockStore)
		files := newMemoryFiles()
		files.files["k.doc"] = oleMagic
		svc := NewService(st, files, &stubExtractor{}, nil, 1<<20)

		st.On("GetCandidateByUserID", mock.Anything, userID).Return(withResume(userID, "k.doc", "cv.doc", MIMEDOC), nil)

		_, err := svc.Extract(context.Background(), userID, false)
		assert.ErrorIs(t, err, ErrNotExtractable)
	})

	t.Run("unavailable without extractor", func(t *testing.T) {
		svc := NewService(new(mockStore), newMemoryFiles(), nil, nil, 1<<20)
		_, err := svc.Extract(context.Background(), userID, false)
		assert.ErrorIs(t, err, ErrExtractionUnavailable)
	})

	t.Run("extractor failure", func(t *testing.T) {
		st := new(mockStore)
		files := newMemoryFiles()
		files.files["k.pdf"] = pdfBytes
		svc := NewService(st, files, &stubExtractor{err: gemini.ErrEmptyResponse}, nil, 1<<20)

		st.On("GetCandidateByUserID", mock.Anything, userID).Return(withResume(userID, "k.pdf", "cv.pdf", MIMEPDF), nil)

		_, err := svc.Extract(context.Background(), userID, false)
		assert.ErrorIs(t, err, gemini.ErrEmptyResponse)
	})
}

func TestGenerateCV(t *testing.T) {
	userID := uuid.New()
	candidate := &models.Candidate{UserID: userID, FirstName: "Ada", LastName: "Lovelace"}
	st := new(mockStore)
	conv := &stubConverter{}
	svc := NewService(st, newMemoryFiles(), nil, conv, 1<<20)

	st.On("GetCandidateByUserID", mock.Anything, userID).Return(candidate, nil)
	st.On("GetCandidateProfile", mock.Anything, candidate).
		Return(&models.CandidateProfile{Email: "ada@example.com", Candidate: candidate}, nil)

	out, err := svc.GenerateCV(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.7"), out)
	assert.Contains(t, conv.html, "Ada Lovelace")
}

func TestGenerateCV_NoProfile(t *testing.T) {
	userID := uuid.New()
	st := new(mockStore)
	st.On("GetCandidateByUserID", mock.Anything, userID).Return(nil, nil)
	svc := NewService(st, newMemoryFiles(), nil, &stubConverter{}, 1<<20)

	_, err := svc.GenerateCV(context.Background(), userID)
	assert.ErrorIs(t, err, ErrProfileNotFound)
}
