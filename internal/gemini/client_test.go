package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func respond(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []genai.Part{genai.Text(text)}}}},
	}
}

func TestExtractResume(t *testing.T) {
	var sent []genai.Part
	c := &Client{generate: func(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
		sent = parts
		return respond("```json\n{\"first_name\":\"Ada\",\"industry\":\" IT \",\"total_experience_years\":-2,\"education\":[{\"institution_name\":\"MIT\"}]}\n```"), nil
	}}

	parsed, err := c.ExtractResume(context.Background(), &Document{FileName: "cv.pdf", MIMEType: "application/pdf", Data: []byte("%PDF")})
	require.NoError(t, err)

	assert.Equal(t, "Ada", parsed.FirstName)
	assert.Equal(t, "it", parsed.Industry)
	assert.Equal(t, 0, parsed.TotalExperience)
	require.Len(t, parsed.Education, 1)

	require.Len(t, sent, 2)
	blob, ok := sent[1].(genai.Blob)
	require.True(t, ok)
	assert.Equal(t, "application/pdf", blob.MIMEType)
}

func TestExtractResume_SendsTextWhenAvailable(t *testing.T) {
	var sent []genai.Part
	c := &Client{generate: func(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
		sent = parts
		return respond(`{"industry":"law"}`), nil
	}}

	parsed, err := c.ExtractResume(context.Background(), &Document{FileName: "cv.docx", Text: "Ada Lovelace"})
	require.NoError(t, err)
	assert.Empty(t, parsed.Industry)

	require.Len(t, sent, 2)
	text, ok := sent[1].(genai.Text)
	require.True(t, ok)
	assert.Contains(t, string(text), "Ada Lovelace")
}

func TestExtractResume_RetriesServerErrors(t *testing.T) {
	calls := 0
	c := &Client{generate: func(context.Context, ...genai.Part) (*genai.GenerateContentResponse, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("googleapi: Error 503: overloaded")
		}
		return respond(`{"first_name":"Ada"}`), nil
	}}

	parsed, err := c.ExtractResume(context.Background(), &Document{Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", parsed.FirstName)
	assert.Equal(t, 3, calls)
}

func TestExtractResume_DoesNotRetryClientErrors(t *testing.T) {
	calls := 0
	c := &Client{generate: func(context.Context, ...genai.Part) (*genai.GenerateContentResponse, error) {
		calls++
		return nil, errors.New("googleapi: Error 400: bad request")
	}}

	_, err := c.ExtractResume(context.Background(), &Document{Text: "x"})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestExtractResume_EmptyResponse(t *testing.T) {
	c := &Client{generate: func(context.Context, ...genai.Part) (*genai.GenerateContentResponse, error) {
		return &genai.GenerateContentResponse{}, nil
	}}

	_, err := c.ExtractResume(context.Background(), &Document{Text: "x"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}
