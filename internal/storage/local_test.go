package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_RoundTrip(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "resumes/u1/a.pdf", strings.NewReader("%PDF-1.7")))

	f, err := s.Open(ctx, "resumes/u1/a.pdf")
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, f.Close())
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(data))

	require.NoError(t, s.Delete(ctx, "resumes/u1/a.pdf"))
	_, err = s.Open(ctx, "resumes/u1/a.pdf")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, s.Delete(ctx, "resumes/u1/a.pdf"), "deleting twice is fine")
}

func TestLocalStore_RejectsEscapingKeys(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"../etc/passwd", "/abs/path", "a/../../b", ""} {
		assert.Error(t, s.Save(context.Background(), key, strings.NewReader("x")), key)
	}
}

func TestLocalStore_CancelledContext(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Save(ctx, "a.txt", strings.NewReader("x")), context.Canceled)
	_, err = s.Open(context.Background(), "a.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}
