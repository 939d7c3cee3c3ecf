package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func open(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndRecent(t *testing.T) {
	s := open(t)
	ctx := context.Background()
	base := time.Date(2025, 7, 20, 9, 0, 0, 0, time.UTC)

	for i, tr := range []string{"설정 열어줘", "Chrome 열어줘", "탭 분석해줘"} {
		e, err := s.Save(ctx, Entry{
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
			Transcript: tr,
			Language:   "ko",
			Action:     "open",
			Success:    i != 1,
		})
		require.NoError(t, err)
		assert.Len(t, e.ID, 26)
	}

	got, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "탭 분석해줘", got[0].Transcript)
	assert.Equal(t, "Chrome 열어줘", got[1].Transcript)
	assert.False(t, got[1].Success)
	assert.True(t, got[0].Timestamp.Equal(base.Add(2*time.Minute)))
	assert.Empty(t, got[0].Target)
}

func TestSave_AssignsIDAndTime(t *testing.T) {
	s := open(t)
	e, err := s.Save(context.Background(), Entry{Transcript: "x", Language: "en", Action: "unknown"})
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.WithinDuration(t, time.Now(), e.Timestamp, time.Minute)
}

func TestRecent_Empty(t *testing.T) {
	got, err := open(t).Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSave_DuplicateID(t *testing.T) {
	s := open(t)
	ctx := context.Background()
	_, err := s.Save(ctx, Entry{ID: "same", Transcript: "a", Language: "ko", Action: "open"})
	require.NoError(t, err)
	_, err = s.Save(ctx, Entry{ID: "same", Transcript: "b", Language: "ko", Action: "open"})
	assert.Error(t, err)
}
