package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	c := Cursor{CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 123, time.UTC), ID: uuid.New()}
	parsed, err := ParseCursor(EncodeCursor(c))
	require.NoError(t, err)
	require.True(t, parsed.CreatedAt.Equal(c.CreatedAt))
	require.Equal(t, c.ID, parsed.ID)

	empty, err := ParseCursor("  ")
	require.NoError(t, err)
	require.Nil(t, empty)

	_, err = ParseCursor("!!!")
	require.Error(t, err)
}

func TestNormalizeLimit(t *testing.T) {
	require.Equal(t, DefaultLimit, NormalizeLimit(0))
	require.Equal(t, MaxLimit, NormalizeLimit(MaxLimit+1))
	require.Equal(t, 7, NormalizeLimit(7))
	require.Equal(t, 8, LimitWithBuffer(7))
}

func TestSplit(t *testing.T) {
	now := time.Now().UTC()
	rows := []Cursor{{CreatedAt: now, ID: uuid.New()}, {CreatedAt: now, ID: uuid.New()}, {CreatedAt: now, ID: uuid.New()}}

	page, next := Split(rows, 2, func(c Cursor) Cursor { return c })
	require.Len(t, page, 2)
	parsed, err := ParseCursor(next)
	require.NoError(t, err)
	require.Equal(t, rows[2].ID, parsed.ID)

	page, next = Split(rows, 5, func(c Cursor) Cursor { return c })
	require.Len(t, page, 3)
	require.Empty(t, next)
}
