package prescription

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-perma/internal/db"
)

func openStore(t *testing.T) *SQLStore {
	t.Helper()
	h, err := db.Open(context.Background(), db.DriverSQLite, "file:"+filepath.Join(t.TempDir(), "rx.db"))
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return NewSQLStore(h)
}

func TestEmbeddedSeed_CoversEveryCode(t *testing.T) {
	list, err := LoadSeed("")
	require.NoError(t, err)
	assert.Len(t, list, 32)
	for _, p := range list {
		assert.NotEmpty(t, p.Title, p.Code)
		assert.NotEmpty(t, p.Body, p.Code)
	}
}

func TestParseSeed_Rejects(t *testing.T) {
	_, err := ParseSeed([]byte("- code: abcde\n  title: x\n  body: y\n"))
	assert.True(t, errors.Is(err, ErrInvalidCode))

	_, err = ParseSeed([]byte("- code: pesma\n  title: x\n- code: PESMA\n  title: y\n"))
	assert.Error(t, err)

	_, err = ParseSeed([]byte("- code: pesma\n  tags: [a]\n"))
	assert.Error(t, err)
}

func TestSeed_DoesNotOverwrite(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	_, err := s.Put(ctx, Prescription{Code: "PDIMA", Title: "custom", Body: "edited by admin"})
	require.NoError(t, err)

	list, err := LoadSeed("")
	require.NoError(t, err)
	added, err := Seed(ctx, s, list)
	require.NoError(t, err)
	assert.Equal(t, 31, added)

	p, err := s.Get(ctx, "pdima")
	require.NoError(t, err)
	assert.Equal(t, "custom", p.Title)

	again, err := Seed(ctx, s, list)
	require.NoError(t, err)
	assert.Zero(t, again)

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 32)
}

func TestSQLStore_GetPut(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	_, err := s.Get(ctx, "pesma")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = s.Get(ctx, "zzzzz")
	assert.True(t, errors.Is(err, ErrInvalidCode))

	_, err = s.Put(ctx, Prescription{Code: "pesm", Title: "short"})
	assert.True(t, errors.Is(err, ErrInvalidCode))

	p, err := s.Put(ctx, Prescription{Code: " Pesma ", Title: "t1", Body: "b1"})
	require.NoError(t, err)
	assert.Equal(t, "pesma", p.Code)

	_, err = s.Put(ctx, Prescription{Code: "pesma", Title: "t2", Body: "b2"})
	require.NoError(t, err)
	got, err := s.Get(ctx, "PESMA")
	require.NoError(t, err)
	assert.Equal(t, "t2", got.Title)
	assert.Equal(t, "b2", got.Body)
}
