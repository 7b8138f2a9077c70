package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/idefend/internal/adapters/storage/sqlite"
	"github.com/PabloGalante/idefend/internal/domain"
)

func openStore(t *testing.T) (*sqlite.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profiles.sqlite")
	store, err := sqlite.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, path
}

func TestSaveAndGetProfile(t *testing.T) {
	store, _ := openStore(t)
	ctx := context.Background()

	created := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveProfile(ctx, &domain.Profile{
		Email:        "Jane@Example.com",
		FirstName:    "Jane",
		LastName:     "Doe",
		State:        "CA",
		Language:     "English",
		PasswordHash: []byte("$2a$10$abc"),
		CreatedAt:    created,
	}))

	got, err := store.GetProfile(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Jane@Example.com", got.Email)
	assert.Equal(t, "Doe", got.LastName)
	assert.Equal(t, []byte("$2a$10$abc"), got.PasswordHash)
	assert.False(t, got.Demo)
	assert.True(t, got.CreatedAt.Equal(created))
}

func TestSaveProfileOverwrites(t *testing.T) {
	store, _ := openStore(t)
	ctx := context.Background()

	p := &domain.Profile{Email: "a@b.co", FirstName: "A", State: "TX", Language: "English", CreatedAt: time.Now()}
	require.NoError(t, store.SaveProfile(ctx, p))
	p.State = "WA"
	p.Demo = true
	require.NoError(t, store.SaveProfile(ctx, p))

	got, err := store.GetProfile(ctx, "A@B.CO")
	require.NoError(t, err)
	assert.Equal(t, "WA", got.State)
	assert.True(t, got.Demo)
}

func TestGetProfileNotFound(t *testing.T) {
	store, _ := openStore(t)
	_, err := store.GetProfile(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
}

func TestProfilesSurviveReopen(t *testing.T) {
	store, path := openStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveProfile(ctx, &domain.Profile{Email: "keep@example.com", FirstName: "K", CreatedAt: time.Now()}))
	require.NoError(t, store.Close())

	reopened, err := sqlite.Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetProfile(ctx, "keep@example.com")
	require.NoError(t, err)
	assert.Equal(t, "K", got.FirstName)
}
