package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/client/localdb"
	"github.com/dmitrijs2005/sessionkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := localdb.InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func putMeta(t *testing.T, db *sql.DB, key, value string) {
	t.Helper()
	require.NoError(t, metadata.NewSQLiteRepository(db).Set(context.Background(), key, []byte(value)))
}

func getMeta(t *testing.T, db *sql.DB, key string) []byte {
	t.Helper()
	v, err := metadata.NewSQLiteRepository(db).Get(context.Background(), key)
	require.NoError(t, err)
	return v
}

func TestMetadataTokenStore_SaveLoad(t *testing.T) {
	db := setupDB(t)
	s := NewMetadataTokenStore(db)
	ctx := context.Background()

	rec := TokenRecord{Token: "a.b.c", ExpiresAt: 1700000000000}
	require.NoError(t, s.Save(ctx, rec))

	assert.Equal(t, []byte("a.b.c"), getMeta(t, db, common.TokenKey))
	assert.Equal(t, []byte("1700000000000"), getMeta(t, db, common.TokenExpirationKey))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestMetadataTokenStore_SaveOverwrites(t *testing.T) {
	s := NewMetadataTokenStore(setupDB(t))
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, TokenRecord{Token: "old", ExpiresAt: 1}))
	require.NoError(t, s.Save(ctx, TokenRecord{Token: "new", ExpiresAt: 2}))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, TokenRecord{Token: "new", ExpiresAt: 2}, got)
}

func TestMetadataTokenStore_Load_Absent(t *testing.T) {
	tests := []struct {
		name string
		seed map[string]string
	}{
		{"empty", nil},
		{"token only", map[string]string{common.TokenKey: "a.b.c"}},
		{"expiration only", map[string]string{common.TokenExpirationKey: "123"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupDB(t)
			for k, v := range tt.seed {
				putMeta(t, db, k, v)
			}
			_, err := NewMetadataTokenStore(db).Load(context.Background())
			assert.ErrorIs(t, err, ErrNoToken)
		})
	}
}

func TestMetadataTokenStore_Load_InvalidExpiration(t *testing.T) {
	db := setupDB(t)
	putMeta(t, db, common.TokenKey, "a.b.c")
	putMeta(t, db, common.TokenExpirationKey, "soon")

	_, err := NewMetadataTokenStore(db).Load(context.Background())
	assert.ErrorIs(t, err, ErrInvalidExpiration)
}

func TestMetadataTokenStore_Clear(t *testing.T) {
	db := setupDB(t)
	s := NewMetadataTokenStore(db)
	ctx := context.Background()

	putMeta(t, db, "other", "keep")
	require.NoError(t, s.Save(ctx, TokenRecord{Token: "t", ExpiresAt: 5}))
	require.NoError(t, s.Clear(ctx))

	assert.Nil(t, getMeta(t, db, common.TokenKey))
	assert.Nil(t, getMeta(t, db, common.TokenExpirationKey))
	assert.Equal(t, []byte("keep"), getMeta(t, db, "other"))

	require.NoError(t, s.Clear(ctx), "clearing twice is fine")
}

func TestTokenRecord_Expired(t *testing.T) {
	rec := TokenRecord{ExpiresAt: 1700000000000}

	assert.False(t, rec.Expired(time.UnixMilli(1699999999999)))
	assert.True(t, rec.Expired(time.UnixMilli(1700000000000)))
	assert.True(t, rec.Expired(time.UnixMilli(1700000000001)))
}
