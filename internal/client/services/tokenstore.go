package services

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/dbx"
)

// TokenRecord is the persisted session token and its expiry in epoch
// milliseconds.
type TokenRecord struct {
	Token     string
	ExpiresAt int64
}

// Expired reports whether the record is no longer valid at now.
func (r TokenRecord) Expired(now time.Time) bool {
	return now.UnixMilli() >= r.ExpiresAt
}

// TokenStore persists the token record.
//
// Load returns ErrNoToken when either key is missing or the token is empty,
// and ErrInvalidExpiration when the stored expiry is not a decimal integer.
// Clear removes both keys and is a no-op when they are absent.
type TokenStore interface {
	Load(ctx context.Context) (TokenRecord, error)
	Save(ctx context.Context, rec TokenRecord) error
	Clear(ctx context.Context) error
}

// MetadataTokenStore keeps the record in the local metadata table under the
// jwtToken and jwtTokenExpiration keys.
type MetadataTokenStore struct {
	db *sql.DB
}

func NewMetadataTokenStore(db *sql.DB) *MetadataTokenStore {
	return &MetadataTokenStore{db: db}
}

func (s *MetadataTokenStore) repo(tx dbx.DBTX) metadata.Repository {
	return metadata.NewSQLiteRepository(tx)
}

func (s *MetadataTokenStore) Load(ctx context.Context) (TokenRecord, error) {
	repo := s.repo(s.db)

	tok, err := repo.Get(ctx, common.TokenKey)
	if err != nil {
		return TokenRecord{}, fmt.Errorf("error reading token: %w", err)
	}
	exp, err := repo.Get(ctx, common.TokenExpirationKey)
	if err != nil {
		return TokenRecord{}, fmt.Errorf("error reading token expiration: %w", err)
	}

	if len(tok) == 0 || len(exp) == 0 {
		return TokenRecord{}, ErrNoToken
	}

	ms, err := strconv.ParseInt(string(exp), 10, 64)
	if err != nil {
		return TokenRecord{}, fmt.Errorf("%w: %q", ErrInvalidExpiration, exp)
	}

	return TokenRecord{Token: string(tok), ExpiresAt: ms}, nil
}

// Save writes both keys in one transaction.
func (s *MetadataTokenStore) Save(ctx context.Context, rec TokenRecord) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repo(tx)
		if err := repo.Set(ctx, common.TokenKey, []byte(rec.Token)); err != nil {
			return fmt.Errorf("error saving token: %w", err)
		}
		exp := strconv.FormatInt(rec.ExpiresAt, 10)
		if err := repo.Set(ctx, common.TokenExpirationKey, []byte(exp)); err != nil {
			return fmt.Errorf("error saving token expiration: %w", err)
		}
		return nil
	})
}

func (s *MetadataTokenStore) Clear(ctx context.Context) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repo(tx)
		for _, key := range []string{common.TokenKey, common.TokenExpirationKey} {
			if err := repo.Delete(ctx, key); err != nil {
				return fmt.Errorf("error deleting %s: %w", key, err)
			}
		}
		return nil
	})
}
