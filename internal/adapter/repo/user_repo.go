package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"hairstudio/internal/domain"
	"hairstudio/internal/infra"
	"hairstudio/internal/sqlinline"
)

// UserRepositoryPG implements domain.UserStore on the users table.
type UserRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewUserRepository creates a new UserRepositoryPG.
func NewUserRepository(sql infra.SQLExecutor) *UserRepositoryPG {
	return &UserRepositoryPG{sql: sql}
}

// GetUser fetches a user by id.
func (r *UserRepositoryPG) GetUser(ctx context.Context, id string) (*domain.UserRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: empty user id", domain.ErrNotFound)
	}
	return r.scan(r.sql.QueryRow(ctx, sqlinline.QSelectUserEntitlement, id), id)
}

// GetUserByEmail fetches a user by case-insensitive email.
func (r *UserRepositoryPG) GetUserByEmail(ctx context.Context, email string) (*domain.UserRecord, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("%w: empty email", domain.ErrNotFound)
	}
	return r.scan(r.sql.QueryRow(ctx, sqlinline.QSelectUserEntitlementByEmail, email), email)
}

// UpdateUserMetadata replaces the stored properties wholesale. Callers merge
// before writing.
func (r *UserRepositoryPG) UpdateUserMetadata(ctx context.Context, id string, metadata map[string]any) error {
	raw, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("encode properties: %w", err)
	}
	tag, err := r.sql.Exec(ctx, sqlinline.QUpdateUserProperties, id, raw)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: user %s", domain.ErrNotFound, id)
	}
	return nil
}

// MergeUserMetadata overlays patch on the stored properties in one statement
// and returns the resulting record.
func (r *UserRepositoryPG) MergeUserMetadata(ctx context.Context, id string, patch map[string]any) (*domain.UserRecord, error) {
	raw, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("encode properties: %w", err)
	}
	return r.scan(r.sql.QueryRow(ctx, sqlinline.QMergeUserProperties, id, raw), id)
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *UserRepositoryPG) scan(row scanner, ref string) (*domain.UserRecord, error) {
	var (
		rec   domain.UserRecord
		props []byte
	)
	if err := row.Scan(&rec.ID, &rec.Email, &props); err != nil {
		if infra.IsNoRows(err) {
			return nil, fmt.Errorf("%w: user %s", domain.ErrNotFound, ref)
		}
		return nil, err
	}
	rec.Metadata = map[string]any{}
	if len(props) > 0 {
		if err := json.Unmarshal(props, &rec.Metadata); err != nil {
			return nil, fmt.Errorf("decode properties: %w", err)
		}
	}
	return &rec, nil
}

var _ domain.UserStore = (*UserRepositoryPG)(nil)
