package repository

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/workledger/workledger-backend/internal/staff/domain"
	"github.com/workledger/workledger-backend/pkg/database"
	"github.com/workledger/workledger-backend/pkg/errors"
)

// TenantRepository reads the tenant registry. The registry is not tenant-scoped.
type TenantRepository struct {
	db *database.DB
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(db *database.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

// ListActive returns every active tenant
func (r *TenantRepository) ListActive(ctx context.Context) ([]*domain.Tenant, error) {
	var tenants []*domain.Tenant
	query := `SELECT id, name, slug, timezone, is_active FROM tenants WHERE is_active ORDER BY slug`
	if err := r.db.SelectContext(ctx, &tenants, query); err != nil {
		return nil, err
	}
	return tenants, nil
}

// GetByID returns a tenant by ID
func (r *TenantRepository) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	var t domain.Tenant
	query := `SELECT id, name, slug, timezone, is_active FROM tenants WHERE id = $1`
	err := r.db.GetContext(ctx, &t, query, id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("tenant")
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Upsert inserts or replaces a tenant registry row
func (r *TenantRepository) Upsert(ctx context.Context, t *domain.Tenant) error {
	if t.Timezone == "" {
		t.Timezone = "UTC"
	}
	query := `
		INSERT INTO tenants (id, name, slug, timezone, is_active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			slug = EXCLUDED.slug,
			timezone = EXCLUDED.timezone,
			is_active = EXCLUDED.is_active,
			updated_at = NOW()
	`
	_, err := r.db.ExecContext(ctx, query, t.ID, t.Name, t.Slug, t.Timezone, t.Active)
	if appErr := database.MapPQError(err); appErr != nil {
		return appErr
	}
	return err
}
