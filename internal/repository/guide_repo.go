package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/meditabi/meditabi_api/internal/models"
	"github.com/meditabi/meditabi_api/internal/utils"
)

// GuideRepository provides data access methods for the guides table.
type GuideRepository struct {
	db *sqlx.DB
}

// NewGuideRepository creates a new GuideRepository.
func NewGuideRepository(db *sqlx.DB) *GuideRepository {
	return &GuideRepository{db: db}
}

const guideColumns = `id, slug, name, brand_name, logo_url, subscription_status, modules, created_at, updated_at`

// scanGuide scans a single row into a Guide, using pq.Array for the TEXT[]
// modules column.
func scanGuide(row sqlx.ColScanner) (*models.Guide, error) {
	var g models.Guide
	if err := row.Scan(
		&g.ID,
		&g.Slug,
		&g.Name,
		&g.BrandName,
		&g.LogoURL,
		&g.SubscriptionStatus,
		pq.Array(&g.Modules),
		&g.CreatedAt,
		&g.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &g, nil
}

// getBy fetches a single guide by a specific column. Not finding a row is not
// an error at this layer: the caller decides eligibility, so the guide is
// returned regardless of subscription status and a missing guide is (nil, nil).
func (r *GuideRepository) getBy(ctx context.Context, where string, arg any) (*models.Guide, error) {
	query := `SELECT ` + guideColumns + ` FROM guides WHERE ` + where + ` LIMIT 1`
	row := r.db.QueryRowxContext(ctx, query, arg)
	g, err := scanGuide(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return g, nil
}

// GetBySlug finds a guide by its URL slug. Returns (nil, nil) if absent.
func (r *GuideRepository) GetBySlug(ctx context.Context, slug string) (*models.Guide, error) {
	return r.getBy(ctx, "slug = $1", slug)
}

// GetByID finds a guide by numeric id. Returns (nil, nil) if absent.
func (r *GuideRepository) GetByID(ctx context.Context, id int) (*models.Guide, error) {
	return r.getBy(ctx, "id = $1", id)
}

// List retrieves all guides, newest first.
func (r *GuideRepository) List(ctx context.Context) ([]*models.Guide, error) {
	query := `SELECT ` + guideColumns + ` FROM guides ORDER BY created_at DESC`

	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var guides []*models.Guide
	for rows.Next() {
		g, err := scanGuide(rows)
		if err != nil {
			return nil, err
		}
		guides = append(guides, g)
	}
	return guides, rows.Err()
}

// Create inserts a new guide.
func (r *GuideRepository) Create(ctx context.Context, g *models.Guide) error {
	query := `INSERT INTO guides (slug, name, brand_name, subscription_status, modules)
              VALUES ($1, $2, $3, $4, $5)
              RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		g.Slug,
		g.Name,
		g.BrandName,
		g.SubscriptionStatus,
		pq.Array(g.Modules),
	).Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt)
	if isUniqueViolation(err) {
		return utils.ErrDuplicateSlug
	}
	return err
}

// Update updates a guide's editable fields.
func (r *GuideRepository) Update(ctx context.Context, g *models.Guide) error {
	query := `UPDATE guides
              SET name = $1, brand_name = $2, modules = $3, updated_at = now()
              WHERE id = $4
              RETURNING updated_at`

	return r.db.QueryRowxContext(ctx, query,
		g.Name,
		g.BrandName,
		pq.Array(g.Modules),
		g.ID,
	).Scan(&g.UpdatedAt)
}

// UpdateSubscriptionStatus sets the subscription status for a guide.
func (r *GuideRepository) UpdateSubscriptionStatus(ctx context.Context, id int, status models.SubscriptionStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE guides SET subscription_status = $1, updated_at = now() WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return utils.ErrGuideNotFound
	}
	return nil
}

// UpdateLogoURL sets the brand logo URL for a guide.
func (r *GuideRepository) UpdateLogoURL(ctx context.Context, id int, logoURL string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE guides SET logo_url = $1, updated_at = now() WHERE id = $2`, logoURL, id)
	return err
}

// isUniqueViolation reports whether err is a Postgres unique constraint error.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
