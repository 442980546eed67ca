package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/facility-reservations/internal/persistence"
)

// ResourceRepository implements persistence.ResourceRepository using SQLite.
type ResourceRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
}

// NewResourceRepository creates a new SQLite resource repository.
func NewResourceRepository(pool *ConnectionPool) *ResourceRepository {
	return &ResourceRepository{pool: pool, helper: NewQueryHelper(pool)}
}

const resourceColumns = `id, code, kind, capacity, attributes, state, created_at, updated_at`

// CreateResource inserts a new resource into the catalog.
func (r *ResourceRepository) CreateResource(ctx context.Context, resource persistence.Resource) error {
	if resource.ID == "" || resource.Code == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO resources (` + resourceColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		resource.ID,
		resource.Code,
		resource.Kind,
		resource.Capacity,
		resource.Attributes,
		resource.State,
		resource.CreatedAt.UTC().Format(time.RFC3339),
		resource.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return MapError(err)
	}

	return nil
}

// UpdateResource updates an existing resource.
func (r *ResourceRepository) UpdateResource(ctx context.Context, resource persistence.Resource) error {
	if resource.ID == "" {
		return persistence.ErrNotFound
	}

	query := `
		UPDATE resources
		SET code = ?, capacity = ?, attributes = ?, state = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.helper.Exec(ctx, query,
		resource.Code,
		resource.Capacity,
		resource.Attributes,
		resource.State,
		resource.UpdatedAt.UTC().Format(time.RFC3339),
		resource.ID,
	)
	if err != nil {
		return MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}

	return nil
}

// GetResource retrieves a resource by id.
func (r *ResourceRepository) GetResource(ctx context.Context, id string) (persistence.Resource, error) {
	if id == "" {
		return persistence.Resource{}, persistence.ErrNotFound
	}

	row := r.helper.QueryRow(ctx, `SELECT `+resourceColumns+` FROM resources WHERE id = ?`, id)
	resource, err := scanResource(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Resource{}, persistence.ErrNotFound
		}
		return persistence.Resource{}, MapError(err)
	}
	return resource, nil
}

// ListResources returns resources ordered by kind, code, and id. An empty
// kind returns the whole catalog.
func (r *ResourceRepository) ListResources(ctx context.Context, kind string) ([]persistence.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM resources`
	args := make([]any, 0, 1)
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY kind ASC, code ASC, id ASC`

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer rows.Close()

	var resources []persistence.Resource
	for rows.Next() {
		resource, err := scanResource(rows.Scan)
		if err != nil {
			return nil, MapError(err)
		}
		resources = append(resources, resource)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return resources, nil
}

func scanResource(scan func(...any) error) (persistence.Resource, error) {
	var resource persistence.Resource
	var attributes sql.NullString
	var createdAt, updatedAt string

	if err := scan(
		&resource.ID,
		&resource.Code,
		&resource.Kind,
		&resource.Capacity,
		&attributes,
		&resource.State,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.Resource{}, err
	}

	if attributes.Valid {
		value := attributes.String
		resource.Attributes = &value
	}

	var err error
	if resource.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return persistence.Resource{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if resource.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return persistence.Resource{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return resource, nil
}
