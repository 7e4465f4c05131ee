package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/securevault/internal/common"
	"github.com/dmitrijs2005/securevault/internal/dbx"
	"github.com/dmitrijs2005/securevault/internal/server/models"
)

// PostgresRepository implements credential storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectColumns = `id, user_id, site_name, username, secret, nonce, color_tag, created_at, updated_at`

func (r *PostgresRepository) Create(ctx context.Context, c *models.Credential) error {
	query := `
		INSERT INTO credentials (id, user_id, site_name, username, secret, nonce, color_tag, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if _, err := r.db.ExecContext(ctx, query,
		c.ID, c.UserID, c.SiteName, c.Username, c.Secret, c.Nonce, c.ColorTag, c.CreatedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, id string) (*models.Credential, error) {
	query := `SELECT ` + selectColumns + ` FROM credentials WHERE user_id = $1 AND id = $2`
	return r.getOne(ctx, query, userID, id)
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, userID, id string) (*models.Credential, error) {
	query := `SELECT ` + selectColumns + ` FROM credentials WHERE user_id = $1 AND id = $2 FOR UPDATE`
	return r.getOne(ctx, query, userID, id)
}

func (r *PostgresRepository) getOne(ctx context.Context, query, userID, id string) (*models.Credential, error) {
	c, err := scanCredential(r.db.QueryRowContext(ctx, query, userID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

// List returns every credential of userID ordered by creation time.
func (r *PostgresRepository) List(ctx context.Context, userID string) ([]*models.Credential, error) {
	query := `SELECT ` + selectColumns + ` FROM credentials WHERE user_id = $1 ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select credentials: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Credential, 0)
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, c *models.Credential) error {
	query := `
		UPDATE credentials
		SET site_name = $3, username = $4, secret = $5, nonce = $6, updated_at = $7
		WHERE user_id = $1 AND id = $2
	`
	res, err := r.db.ExecContext(ctx, query, c.UserID, c.ID, c.SiteName, c.Username, c.Secret, c.Nonce, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	query := `DELETE FROM credentials WHERE user_id = $1 AND id = $2`
	res, err := r.db.ExecContext(ctx, query, userID, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCredential(s scanner) (*models.Credential, error) {
	var (
		c         models.Credential
		updatedAt sql.NullTime
	)
	if err := s.Scan(&c.ID, &c.UserID, &c.SiteName, &c.Username, &c.Secret, &c.Nonce,
		&c.ColorTag, &c.CreatedAt, &updatedAt); err != nil {
		return nil, err
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		c.UpdatedAt = &t
	}
	return &c, nil
}
