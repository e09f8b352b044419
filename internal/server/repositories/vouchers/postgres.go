package vouchers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/wifivoucher/internal/common"
	"github.com/dmitrijs2005/wifivoucher/internal/dbx"
	"github.com/dmitrijs2005/wifivoucher/internal/server/models"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique constraint errors.
const uniqueViolation = "23505"

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, voucher *models.Voucher) (*models.Voucher, error) {

	query :=
		`INSERT INTO vouchers (token, username, password, login_url)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		voucher.Token, voucher.Username, voucher.Password, voucher.LoginURL).
		Scan(&voucher.ID, &voucher.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrorCollision
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return voucher, nil
}

func (r *PostgresRepository) FindByToken(ctx context.Context, token string) (*models.Voucher, error) {
	query :=
		`SELECT id, token, username, password, login_url, created_at, provisioned, used, used_at
		 FROM vouchers
		 WHERE token = $1
		 `

	voucher := &models.Voucher{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&voucher.ID, &voucher.Token, &voucher.Username, &voucher.Password,
		&voucher.LoginURL, &voucher.CreatedAt, &voucher.Provisioned,
		&voucher.Used, &voucher.UsedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return voucher, nil
}

// MarkProvisioned is a compare-and-set: the WHERE clause filters out rows
// where the flag is already set, so concurrent calls cannot both report a
// change.
func (r *PostgresRepository) MarkProvisioned(ctx context.Context, id int64) (bool, error) {
	query :=
		`UPDATE vouchers SET provisioned = TRUE
		 WHERE id = $1 AND NOT provisioned
		 `

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return affected == 1, nil
}

// MarkUsed stamps used_at inside the same compare-and-set UPDATE, so a replay
// can never move the timestamp.
func (r *PostgresRepository) MarkUsed(ctx context.Context, id int64) (bool, error) {
	query :=
		`UPDATE vouchers SET used = TRUE, used_at = now()
		 WHERE id = $1 AND NOT used
		 `

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return affected == 1, nil
}

func (r *PostgresRepository) ListRecent(ctx context.Context, limit int) ([]*models.Voucher, error) {
	query :=
		`SELECT id, token, username, password, login_url, created_at, provisioned, used, used_at
		 FROM vouchers
		 ORDER BY id DESC
		 LIMIT $1
		 `

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Voucher
	for rows.Next() {
		voucher := &models.Voucher{}
		if err := rows.Scan(
			&voucher.ID, &voucher.Token, &voucher.Username, &voucher.Password,
			&voucher.LoginURL, &voucher.CreatedAt, &voucher.Provisioned,
			&voucher.Used, &voucher.UsedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, voucher)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
