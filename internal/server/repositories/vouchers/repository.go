// Package vouchers provides the durable store of voucher records. The store
// is the single source of truth for token/username uniqueness: callers retry
// generation on ErrorCollision, the repository never papers a conflict over.
package vouchers

import (
	"context"

	"github.com/dmitrijs2005/wifivoucher/internal/server/models"
)

type Repository interface {
	// Create persists a fully-formed candidate and returns it with the
	// assigned id and creation timestamp. A token or username that already
	// exists yields common.ErrorCollision; nothing is written in that case.
	Create(ctx context.Context, voucher *models.Voucher) (*models.Voucher, error)

	// FindByToken returns the voucher with the given redemption token, or
	// common.ErrorNotFound.
	FindByToken(ctx context.Context, token string) (*models.Voucher, error)

	// MarkProvisioned flips provisioned false→true. Returns false when the
	// flag was already set; repeating the call is a no-op.
	MarkProvisioned(ctx context.Context, id int64) (bool, error)

	// MarkUsed flips used false→true and stamps used_at. Returns false when
	// the voucher was already used; the timestamp is never overwritten.
	MarkUsed(ctx context.Context, id int64) (bool, error)

	// ListRecent returns up to limit vouchers, newest first.
	ListRecent(ctx context.Context, limit int) ([]*models.Voucher, error)
}
