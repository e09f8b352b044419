package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/wifivoucher/internal/dbx"
	"github.com/dmitrijs2005/wifivoucher/internal/server/repositories/vouchers"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Vouchers(db dbx.DBTX) vouchers.Repository
}
