package vouchers

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/wifivoucher/internal/common"
	"github.com/dmitrijs2005/wifivoucher/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var voucherColumns = []string{"id", "token", "username", "password", "login_url", "created_at", "provisioned", "used", "used_at"}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+vouchers\s*\(token,\s*username,\s*password,\s*login_url\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*RETURNING\s+id,\s*created_at\s*$`

	created := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(42), created)
	mock.ExpectQuery(q).
		WithArgs("tok-1", "uabc1234", "pw", "http://localhost:8080/v/tok-1").
		WillReturnRows(rows)

	v := &models.Voucher{Token: "tok-1", Username: "uabc1234", Password: "pw", LoginURL: "http://localhost:8080/v/tok-1"}
	got, err := repo.Create(context.Background(), v)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != 42 || !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected voucher: %+v", got)
	}
}

func TestCreate_UniqueViolation(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+vouchers`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "vouchers_token_key"})

	_, err := repo.Create(context.Background(), &models.Voucher{Token: "dup"})
	if !errors.Is(err, common.ErrorCollision) {
		t.Fatalf("want common.ErrorCollision, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+vouchers`).
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.Voucher{Token: "tok"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestFindByToken_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*token,\s*username,\s*password,\s*login_url,\s*created_at,\s*provisioned,\s*used,\s*used_at\s+FROM\s+vouchers\s+WHERE\s+token\s*=\s*\$1\s*$`

	usedAt := time.Date(2026, 8, 28, 13, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(voucherColumns).
		AddRow(int64(7), "tok-7", "uxyz", "pw", "http://x/v/tok-7", usedAt.Add(-time.Hour), true, true, usedAt)
	mock.ExpectQuery(q).WithArgs("tok-7").WillReturnRows(rows)

	got, err := repo.FindByToken(context.Background(), "tok-7")
	if err != nil {
		t.Fatalf("FindByToken error: %v", err)
	}
	if got.ID != 7 || got.Username != "uxyz" || !got.Provisioned || !got.Used {
		t.Fatalf("unexpected voucher: %+v", got)
	}
	if got.UsedAt == nil || !got.UsedAt.Equal(usedAt) {
		t.Fatalf("unexpected used_at: %v", got.UsedAt)
	}
}

func TestFindByToken_NullUsedAt(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(voucherColumns).
		AddRow(int64(8), "tok-8", "uaaa", "pw", "http://x/v/tok-8", time.Now(), false, false, nil)
	mock.ExpectQuery(`SELECT`).WithArgs("tok-8").WillReturnRows(rows)

	got, err := repo.FindByToken(context.Background(), "tok-8")
	if err != nil {
		t.Fatalf("FindByToken error: %v", err)
	}
	if got.Used || got.UsedAt != nil {
		t.Fatalf("expected unused voucher, got %+v", got)
	}
}

func TestFindByToken_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByToken(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestMarkProvisioned_Transition(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+vouchers\s+SET\s+provisioned\s*=\s*TRUE\s+WHERE\s+id\s*=\s*\$1\s+AND\s+NOT\s+provisioned\s*$`

	mock.ExpectExec(q).WithArgs(int64(5)).WillReturnResult(sqlmock.NewResult(0, 1))

	changed, err := repo.MarkProvisioned(context.Background(), 5)
	if err != nil {
		t.Fatalf("MarkProvisioned error: %v", err)
	}
	if !changed {
		t.Fatalf("expected changed=true")
	}
}

func TestMarkProvisioned_AlreadySet(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE\s+vouchers\s+SET\s+provisioned`).
		WithArgs(int64(5)).WillReturnResult(sqlmock.NewResult(0, 0))

	changed, err := repo.MarkProvisioned(context.Background(), 5)
	if err != nil {
		t.Fatalf("MarkProvisioned error: %v", err)
	}
	if changed {
		t.Fatalf("expected no-op for already provisioned voucher")
	}
}

func TestMarkUsed_Transition(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+vouchers\s+SET\s+used\s*=\s*TRUE,\s*used_at\s*=\s*now\(\)\s+WHERE\s+id\s*=\s*\$1\s+AND\s+NOT\s+used\s*$`

	mock.ExpectExec(q).WithArgs(int64(9)).WillReturnResult(sqlmock.NewResult(0, 1))

	changed, err := repo.MarkUsed(context.Background(), 9)
	if err != nil {
		t.Fatalf("MarkUsed error: %v", err)
	}
	if !changed {
		t.Fatalf("expected changed=true")
	}
}

func TestMarkUsed_Replay(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE\s+vouchers\s+SET\s+used`).
		WithArgs(int64(9)).WillReturnResult(sqlmock.NewResult(0, 0))

	changed, err := repo.MarkUsed(context.Background(), 9)
	if err != nil {
		t.Fatalf("MarkUsed error: %v", err)
	}
	if changed {
		t.Fatalf("replay must not report a change")
	}
}

func TestListRecent(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+.*FROM\s+vouchers\s+ORDER\s+BY\s+id\s+DESC\s+LIMIT\s+\$1\s*$`

	rows := sqlmock.NewRows(voucherColumns).
		AddRow(int64(2), "tok-2", "ub", "pw", "http://x/v/tok-2", time.Now(), false, false, nil).
		AddRow(int64(1), "tok-1", "ua", "pw", "http://x/v/tok-1", time.Now(), true, false, nil)
	mock.ExpectQuery(q).WithArgs(2).WillReturnRows(rows)

	got, err := repo.ListRecent(context.Background(), 2)
	if err != nil {
		t.Fatalf("ListRecent error: %v", err)
	}
	if len(got) != 2 || got[0].ID != 2 || got[1].ID != 1 {
		t.Fatalf("unexpected listing: %+v", got)
	}
}
