package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return New(db, Config{Instance: "host-1"}), mock
}

func freshContents(names ...string) []byte {
	now := time.Now().Unix()
	var out []byte
	for i, n := range names {
		out = append(out, fmt.Sprintf("%d %s %d\n", now, n, i+1)...)
	}
	return out
}

func TestUpload_InsertsInTransaction(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO samples`).
		WithArgs("a", 1.0, sqlmock.AnyArg(), "host-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO samples`).
		WithArgs("b", 2.0, sqlmock.AnyArg(), "host-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := s.Upload(context.Background(), freshContents("a", "b")); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpload_EmptyBatchSkipsDatabase(t *testing.T) {
	s, mock := newMockStore(t)
	if err := s.Upload(context.Background(), []byte("1 stale 1\nmalformed\n")); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("database touched for empty batch: %v", err)
	}
}

func TestUpload_RollsBackOnInsertError(t *testing.T) {
	s, mock := newMockStore(t)

	boom := &pq.Error{Code: "23502"} // not-null violation: not retryable
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO samples`).WillReturnError(boom)
	mock.ExpectRollback()

	err := s.Upload(context.Background(), freshContents("a"))
	if err == nil {
		t.Fatal("expected insert error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpload_RetriesRetryableFailure(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO samples`).WillReturnError(&pq.Error{Code: pgerrDeadlock})
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO samples`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := s.Upload(context.Background(), freshContents("a")); err != nil {
		t.Fatalf("Upload after retryable failure: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

const pgerrDeadlock = "40P01"

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"bad_conn", driver.ErrBadConn, true},
		{"deadlock", &pq.Error{Code: pgerrDeadlock}, true},
		{"connection_class", &pq.Error{Code: "08006"}, true},
		{"not_null", &pq.Error{Code: "23502"}, false},
		{"plain", errors.New("nope"), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsRetryable(tc.err); got != tc.want {
				t.Fatalf("IsRetryable=%v want %v", got, tc.want)
			}
		})
	}
}

func TestOpen_RequiresDSN(t *testing.T) {
	if _, err := Open(context.Background(), Config{}); !errors.Is(err, ErrNoDSN) {
		t.Fatalf("err=%v want ErrNoDSN", err)
	}
}
