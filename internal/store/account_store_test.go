package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
)

func TestAccountStoreCreate(t *testing.T) {
	ctx := context.Background()
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO accounts") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 4 {
				t.Fatalf("expected 4 args, got %d", len(args))
			}
			if args[0] != "acc-1" || args[1] != "user-1" || args[2] != int64(50000) || args[3] != "INR" {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewAccountStore(stubDB{})
	if err := store.Create(ctx, execer, "acc-1", "user-1", 50000, "INR"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAccountStoreGetByOwner(t *testing.T) {
	ctx := context.Background()
	store := NewAccountStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "WHERE owner_id = $1") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 1 || args[0] != "user-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*Account) = Account{ID: "acc-1", OwnerID: "user-1", Balance: 50000, Currency: "INR"}
			return nil
		},
	})
	row, err := store.GetByOwner(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row.ID != "acc-1" || row.Balance != 50000 {
		t.Fatalf("unexpected row: %#v", row)
	}
}

func TestAccountStoreGetByOwnerNotFound(t *testing.T) {
	ctx := context.Background()
	store := NewAccountStore(stubDB{
		getFn: func(context.Context, any, string, ...any) error {
			return sql.ErrNoRows
		},
	})
	if _, err := store.GetByOwner(ctx, "nobody"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestAccountStoreGetByID(t *testing.T) {
	ctx := context.Background()
	store := NewAccountStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "WHERE id = $1") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 1 || args[0] != "acc-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*Account) = Account{ID: "acc-1", OwnerID: "user-1", Balance: 50000, Currency: "INR"}
			return nil
		},
	})
	row, err := store.GetByID(ctx, "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row.OwnerID != "user-1" {
		t.Fatalf("unexpected row: %#v", row)
	}
}

func TestAccountStoreGetForUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewAccountStore(stubDB{})
	getter := stubGetter{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "FOR UPDATE") {
				t.Fatalf("expected row lock in query: %s", query)
			}
			if len(args) != 1 || args[0] != "acc-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*Account) = Account{ID: "acc-1", Balance: 20000}
			return nil
		},
	}
	row, err := store.GetForUpdate(ctx, getter, "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row.Balance != 20000 {
		t.Fatalf("unexpected row: %#v", row)
	}
}

func TestAccountStoreUpdateBalance(t *testing.T) {
	ctx := context.Background()
	store := NewAccountStore(stubDB{})
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "SET balance = $1") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 2 || args[0] != int64(30000) || args[1] != "acc-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	if err := store.UpdateBalance(ctx, execer, "acc-1", 30000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAccountStoreSetFrozen(t *testing.T) {
	ctx := context.Background()
	store := NewAccountStore(stubDB{})
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "SET frozen = $1") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 2 || args[0] != true || args[1] != "acc-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	if err := store.SetFrozen(ctx, execer, "acc-1", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
