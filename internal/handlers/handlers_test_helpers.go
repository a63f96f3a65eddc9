package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wallet/internal/auth"
	"wallet/internal/config"
	"wallet/internal/middleware"
	"wallet/internal/services"
	"wallet/internal/store"
	"wallet/internal/websocket"

	"github.com/jmoiron/sqlx"
)

type fakeTxRunner struct {
	withTxFn func(ctx context.Context, fn func(*sqlx.Tx) error) error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.withTxFn != nil {
		return f.withTxFn(ctx, fn)
	}
	return fn(nil)
}

type stubUserStore struct {
	createFn         func(ctx context.Context, tx store.Execer, id, firstName, lastName, username, email, passwordHash string) error
	getByEmailFn     func(ctx context.Context, email string) (map[string]any, error)
	getByUsernameFn  func(ctx context.Context, username string) (map[string]any, error)
	getByIDFn        func(ctx context.Context, userID string) (map[string]any, error)
	updateProfileFn  func(ctx context.Context, tx store.Execer, userID, firstName, lastName string) error
	updatePasswordFn func(ctx context.Context, tx store.Execer, userID, passwordHash string) error
}

func (s stubUserStore) Create(ctx context.Context, tx store.Execer, id, firstName, lastName, username, email, passwordHash string) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, id, firstName, lastName, username, email, passwordHash)
}

func (s stubUserStore) GetByEmail(ctx context.Context, email string) (map[string]any, error) {
	if s.getByEmailFn == nil {
		return nil, nil
	}
	return s.getByEmailFn(ctx, email)
}

func (s stubUserStore) GetByUsername(ctx context.Context, username string) (map[string]any, error) {
	if s.getByUsernameFn == nil {
		return nil, nil
	}
	return s.getByUsernameFn(ctx, username)
}

func (s stubUserStore) GetByID(ctx context.Context, userID string) (map[string]any, error) {
	if s.getByIDFn == nil {
		return nil, nil
	}
	return s.getByIDFn(ctx, userID)
}

func (s stubUserStore) UpdateProfile(ctx context.Context, tx store.Execer, userID, firstName, lastName string) error {
	if s.updateProfileFn == nil {
		return nil
	}
	return s.updateProfileFn(ctx, tx, userID, firstName, lastName)
}

func (s stubUserStore) UpdatePassword(ctx context.Context, tx store.Execer, userID, passwordHash string) error {
	if s.updatePasswordFn == nil {
		return nil
	}
	return s.updatePasswordFn(ctx, tx, userID, passwordHash)
}

type stubAccountStore struct {
	createFn     func(ctx context.Context, tx store.Execer, id, ownerID string, balance int64, currency string) error
	getByOwnerFn func(ctx context.Context, ownerID string) (store.Account, error)
}

func (s stubAccountStore) Create(ctx context.Context, tx store.Execer, id, ownerID string, balance int64, currency string) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, id, ownerID, balance, currency)
}

func (s stubAccountStore) GetByOwner(ctx context.Context, ownerID string) (store.Account, error) {
	if s.getByOwnerFn == nil {
		return store.Account{}, nil
	}
	return s.getByOwnerFn(ctx, ownerID)
}

type stubTransactionStore struct {
	listByAccountFn func(ctx context.Context, accountID string, limit, offset int) ([]map[string]any, error)
}

func (s stubTransactionStore) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]map[string]any, error) {
	if s.listByAccountFn == nil {
		return nil, nil
	}
	return s.listByAccountFn(ctx, accountID, limit, offset)
}

type stubAuditStore struct {
	logFn func(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

func (s stubAuditStore) Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error {
	if s.logFn == nil {
		return nil
	}
	return s.logFn(ctx, tx, actorID, action, entityType, entityID, data)
}

type stubService struct {
	transferFn func(ctx context.Context, req services.TransferRequest) (string, error)
}

func (s stubService) Transfer(ctx context.Context, req services.TransferRequest) (string, error) {
	if s.transferFn == nil {
		return "", nil
	}
	return s.transferFn(ctx, req)
}

func newTestHandler(txRunner fakeTxRunner, users stubUserStore, accounts stubAccountStore, transactions stubTransactionStore, audit stubAuditStore, service stubService) *Handler {
	cfg := config.Config{
		AppEnv:          "test",
		Port:            "0",
		JWTSecret:       "secret",
		TokenTTLMinutes: 1,
		AllowedOrigins:  "*",
	}
	return New(txRunner, cfg, users, accounts, transactions, audit, service, websocket.NewHub())
}

func serveWithAuth(t *testing.T, handler http.HandlerFunc, method, target string, body io.Reader, userID string) *httptest.ResponseRecorder {
	t.Helper()
	token, err := auth.GenerateToken("secret", userID, time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Authorization", "Bearer "+token)
	middleware.Auth("secret")(handler).ServeHTTP(rr, req)
	return rr
}
