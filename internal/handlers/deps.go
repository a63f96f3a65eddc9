package handlers

import (
	"context"

	"wallet/internal/services"
	"wallet/internal/store"
)

type UserStore interface {
	Create(ctx context.Context, tx store.Execer, id, firstName, lastName, username, email, passwordHash string) error
	GetByEmail(ctx context.Context, email string) (map[string]any, error)
	GetByUsername(ctx context.Context, username string) (map[string]any, error)
	GetByID(ctx context.Context, userID string) (map[string]any, error)
	UpdateProfile(ctx context.Context, tx store.Execer, userID, firstName, lastName string) error
	UpdatePassword(ctx context.Context, tx store.Execer, userID, passwordHash string) error
}

type AccountStore interface {
	Create(ctx context.Context, tx store.Execer, id, ownerID string, balance int64, currency string) error
	GetByOwner(ctx context.Context, ownerID string) (store.Account, error)
}

type TransactionStore interface {
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]map[string]any, error)
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

type TransferService interface {
	Transfer(ctx context.Context, req services.TransferRequest) (string, error)
}
