package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"wallet/internal/db"
	"wallet/internal/events"
	"wallet/internal/models"
	"wallet/internal/money"
	"wallet/internal/store"
	"wallet/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrSelfTransfer      = errors.New("cannot transfer to the same account")
	ErrSenderNotFound    = errors.New("sender account not found")
	ErrReceiverNotFound  = errors.New("receiver account not found")
	ErrAccountFrozen     = errors.New("account is frozen")
	ErrCurrencyMismatch  = errors.New("currency mismatch")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrStorageFailure    = errors.New("storage failure")
)

type AccountStore interface {
	GetForUpdate(ctx context.Context, tx store.Getter, accountID string) (store.Account, error)
	UpdateBalance(ctx context.Context, tx store.Execer, accountID string, balance int64) error
}

type TransactionStore interface {
	Create(ctx context.Context, tx store.Execer, input store.TransactionInput) error
	UpdateStatus(ctx context.Context, tx store.Execer, transactionID, status string) error
}

type BalanceHub interface {
	BroadcastBalance(userID string, update websocket.BalanceUpdate)
}

type EventPublisher interface {
	PublishTransferCompleted(ctx context.Context, event events.TransferEvent) error
}

// TransferService is the sole authority for moving value between accounts.
// It holds no state of its own; every call runs inside one atomic context
// owned by the TxRunner, and either all three writes (debit, credit,
// transaction commit) apply or none do.
type TransferService struct {
	txRunner     db.TxRunner
	accounts     AccountStore
	transactions TransactionStore
	hub          BalanceHub
	publisher    EventPublisher
}

func NewTransferService(txRunner db.TxRunner, accounts AccountStore, transactions TransactionStore, hub BalanceHub, publisher EventPublisher) *TransferService {
	return &TransferService{
		txRunner:     txRunner,
		accounts:     accounts,
		transactions: transactions,
		hub:          hub,
		publisher:    publisher,
	}
}

type TransferRequest struct {
	FromAccountID string
	ToAccountID   string
	AmountMinor   int64
	Note          string
}

func (s *TransferService) Transfer(ctx context.Context, req TransferRequest) (string, error) {
	if req.AmountMinor <= 0 {
		return "", ErrInvalidAmount
	}
	if req.FromAccountID == req.ToAccountID {
		return "", ErrSelfTransfer
	}
	var transactionID string
	var senderOwnerID, receiverOwnerID string
	var senderBalanceAfter, receiverBalanceAfter int64
	var currency string
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		sender, receiver, err := s.lockAccounts(ctx, tx, req.FromAccountID, req.ToAccountID)
		if err != nil {
			return err
		}
		if sender.Frozen || receiver.Frozen {
			return ErrAccountFrozen
		}
		if sender.Currency != receiver.Currency {
			return ErrCurrencyMismatch
		}
		if sender.Balance < req.AmountMinor {
			return ErrInsufficientFunds
		}
		currency = sender.Currency
		senderOwnerID = sender.OwnerID
		receiverOwnerID = receiver.OwnerID

		transactionID = uuid.NewString()
		if err := s.transactions.Create(ctx, tx, store.TransactionInput{
			ID:            transactionID,
			FromAccountID: req.FromAccountID,
			ToAccountID:   req.ToAccountID,
			Amount:        req.AmountMinor,
			Currency:      currency,
			Status:        models.TxStatusPending,
			Note:          req.Note,
		}); err != nil {
			return err
		}

		newSender := sender.Balance - req.AmountMinor
		newReceiver := receiver.Balance + req.AmountMinor
		senderBalanceAfter = newSender
		receiverBalanceAfter = newReceiver
		if err := s.accounts.UpdateBalance(ctx, tx, req.FromAccountID, newSender); err != nil {
			return err
		}
		if err := s.accounts.UpdateBalance(ctx, tx, req.ToAccountID, newReceiver); err != nil {
			return err
		}
		return s.transactions.UpdateStatus(ctx, tx, transactionID, models.TxStatusSuccess)
	})
	if err != nil {
		if isTransferError(err) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	s.hub.BroadcastBalance(senderOwnerID, websocket.BalanceUpdate{
		AccountID: req.FromAccountID,
		Balance:   money.FormatMinor(senderBalanceAfter),
		Currency:  currency,
	})
	s.hub.BroadcastBalance(receiverOwnerID, websocket.BalanceUpdate{
		AccountID: req.ToAccountID,
		Balance:   money.FormatMinor(receiverBalanceAfter),
		Currency:  currency,
	})
	if err := s.publisher.PublishTransferCompleted(ctx, events.TransferEvent{
		TransactionID: transactionID,
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		AmountMinor:   req.AmountMinor,
		Currency:      currency,
	}); err != nil {
		// The transfer is already committed; event delivery is best effort.
		log.Printf("transfer %s: publish event failed: %v", transactionID, err)
	}
	return transactionID, nil
}

// lockAccounts row-locks both accounts in a fixed total order by id, so two
// concurrent transfers between the same pair cannot deadlock on lock order.
func (s *TransferService) lockAccounts(ctx context.Context, tx store.Getter, fromID, toID string) (store.Account, store.Account, error) {
	firstID, secondID := orderedIDs(fromID, toID)
	first, err := s.accounts.GetForUpdate(ctx, tx, firstID)
	if err != nil {
		return store.Account{}, store.Account{}, notFoundError(err, firstID, fromID)
	}
	second, err := s.accounts.GetForUpdate(ctx, tx, secondID)
	if err != nil {
		return store.Account{}, store.Account{}, notFoundError(err, secondID, fromID)
	}
	if fromID == firstID {
		return first, second, nil
	}
	return second, first, nil
}

func orderedIDs(firstID, secondID string) (string, string) {
	if firstID <= secondID {
		return firstID, secondID
	}
	return secondID, firstID
}

func notFoundError(err error, lookedUpID, fromID string) error {
	if errors.Is(err, sql.ErrNoRows) {
		if lookedUpID == fromID {
			return ErrSenderNotFound
		}
		return ErrReceiverNotFound
	}
	return err
}

func isTransferError(err error) bool {
	for _, known := range []error{
		ErrInvalidAmount, ErrSelfTransfer, ErrSenderNotFound, ErrReceiverNotFound,
		ErrAccountFrozen, ErrCurrencyMismatch, ErrInsufficientFunds,
	} {
		if errors.Is(err, known) {
			return true
		}
	}
	return false
}
