package services

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"wallet/internal/store"

	"github.com/jmoiron/sqlx"
)

// memBank is an in-memory stand-in for the Postgres store with real
// commit/rollback semantics: each WithTx call takes the bank lock, snapshots
// state, and restores the snapshot if the closure or the commit fails. It
// exists to verify the all-or-nothing and conservation properties end to end.
type memBank struct {
	mu           sync.Mutex
	accounts     map[string]store.Account
	transactions map[string]store.TransactionInput
	commitErr    error
}

func newMemBank(accounts ...store.Account) *memBank {
	bank := &memBank{
		accounts:     make(map[string]store.Account),
		transactions: make(map[string]store.TransactionInput),
	}
	for _, account := range accounts {
		bank.accounts[account.ID] = account
	}
	return bank
}

func (b *memBank) snapshot() (map[string]store.Account, map[string]store.TransactionInput) {
	accounts := make(map[string]store.Account, len(b.accounts))
	for id, account := range b.accounts {
		accounts[id] = account
	}
	transactions := make(map[string]store.TransactionInput, len(b.transactions))
	for id, txn := range b.transactions {
		transactions[id] = txn
	}
	return accounts, transactions
}

func (b *memBank) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	accounts, transactions := b.snapshot()
	if err := fn(nil); err != nil {
		b.accounts, b.transactions = accounts, transactions
		return err
	}
	if b.commitErr != nil {
		b.accounts, b.transactions = accounts, transactions
		return b.commitErr
	}
	return nil
}

func (b *memBank) totalBalance() int64 {
	var sum int64
	for _, account := range b.accounts {
		sum += account.Balance
	}
	return sum
}

type memAccountStore struct {
	bank *memBank
}

func (s memAccountStore) GetByID(_ context.Context, accountID string) (store.Account, error) {
	account, ok := s.bank.accounts[accountID]
	if !ok {
		return store.Account{}, sql.ErrNoRows
	}
	return account, nil
}

func (s memAccountStore) GetForUpdate(_ context.Context, _ store.Getter, accountID string) (store.Account, error) {
	account, ok := s.bank.accounts[accountID]
	if !ok {
		return store.Account{}, sql.ErrNoRows
	}
	return account, nil
}

func (s memAccountStore) UpdateBalance(_ context.Context, _ store.Execer, accountID string, balance int64) error {
	account, ok := s.bank.accounts[accountID]
	if !ok {
		return sql.ErrNoRows
	}
	account.Balance = balance
	s.bank.accounts[accountID] = account
	return nil
}

type memTransactionStore struct {
	bank *memBank
}

func (s memTransactionStore) Create(_ context.Context, _ store.Execer, input store.TransactionInput) error {
	s.bank.transactions[input.ID] = input
	return nil
}

func (s memTransactionStore) UpdateStatus(_ context.Context, _ store.Execer, transactionID, status string) error {
	txn, ok := s.bank.transactions[transactionID]
	if !ok {
		return sql.ErrNoRows
	}
	txn.Status = status
	s.bank.transactions[transactionID] = txn
	return nil
}

func newBankService(bank *memBank) *TransferService {
	return NewTransferService(bank, memAccountStore{bank}, memTransactionStore{bank}, &stubHub{}, &stubPublisher{})
}

func account(id, owner string, balance int64) store.Account {
	return store.Account{ID: id, OwnerID: owner, Balance: balance, Currency: "INR"}
}

func TestBankTransferMovesFunds(t *testing.T) {
	// Sender 500.00, receiver 100.00, transfer 200.00.
	bank := newMemBank(account("acc-a", "user-a", 50000), account("acc-b", "user-b", 10000))
	service := newBankService(bank)

	id, err := service.Transfer(context.Background(), TransferRequest{
		FromAccountID: "acc-a", ToAccountID: "acc-b", AmountMinor: 20000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := bank.accounts["acc-a"].Balance; got != 30000 {
		t.Fatalf("sender balance = %d, want 30000", got)
	}
	if got := bank.accounts["acc-b"].Balance; got != 30000 {
		t.Fatalf("receiver balance = %d, want 30000", got)
	}
	if len(bank.transactions) != 1 {
		t.Fatalf("expected exactly one transaction, got %d", len(bank.transactions))
	}
	txn := bank.transactions[id]
	if txn.Status != "success" || txn.Amount != 20000 {
		t.Fatalf("unexpected transaction: %#v", txn)
	}
}

func TestBankInsufficientFundsLeavesStateUntouched(t *testing.T) {
	bank := newMemBank(account("acc-a", "user-a", 5000), account("acc-b", "user-b", 10000))
	service := newBankService(bank)

	_, err := service.Transfer(context.Background(), TransferRequest{
		FromAccountID: "acc-a", ToAccountID: "acc-b", AmountMinor: 20000,
	})
	if err != ErrInsufficientFunds {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if bank.accounts["acc-a"].Balance != 5000 || bank.accounts["acc-b"].Balance != 10000 {
		t.Fatalf("balances changed on a rejected transfer")
	}
	if len(bank.transactions) != 0 {
		t.Fatalf("no transaction should survive a rejected transfer")
	}
}

func TestBankUnknownReceiverLeavesStateUntouched(t *testing.T) {
	bank := newMemBank(account("acc-a", "user-a", 50000))
	service := newBankService(bank)

	_, err := service.Transfer(context.Background(), TransferRequest{
		FromAccountID: "acc-a", ToAccountID: "acc-missing", AmountMinor: 1000,
	})
	if err != ErrReceiverNotFound {
		t.Fatalf("expected ErrReceiverNotFound, got %v", err)
	}
	if bank.accounts["acc-a"].Balance != 50000 {
		t.Fatalf("sender balance changed on a rejected transfer")
	}
	if len(bank.transactions) != 0 {
		t.Fatalf("no transaction should survive a rejected transfer")
	}
}

func TestBankCommitFailureRollsBackEverything(t *testing.T) {
	bank := newMemBank(account("acc-a", "user-a", 50000), account("acc-b", "user-b", 10000))
	bank.commitErr = errors.New("server closed the connection unexpectedly")
	service := newBankService(bank)

	_, err := service.Transfer(context.Background(), TransferRequest{
		FromAccountID: "acc-a", ToAccountID: "acc-b", AmountMinor: 20000,
	})
	if !errors.Is(err, ErrStorageFailure) {
		t.Fatalf("expected ErrStorageFailure, got %v", err)
	}
	if bank.accounts["acc-a"].Balance != 50000 || bank.accounts["acc-b"].Balance != 10000 {
		t.Fatalf("balances must be restored after a failed commit")
	}
	if len(bank.transactions) != 0 {
		t.Fatalf("no transaction record should survive a failed commit")
	}
}

func TestBankConservationAcrossMixedTransfers(t *testing.T) {
	bank := newMemBank(
		account("acc-a", "user-a", 50000),
		account("acc-b", "user-b", 10000),
		account("acc-c", "user-c", 0),
	)
	service := newBankService(bank)
	before := bank.totalBalance()

	attempts := []TransferRequest{
		{FromAccountID: "acc-a", ToAccountID: "acc-b", AmountMinor: 12345},
		{FromAccountID: "acc-b", ToAccountID: "acc-c", AmountMinor: 999},
		{FromAccountID: "acc-c", ToAccountID: "acc-a", AmountMinor: 100000}, // insufficient
		{FromAccountID: "acc-b", ToAccountID: "acc-missing", AmountMinor: 1},
		{FromAccountID: "acc-a", ToAccountID: "acc-c", AmountMinor: 1},
	}
	for _, req := range attempts {
		_, _ = service.Transfer(context.Background(), req)
	}

	if after := bank.totalBalance(); after != before {
		t.Fatalf("total balance drifted: before %d, after %d", before, after)
	}
	for id, acct := range bank.accounts {
		if acct.Balance < 0 {
			t.Fatalf("account %s went negative: %d", id, acct.Balance)
		}
	}
}

func TestBankRepeatedReadsAreStable(t *testing.T) {
	bank := newMemBank(account("acc-a", "user-a", 50000))
	accounts := memAccountStore{bank}
	first, err := accounts.GetByID(context.Background(), "acc-a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := accounts.GetByID(context.Background(), "acc-a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Balance != second.Balance {
		t.Fatalf("balance changed between reads: %d vs %d", first.Balance, second.Balance)
	}
}

func TestBankConcurrentDebitsFromOneSender(t *testing.T) {
	const workers = 8
	const amount = int64(1000)
	accounts := []store.Account{account("acc-sender", "user-s", workers*amount)}
	receivers := make([]string, 0, workers)
	for i := 0; i < workers; i++ {
		id := "acc-r" + string(rune('a'+i))
		receivers = append(receivers, id)
		accounts = append(accounts, account(id, "user-"+id, 0))
	}
	bank := newMemBank(accounts...)
	service := newBankService(bank)

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for _, receiver := range receivers {
		wg.Add(1)
		go func(to string) {
			defer wg.Done()
			_, err := service.Transfer(context.Background(), TransferRequest{
				FromAccountID: "acc-sender", ToAccountID: to, AmountMinor: amount,
			})
			errs <- err
		}(receiver)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if got := bank.accounts["acc-sender"].Balance; got != 0 {
		t.Fatalf("sender balance = %d, want 0", got)
	}
	for _, receiver := range receivers {
		if got := bank.accounts[receiver].Balance; got != amount {
			t.Fatalf("receiver %s balance = %d, want %d", receiver, got, amount)
		}
	}
	if len(bank.transactions) != workers {
		t.Fatalf("expected %d transactions, got %d", workers, len(bank.transactions))
	}
}
