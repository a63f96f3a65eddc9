package store

import "context"

type AccountStore struct {
	db DB
}

type Account struct {
	ID        string `db:"id"`
	OwnerID   string `db:"owner_id"`
	Balance   int64  `db:"balance"`
	Currency  string `db:"currency"`
	Frozen    bool   `db:"frozen"`
	CreatedAt any    `db:"created_at"`
}

func NewAccountStore(db DB) *AccountStore {
	return &AccountStore{db: db}
}

func (s *AccountStore) Create(ctx context.Context, tx Execer, id, ownerID string, balance int64, currency string) error {
	query := `
		INSERT INTO accounts (id, owner_id, balance, currency, frozen)
		VALUES ($1, $2, $3, $4, FALSE)
	`
	_, err := tx.ExecContext(ctx, query, id, ownerID, balance, currency)
	return err
}

func (s *AccountStore) GetByOwner(ctx context.Context, ownerID string) (Account, error) {
	var row Account
	err := s.db.GetContext(ctx, &row, `
		SELECT id, owner_id, balance, currency, frozen, created_at
		FROM accounts
		WHERE owner_id = $1
	`, ownerID)
	if err != nil {
		return Account{}, err
	}
	return row, nil
}

func (s *AccountStore) GetByID(ctx context.Context, accountID string) (Account, error) {
	var row Account
	err := s.db.GetContext(ctx, &row, `
		SELECT id, owner_id, balance, currency, frozen, created_at
		FROM accounts
		WHERE id = $1
	`, accountID)
	if err != nil {
		return Account{}, err
	}
	return row, nil
}

// GetForUpdate reads an account inside the given atomic context and takes a
// row lock, so concurrent transfers touching the same account serialize their
// read-modify-write cycle instead of losing updates.
func (s *AccountStore) GetForUpdate(ctx context.Context, tx Getter, accountID string) (Account, error) {
	var row Account
	err := tx.GetContext(ctx, &row, `
		SELECT id, owner_id, balance, currency, frozen
		FROM accounts
		WHERE id = $1
		FOR UPDATE
	`, accountID)
	if err != nil {
		return Account{}, err
	}
	return row, nil
}

func (s *AccountStore) UpdateBalance(ctx context.Context, tx Execer, accountID string, balance int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE accounts
		SET balance = $1, updated_at = NOW()
		WHERE id = $2
	`, balance, accountID)
	return err
}

func (s *AccountStore) SetFrozen(ctx context.Context, tx Execer, accountID string, frozen bool) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE accounts
		SET frozen = $1, updated_at = NOW()
		WHERE id = $2
	`, frozen, accountID)
	return err
}
