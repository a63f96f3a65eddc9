package store

import "context"

type TransactionStore struct {
	db DB
}

type TransactionInput struct {
	ID            string
	FromAccountID string
	ToAccountID   string
	Amount        int64
	Currency      string
	Status        string
	Note          string
}

type transactionRow struct {
	ID            string  `db:"id"`
	FromAccountID string  `db:"from_account_id"`
	ToAccountID   string  `db:"to_account_id"`
	Amount        int64   `db:"amount"`
	Currency      string  `db:"currency"`
	Status        string  `db:"status"`
	Note          string  `db:"note"`
	FromUsername  *string `db:"from_username"`
	FromName      *string `db:"from_name"`
	ToUsername    *string `db:"to_username"`
	ToName        *string `db:"to_name"`
	CreatedAt     any     `db:"created_at"`
}

func NewTransactionStore(db DB) *TransactionStore {
	return &TransactionStore{db: db}
}

func (s *TransactionStore) Create(ctx context.Context, tx Execer, input TransactionInput) error {
	query := `
		INSERT INTO transactions (id, from_account_id, to_account_id, amount, currency, status, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := tx.ExecContext(ctx, query,
		input.ID, input.FromAccountID, input.ToAccountID,
		input.Amount, input.Currency, input.Status, input.Note,
	)
	return err
}

func (s *TransactionStore) UpdateStatus(ctx context.Context, tx Execer, transactionID, status string) error {
	_, err := tx.ExecContext(ctx, `UPDATE transactions SET status = $1 WHERE id = $2`, status, transactionID)
	return err
}

// ListByAccount returns transactions where the account participates as either
// side, newest first, with the counterparty user on each side resolved so the
// caller can render sent/received history.
func (s *TransactionStore) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]map[string]any, error) {
	var rows []transactionRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT t.id, t.from_account_id, t.to_account_id, t.amount, t.currency, t.status, t.note,
		       fu.username AS from_username, fu.first_name || ' ' || fu.last_name AS from_name,
		       tu.username AS to_username, tu.first_name || ' ' || tu.last_name AS to_name,
		       t.created_at
		FROM transactions t
		LEFT JOIN accounts fa ON fa.id = t.from_account_id
		LEFT JOIN users fu ON fu.id = fa.owner_id
		LEFT JOIN accounts ta ON ta.id = t.to_account_id
		LEFT JOIN users tu ON tu.id = ta.owner_id
		WHERE t.from_account_id = $1 OR t.to_account_id = $1
		ORDER BY t.created_at DESC
		LIMIT $2 OFFSET $3
	`, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	maps := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		maps = append(maps, map[string]any{
			"id":              row.ID,
			"from_account_id": row.FromAccountID,
			"to_account_id":   row.ToAccountID,
			"amount":          row.Amount,
			"currency":        row.Currency,
			"status":          row.Status,
			"note":            row.Note,
			"from_username":   derefStringPtr(row.FromUsername),
			"from_name":       derefStringPtr(row.FromName),
			"to_username":     derefStringPtr(row.ToUsername),
			"to_name":         derefStringPtr(row.ToName),
			"created_at":      row.CreatedAt,
		})
	}
	return maps, nil
}

func derefStringPtr(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
