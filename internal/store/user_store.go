package store

import "context"

type UserStore struct {
	db DB
}

type userRow struct {
	ID           string `db:"id"`
	FirstName    string `db:"first_name"`
	LastName     string `db:"last_name"`
	Username     string `db:"username"`
	Email        string `db:"email"`
	PasswordHash string `db:"password_hash"`
	CreatedAt    any    `db:"created_at"`
}

func NewUserStore(db DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Create(ctx context.Context, tx Execer, id, firstName, lastName, username, email, passwordHash string) error {
	query := `
		INSERT INTO users (id, first_name, last_name, username, email, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := tx.ExecContext(ctx, query, id, firstName, lastName, username, email, passwordHash)
	return err
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (map[string]any, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, first_name, last_name, username, email, password_hash, created_at
		FROM users WHERE email = $1
	`, email)
	if err != nil {
		return nil, err
	}
	return userRowToMap(row, true), nil
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (map[string]any, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, first_name, last_name, username, email, '' AS password_hash, created_at
		FROM users WHERE username = $1
	`, username)
	if err != nil {
		return nil, err
	}
	return userRowToMap(row, false), nil
}

func (s *UserStore) GetByID(ctx context.Context, userID string) (map[string]any, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, first_name, last_name, username, email, '' AS password_hash, created_at
		FROM users WHERE id = $1
	`, userID)
	if err != nil {
		return nil, err
	}
	return userRowToMap(row, false), nil
}

func (s *UserStore) UpdateProfile(ctx context.Context, tx Execer, userID, firstName, lastName string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE users
		SET first_name = $1, last_name = $2, updated_at = NOW()
		WHERE id = $3
	`, firstName, lastName, userID)
	return err
}

func (s *UserStore) UpdatePassword(ctx context.Context, tx Execer, userID, passwordHash string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE users
		SET password_hash = $1, updated_at = NOW()
		WHERE id = $2
	`, passwordHash, userID)
	return err
}

func userRowToMap(row userRow, includeHash bool) map[string]any {
	m := map[string]any{
		"id":         row.ID,
		"first_name": row.FirstName,
		"last_name":  row.LastName,
		"username":   row.Username,
		"email":      row.Email,
		"created_at": row.CreatedAt,
	}
	if includeHash {
		m["password_hash"] = row.PasswordHash
	}
	return m
}
