package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"drop_harvester/internal/model"
	"drop_harvester/internal/store"
)

// Save upserts the account keyed by username. Ephemeral accounts are a no-op.
func (s *Store) Save(ctx context.Context, acc *model.Account) error {
	if acc.Ephemeral {
		return nil
	}
	if acc.Username == "" {
		return errors.New("username is required")
	}

	acc.Lock()
	password := acc.Password
	phone := acc.Phone
	admin := acc.Admin
	cookiesJSON, err := json.Marshal(acc.Cookies)
	acc.Unlock()
	if err != nil {
		return err
	}

	now := time.Now()
	if acc.CreatedAt.IsZero() {
		acc.CreatedAt = now
	}
	acc.UpdatedAt = now

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO accounts (username, password, phone, admin, cookies_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET
			password = excluded.password,
			phone = excluded.phone,
			admin = excluded.admin,
			cookies_json = excluded.cookies_json,
			updated_at = excluded.updated_at
	`, acc.Username, password, phone, boolToInt(admin), string(cookiesJSON), acc.CreatedAt.UnixMilli(), acc.UpdatedAt.UnixMilli())
	return err
}

func (s *Store) Load(ctx context.Context, username string) (*model.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT username, password, phone, admin, cookies_json, created_at, updated_at
		FROM accounts WHERE username = ?
	`, username)
	return scanAccount(row)
}

func (s *Store) Delete(ctx context.Context, username string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE username = ?`, username)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]*model.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, phone, admin, cookies_json, created_at, updated_at
		FROM accounts ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, acc)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(r rowScanner) (*model.Account, error) {
	var (
		username  string
		password  string
		phone     string
		admin     int
		cookies   string
		createdAt int64
		updatedAt int64
	)
	err := r.Scan(&username, &password, &phone, &admin, &cookies, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	acc := &model.Account{
		Username:  username,
		Password:  password,
		Phone:     phone,
		Admin:     admin != 0,
		CreatedAt: time.UnixMilli(createdAt),
		UpdatedAt: time.UnixMilli(updatedAt),
	}
	_ = json.Unmarshal([]byte(cookies), &acc.Cookies)
	return acc, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
