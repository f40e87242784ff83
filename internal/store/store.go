// Package store defines the persistence boundary for accounts. The engine
// never touches storage except through this interface.
package store

import (
	"context"
	"errors"

	"drop_harvester/internal/model"
)

var ErrNotFound = errors.New("account not found")

type Store interface {
	Load(ctx context.Context, username string) (*model.Account, error)
	Save(ctx context.Context, acc *model.Account) error
	Delete(ctx context.Context, username string) error
	List(ctx context.Context) ([]*model.Account, error)
	Close() error
}
