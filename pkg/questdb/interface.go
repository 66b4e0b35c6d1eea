package questdb

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// QuestDBClient defines the interface for QuestDB operations.
//
//go:generate mockgen -source interface.go -destination=mock/interface_mock.go -package=questdb_mock
type QuestDBClient interface {
	Exec(ctx context.Context, sql string, args ...any) error
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}
