// Package repomanager opens the configured storage backend and vends the
// repositories bound to it.
package repomanager

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/chanakya/internal/server/repositories/itineraries"
	"github.com/dmitrijs2005/chanakya/internal/server/repositories/users"
)

// TxFunc receives repositories that share one unit of work.
type TxFunc func(ctx context.Context, users users.Repository, itineraries itineraries.Repository) error

type RepositoryManager interface {
	Users() users.Repository
	Itineraries() itineraries.Repository
	// WithinTx runs fn so that its writes commit or roll back together where
	// the backend supports it.
	WithinTx(ctx context.Context, fn TxFunc) error
	// RunMigrations brings the schema (or indexes) up to date.
	RunMigrations(ctx context.Context) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
	Backend() string
}

const (
	BackendPostgres = "postgres"
	BackendMongo    = "mongodb"
)

// Open picks the backend from the DSN scheme: mongodb:// and mongodb+srv://
// go to MongoDB, everything else is handed to the pgx driver.
func Open(ctx context.Context, dsn, dbName string) (RepositoryManager, error) {
	if isMongoDSN(dsn) {
		return OpenMongo(ctx, dsn, dbName)
	}
	return OpenPostgres(ctx, dsn)
}

func isMongoDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "mongodb://") || strings.HasPrefix(dsn, "mongodb+srv://")
}
