package backend

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/log"
	"fintrack/internal/ports"
	"fintrack/internal/storage"
	"fintrack/internal/storage/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger.With(log.FieldComponent, log.ComponentBackend)}
}

// Open validates config and opens the store it names. The SQLite store
// runs pending migrations before it is returned.
func (f *DefaultFactory) Open(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var res *Result
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		res = &Result{Store: repo, Cleanup: repo.Close}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	case MemoryBackend:
		res = &Result{Store: memory.New()}
		f.logger.Info("Initialized memory backend; data is lost on restart")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	if err := res.Store.Ping(ctx); err != nil {
		_ = res.Close()
		return nil, fmt.Errorf("ping %s backend: %w", config.Type, err)
	}
	return res, nil
}

var (
	_ ports.Store = (*storage.SQLiteRepository)(nil)
	_ ports.Store = (*memory.Store)(nil)
)
