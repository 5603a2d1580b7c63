package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/khanhnv2901/cyberaudit/internal/history"
	"github.com/khanhnv2901/cyberaudit/internal/history/sqlite"
	"github.com/khanhnv2901/cyberaudit/internal/shared/constants"
)

// historyPath resolves the SQLite file location, defaulting to the results directory.
func historyPath(cfg HistoryConfig, dir string) string {
	if cfg.Path != "" {
		return cfg.Path
	}
	return filepath.Join(dir, constants.DefaultHistoryFile)
}

// openHistory opens the configured history backend.
func openHistory(cfg HistoryConfig, dir string) (history.Repository, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", historyDriverSQLite:
		repo, err := sqlite.New(historyPath(cfg, dir))
		if err != nil {
			return nil, fmt.Errorf("failed to open history: %w", err)
		}
		return repo, nil
	case historyDriverMemory:
		return history.NewMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("unknown history driver %q (expected %s or %s)", cfg.Driver, historyDriverSQLite, historyDriverMemory)
	}
}
