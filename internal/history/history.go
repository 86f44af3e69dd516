// Package history implements the clipboard history operations on top of the
// clip store and the plugin pipeline: add, list, search, paste, pin, delete,
// clear, stats, export and import.
package history

import (
	"database/sql"

	"github.com/rs/zerolog"

	"clipstash/internal/config"
	"clipstash/internal/plugin"
)

// Store wires the database, configuration and plugin pipeline together.
// One Store serves the whole process; its methods are safe for concurrent
// use to the extent the underlying *sql.DB is.
type Store struct {
	db      *sql.DB
	cfg     *config.Config
	plugins *plugin.Manager
	log     zerolog.Logger
}

// New creates a Store.
func New(database *sql.DB, cfg *config.Config, plugins *plugin.Manager, log zerolog.Logger) *Store {
	return &Store{
		db:      database,
		cfg:     cfg,
		plugins: plugins,
		log:     log.With().Str("component", "history").Logger(),
	}
}

// Plugins exposes the pipeline manager for runtime plugin control.
func (s *Store) Plugins() *plugin.Manager {
	return s.plugins
}
