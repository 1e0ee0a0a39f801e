package storage

import (
	"database/sql"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	_ "modernc.org/sqlite"
)

const memoryPath = ":memory:"

// DB is the run ledger database.
type DB struct {
	*sql.DB
}

// ledgerDSN adds the pragmas a file-backed ledger needs. A second pcsrel
// started while one is still writing waits instead of failing.
func ledgerDSN(path string) string {
	if path == memoryPath {
		return memoryPath
	}
	return path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
}

// NewDB opens the ledger at path, creating the file, its directory and the
// runs table when missing. ":memory:" gives a throwaway ledger.
func NewDB(path string) (*DB, error) {
	if path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, goerr.Wrap(err, "failed to create state directory", goerr.V("path", path))
		}
	}

	conn, err := sql.Open("sqlite", ledgerDSN(path))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open run ledger", goerr.V("path", path))
	}
	// a single connection also keeps an in-memory ledger alive between queries
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	db := &DB{DB: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, goerr.Wrap(err, "failed to prepare run ledger", goerr.V("path", path))
	}
	return db, nil
}

func (db *DB) migrate() error {
	if err := db.Ping(); err != nil {
		return err
	}
	_, err := db.Exec(schema)
	return err
}
