//go:build cgo

package simplesql

// Drivers that need cgo. Without cgo the SQLite and Oracle dialects still
// build SQL but Connect fails with an unknown driver error.
import (
	_ "github.com/godror/godror"
	_ "github.com/mattn/go-sqlite3"
)
