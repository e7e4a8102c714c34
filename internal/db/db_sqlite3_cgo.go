//go:build cgo && sqlite3_cgo

package db

// cgo builds tagged sqlite3_cgo link the C sqlite library instead of the wasm one
import _ "github.com/mattn/go-sqlite3"

const (
	driverID   = "mattn/go-sqlite3"
	driverName = "sqlite3"
)
