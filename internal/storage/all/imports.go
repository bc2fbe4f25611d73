// Package all wires every built-in storage backend into the storage factory.
//
// The package exists purely for side effects: a blank import runs the init
// functions of each backend, which register their factories and DDL
// bootstrappers with the storage package. Importing it makes the kinds
// "postgres", "mysql", "mssql" and "sqlite" available to storage.New.
//
// Binaries that only need a subset can import the individual backend
// packages instead.
package all

import (
	_ "tabular/internal/storage/mssql"
	_ "tabular/internal/storage/mysql"
	_ "tabular/internal/storage/postgres"
	_ "tabular/internal/storage/sqlite"
)
