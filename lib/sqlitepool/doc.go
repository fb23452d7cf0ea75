// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool opens SQLite connection pools with the pragmas
// every discipline database uses.
//
// It is a thin layer over zombiezen.com/go/sqlite. Callers [Pool.Take]
// a connection, use sqlitex directly, and [Pool.Put] it back. A
// connection must not be shared between goroutines.
//
// # Pragmas
//
//   - journal_mode=WAL: readers and the single writer do not block
//     each other.
//   - synchronous=FULL: a committed rule change survives power loss.
//     The database is the only copy of the user's restrictions, so a
//     protector state lost on crash would let a locked rule come back
//     unlocked.
//   - busy_timeout=5000: wait for the write lock instead of failing
//     with SQLITE_BUSY.
//   - foreign_keys=OFF: stores delete dependent rows explicitly.
//   - temp_store=MEMORY.
//
// # Usage
//
//	pool, err := sqlitepool.Open(sqlitepool.Config{
//	    Path:   "/var/lib/discipline/discipline.db",
//	    Logger: logger,
//	    OnConnect: func(conn *sqlite.Conn) error {
//	        return sqlitex.ExecuteScript(conn, schema, nil)
//	    },
//	})
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
package sqlitepool
