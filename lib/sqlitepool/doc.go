// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool opens pools of SQLite connections for the depot
// and descriptor stores.
//
// A [Pool] wraps zombiezen's sqlitex.Pool. Every connection gets the
// same pragmas (WAL journaling, NORMAL synchronous, a busy timeout)
// and then the pool's schema, so callers never see a connection whose
// tables are missing. Connections are not safe for concurrent use:
// [Pool.Take] one per goroutine and [Pool.Put] it back, or let
// [Pool.Read] and [Pool.Write] do both around a callback.
//
//	pool, err := sqlitepool.Open(sqlitepool.Config{
//	    Path:   filepath.Join(root, "depot.db"),
//	    Schema: `CREATE TABLE IF NOT EXISTS blocks (...);`,
//	    Logger: logger,
//	})
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	err = pool.Write(ctx, func(conn *sqlite.Conn) error {
//	    return sqlitex.Execute(conn, "DELETE FROM blocks WHERE key = ?",
//	        &sqlitex.ExecOptions{Args: []any{key}})
//	})
//
// Write runs its callback inside an immediate transaction, so the
// write lock is taken up front and a read-modify-write sequence
// (checking a stored revision, then replacing the row) is atomic.
package sqlitepool
