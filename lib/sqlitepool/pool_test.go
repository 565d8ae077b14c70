// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sqlitepool_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/nucleus/lib/sqlitepool"
	"github.com/bureau-foundation/nucleus/lib/testutil"
)

const schema = `CREATE TABLE IF NOT EXISTS entries (key TEXT PRIMARY KEY, value BLOB NOT NULL);`

func openPool(t *testing.T, size int) *sqlitepool.Pool {
	t.Helper()
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     filepath.Join(t.TempDir(), "test.db"),
		PoolSize: size,
		Schema:   schema,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := pool.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return pool
}

func put(conn *sqlite.Conn, key string, value []byte) error {
	return sqlitex.Execute(conn, "INSERT OR REPLACE INTO entries (key, value) VALUES (?, ?)",
		&sqlitex.ExecOptions{Args: []any{key, value}})
}

func count(t *testing.T, pool *sqlitepool.Pool) int {
	t.Helper()
	var rows int
	err := pool.Read(context.Background(), func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, "SELECT count(*) FROM entries", &sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				rows = stmt.ColumnInt(0)
				return nil
			},
		})
	})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	return rows
}

func TestPragmas(t *testing.T) {
	pool := openPool(t, 2)
	err := pool.Read(context.Background(), func(conn *sqlite.Conn) error {
		var mode string
		err := sqlitex.Execute(conn, "PRAGMA journal_mode", &sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				mode = stmt.ColumnText(0)
				return nil
			},
		})
		if err != nil {
			return err
		}
		if mode != "wal" {
			t.Errorf("journal_mode = %q, want wal", mode)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
}

func TestWriteCommitsAndRollsBack(t *testing.T) {
	pool := openPool(t, 2)
	ctx := context.Background()

	err := pool.Write(ctx, func(conn *sqlite.Conn) error {
		return put(conn, "a", []byte{1})
	})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := count(t, pool); got != 1 {
		t.Fatalf("%d rows after a committed write, want 1", got)
	}

	failure := errors.New("abandon")
	err = pool.Write(ctx, func(conn *sqlite.Conn) error {
		if err := put(conn, "b", []byte{2}); err != nil {
			return err
		}
		return failure
	})
	if !errors.Is(err, failure) {
		t.Fatalf("Write: got %v, want the callback's error", err)
	}
	if got := count(t, pool); got != 1 {
		t.Errorf("%d rows after a failed write, want 1", got)
	}
}

func TestConcurrentWriters(t *testing.T) {
	pool := openPool(t, 4)
	ctx := context.Background()

	const writers = 8
	var group sync.WaitGroup
	failures := make(chan error, writers)
	for index := range writers {
		group.Add(1)
		go func() {
			defer group.Done()
			key := string(rune('a' + index))
			if err := pool.Write(ctx, func(conn *sqlite.Conn) error { return put(conn, key, []byte(key)) }); err != nil {
				failures <- err
			}
		}()
	}
	group.Wait()
	close(failures)
	for err := range failures {
		t.Error(err)
	}
	if got := count(t, pool); got != writers {
		t.Errorf("%d rows, want %d", got, writers)
	}
}

func TestOnConnectRunsAfterSchema(t *testing.T) {
	var saw bool
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     filepath.Join(t.TempDir(), "hook.db"),
		PoolSize: 1,
		Schema:   schema,
		OnConnect: func(conn *sqlite.Conn) error {
			saw = true
			return put(conn, "hook", []byte("hook"))
		},
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer pool.Close()
	if got := count(t, pool); got != 1 || !saw {
		t.Errorf("OnConnect ran=%v, rows=%d", saw, got)
	}
}

func TestEmptyPathRejected(t *testing.T) {
	if _, err := sqlitepool.Open(sqlitepool.Config{}); err == nil {
		t.Fatal("Open accepted an empty path")
	}
}

func TestTakeHonorsCancellation(t *testing.T) {
	pool := openPool(t, 1)
	conn, err := pool.Take(context.Background())
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	defer pool.Put(conn)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := pool.Take(ctx); err == nil {
		t.Fatal("Take succeeded on an exhausted pool with a cancelled context")
	}
	if err := pool.Read(ctx, func(*sqlite.Conn) error { return nil }); err == nil {
		t.Fatal("Read succeeded on an exhausted pool with a cancelled context")
	}
}

func TestTakeWaitsForPut(t *testing.T) {
	pool := openPool(t, 1)
	ctx := context.Background()
	conn, err := pool.Take(ctx)
	if err != nil {
		t.Fatalf("Take: %v", err)
	}

	taken := make(chan *sqlite.Conn)
	go func() {
		waiting, err := pool.Take(ctx)
		if err != nil {
			t.Errorf("second Take: %v", err)
			close(taken)
			return
		}
		taken <- waiting
	}()

	pool.Put(conn)
	waiting := testutil.RequireReceive(t, taken, 5*time.Second, "waiting for the released connection")
	if waiting != conn {
		t.Error("second Take did not receive the released connection")
	}
	pool.Put(waiting)
}
