// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package ruledb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/discipline-project/discipline/lib/chronic"
	"github.com/discipline-project/discipline/lib/conditional"
	"github.com/discipline-project/discipline/lib/regulation"
	"github.com/discipline-project/discipline/lib/rule"
	"github.com/discipline-project/discipline/lib/sqlitepool"
)

// Config holds the parameters for Open.
type Config struct {
	// Path is the database file, created if missing.
	Path string

	// PoolSize defaults to sqlitepool.DefaultPoolSize.
	PoolSize int

	Logger *slog.Logger
}

// DB is the daemon's database. It is safe for concurrent use.
type DB struct {
	pool   *sqlitepool.Pool
	logger *slog.Logger
}

var (
	_ regulation.Store  = (*DB)(nil)
	_ regulation.Loader = (*DB)(nil)
)

// Open opens or creates the database and its schema.
func Open(cfg Config) (*DB, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     cfg.Path,
		PoolSize: cfg.PoolSize,
		Logger:   logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, schema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ruledb: %w", err)
	}

	// Take one connection now so a broken file or schema fails Open
	// rather than the first request.
	conn, err := pool.Take(context.Background())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ruledb: preparing %s: %w", cfg.Path, err)
	}
	pool.Put(conn)

	return &DB{pool: pool, logger: logger}, nil
}

// Close closes the pool.
func (db *DB) Close() error {
	return db.pool.Close()
}

// write runs body in one IMMEDIATE transaction. body's error rolls the
// transaction back.
func (db *DB) write(ctx context.Context, body func(conn *sqlite.Conn) error) (err error) {
	conn, err := db.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer db.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer endTransaction(&err)

	return body(conn)
}

func parseID(text string) (uuid.UUID, error) {
	id, err := uuid.Parse(text)
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// exists runs a query returning at most one row and reports whether it
// returned one.
func exists(conn *sqlite.Conn, query string, args ...any) (bool, error) {
	found := false
	err := sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(*sqlite.Stmt) error {
			found = true
			return nil
		},
	})
	return found, err
}

// InsertRule implements rule.Store.
func (db *DB) InsertRule(ctx context.Context, locator rule.Locator, id uuid.UUID, stored rule.Rule) error {
	err := db.write(ctx, func(conn *sqlite.Conn) error {
		duplicate, err := exists(conn, "SELECT 1 FROM rules WHERE rule_id = ?", id.String())
		if err != nil {
			return err
		}
		if duplicate {
			return rule.ErrStoreDuplicateID
		}
		owner, err := exists(conn, "SELECT 1 FROM users WHERE user_id = ?", locator.UserID.String())
		if err != nil {
			return err
		}
		if !owner {
			return regulation.ErrStoreNoSuchUser
		}

		activator := encodeActivator(stored.Activator)
		protector := encodeProtector(stored.Protector)
		return sqlitex.Execute(conn, `INSERT INTO rules (`+ruleColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			&sqlitex.ExecOptions{
				Args: []any{
					id.String(),
					locator.UserID.String(),
					int64(locator.Domain),
					activator.kind,
					activator.from,
					activator.till,
					activator.weekdays,
					protector.kind,
					protector.activated,
					protector.armedAt,
					protector.length,
				},
			})
	})
	if err != nil {
		return fmt.Errorf("ruledb: inserting rule %s in %s: %w", id, locator, err)
	}
	return nil
}

// DeleteRule implements rule.Store.
func (db *DB) DeleteRule(ctx context.Context, locator rule.Locator, id uuid.UUID) error {
	err := db.write(ctx, func(conn *sqlite.Conn) error {
		err := sqlitex.Execute(conn,
			"DELETE FROM rules WHERE rule_id = ? AND user_id = ? AND domain = ?",
			&sqlitex.ExecOptions{
				Args: []any{id.String(), locator.UserID.String(), int64(locator.Domain)},
			})
		if err != nil {
			return err
		}
		if conn.Changes() == 0 {
			return rule.ErrStoreNoSuchRule
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("ruledb: deleting rule %s in %s: %w", id, locator, err)
	}
	return nil
}

// UpdateRuleProtector implements rule.Store. The update applies only
// when the stored protector equals original.
func (db *DB) UpdateRuleProtector(ctx context.Context, locator rule.Locator, id uuid.UUID, original, modified conditional.Protector) error {
	before := encodeProtector(original)
	after := encodeProtector(modified)
	err := db.write(ctx, func(conn *sqlite.Conn) error {
		err := sqlitex.Execute(conn, `UPDATE rules SET
				protector_kind = ?, protector_activated = ?, protector_armed_at = ?, protector_length = ?
			WHERE rule_id = ? AND user_id = ? AND domain = ?
				AND protector_kind = ? AND protector_activated = ?
				AND protector_armed_at IS ? AND protector_length = ?`,
			&sqlitex.ExecOptions{
				Args: []any{
					after.kind, after.activated, after.armedAt, after.length,
					id.String(), locator.UserID.String(), int64(locator.Domain),
					before.kind, before.activated, before.armedAt, before.length,
				},
			})
		if err != nil {
			return err
		}
		if conn.Changes() == 0 {
			return rule.ErrStoreNoSuchRule
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("ruledb: updating protector of rule %s in %s: %w", id, locator, err)
	}
	return nil
}

// InsertUser implements regulation.Store.
func (db *DB) InsertUser(ctx context.Context, user regulation.UserRecord) error {
	err := db.write(ctx, func(conn *sqlite.Conn) error {
		duplicate, err := exists(conn, "SELECT 1 FROM users WHERE user_id = ?", user.ID.String())
		if err != nil {
			return err
		}
		if duplicate {
			return regulation.ErrStoreDuplicateUserID
		}
		return sqlitex.Execute(conn, "INSERT INTO users (user_id, name, os_name) VALUES (?, ?, ?)",
			&sqlitex.ExecOptions{
				Args: []any{user.ID.String(), user.Name, user.OperatingSystemName},
			})
	})
	if err != nil {
		return fmt.Errorf("ruledb: inserting user %s: %w", user.ID, err)
	}
	return nil
}

// DeleteUser implements regulation.Store. The user's rules go in the
// same transaction.
func (db *DB) DeleteUser(ctx context.Context, id uuid.UUID) error {
	err := db.write(ctx, func(conn *sqlite.Conn) error {
		err := sqlitex.Execute(conn, "DELETE FROM users WHERE user_id = ?",
			&sqlitex.ExecOptions{Args: []any{id.String()}})
		if err != nil {
			return err
		}
		if conn.Changes() == 0 {
			return regulation.ErrStoreNoSuchUser
		}
		return sqlitex.Execute(conn, "DELETE FROM rules WHERE user_id = ?",
			&sqlitex.ExecOptions{Args: []any{id.String()}})
	})
	if err != nil {
		return fmt.Errorf("ruledb: deleting user %s: %w", id, err)
	}
	return nil
}

// RenameUser implements regulation.Store.
func (db *DB) RenameUser(ctx context.Context, id uuid.UUID, name string) error {
	err := db.write(ctx, func(conn *sqlite.Conn) error {
		err := sqlitex.Execute(conn, "UPDATE users SET name = ? WHERE user_id = ?",
			&sqlitex.ExecOptions{Args: []any{name, id.String()}})
		if err != nil {
			return err
		}
		if conn.Changes() == 0 {
			return regulation.ErrStoreNoSuchUser
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("ruledb: renaming user %s: %w", id, err)
	}
	return nil
}

// LoadAll implements regulation.Loader. Users come back in insertion
// order; rules that reference a missing user or fail to decode are
// logged and skipped.
func (db *DB) LoadAll(ctx context.Context) ([]regulation.StoredUser, error) {
	conn, err := db.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("ruledb: load: %w", err)
	}
	defer db.pool.Put(conn)

	var users []regulation.StoredUser
	index := make(map[string]int)
	err = sqlitex.Execute(conn, "SELECT user_id, name, os_name FROM users ORDER BY rowid", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			id, err := parseID(stmt.ColumnText(0))
			if err != nil {
				return fmt.Errorf("user id %q: %w", stmt.ColumnText(0), err)
			}
			index[id.String()] = len(users)
			users = append(users, regulation.StoredUser{
				UserRecord: regulation.UserRecord{
					ID:                  id,
					Name:                stmt.ColumnText(1),
					OperatingSystemName: stmt.ColumnText(2),
				},
				Rules: make(map[rule.Domain][]rule.Entry),
			})
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ruledb: loading users: %w", err)
	}

	err = sqlitex.Execute(conn, "SELECT "+ruleColumns+" FROM rules ORDER BY rowid", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			scanned, err := scanRule(stmt)
			if err != nil {
				db.logger.Warn("skipping undecodable rule", "error", err)
				return nil
			}
			position, found := index[scanned.userID]
			if !found {
				db.logger.Warn("skipping rule of unknown user",
					"rule_id", scanned.entry.ID, "user_id", scanned.userID)
				return nil
			}
			owner := &users[position]
			owner.Rules[scanned.domain] = append(owner.Rules[scanned.domain], scanned.entry)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ruledb: loading rules: %w", err)
	}
	return users, nil
}

// SaveClock persists the monotonic clock reading.
func (db *DB) SaveClock(ctx context.Context, now chronic.Instant) error {
	err := db.write(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `INSERT INTO monotonic_clock (singleton, ticks) VALUES (0, ?)
			ON CONFLICT (singleton) DO UPDATE SET ticks = excluded.ticks`,
			&sqlitex.ExecOptions{Args: []any{int64(now)}})
	})
	if err != nil {
		return fmt.Errorf("ruledb: saving clock: %w", err)
	}
	return nil
}

// ErrNoClock is returned by LoadClock on a database that has never
// saved one.
var ErrNoClock = errors.New("ruledb: no clock saved")

// LoadClock returns the last saved monotonic clock reading.
func (db *DB) LoadClock(ctx context.Context) (chronic.Instant, error) {
	conn, err := db.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("ruledb: load clock: %w", err)
	}
	defer db.pool.Put(conn)

	var ticks int64
	found := false
	err = sqlitex.Execute(conn, "SELECT ticks FROM monotonic_clock WHERE singleton = 0", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			ticks = stmt.ColumnInt64(0)
			found = true
			return nil
		},
	})
	if err != nil {
		return 0, fmt.Errorf("ruledb: load clock: %w", err)
	}
	if !found {
		return 0, ErrNoClock
	}
	return chronic.Instant(ticks), nil
}
