// Package keyring implements the durable, concurrency-safe named-key
// store: two 32-byte halves (public, private) per name, kept consistent
// by a SQLite schema with cascading foreign keys and cleanup triggers.
package keyring

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/mattn/go-sqlite3"
)

// KeySize is the fixed length, in bytes, of both key halves.
const KeySize = 32

// Store is a handle on an open keyring database. The zero Store is not
// usable; construct one with Open.
type Store struct {
	db *sql.DB
}

// Open opens or creates the keyring database at path, enables foreign-key
// enforcement, and installs the schema. The schema is idempotent, so
// opening an existing keyring is safe.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, newFatal("open", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		db.Close()
		return nil, classify("open", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, classify("open", err)
	}
	return &Store{db: db}, nil
}

// Close releases the store. Subsequent operations on it fail.
func (s *Store) Close() error {
	return s.db.Close()
}

// classify turns a driver error into a keyring.Error, distinguishing the
// transient SQLITE_LOCKED/SQLITE_BUSY conditions from everything else per
// spec.md §5.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrLocked:
			return newLocked(op, err)
		case sqlite3.ErrBusy:
			return newBusy(op, err)
		}
	}
	return newFatal(op, err)
}

// txn pins a single connection from the pool and runs fn inside a literal
// "BEGIN EXCLUSIVE" / COMMIT or ROLLBACK pair. database/sql's BeginTx has
// no portable way to request SQLite's exclusive locking mode, so it is
// requested with a literal statement on a dedicated connection, matching
// the original tool's use of BEGIN EXCLUSIVE around every mutating
// operation. fn's returned error, if any, triggers a rollback.
func (s *Store) txn(ctx context.Context, op string, fn func(conn *sql.Conn) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return classify(op, err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN EXCLUSIVE"); err != nil {
		return classify(op, err)
	}

	if err := fn(conn); err != nil {
		conn.ExecContext(ctx, "ROLLBACK")
		return err
	}

	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		conn.ExecContext(ctx, "ROLLBACK")
		return classify(op, err)
	}
	return nil
}

func nameID(ctx context.Context, conn *sql.Conn, name string) (int64, error) {
	var id int64
	err := conn.QueryRowContext(ctx, "SELECT Id FROM Names WHERE Name = ?", name).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

func ensureNameID(ctx context.Context, conn *sql.Conn, name string) (int64, error) {
	id, err := nameID(ctx, conn, name)
	if err != nil {
		return 0, err
	}
	if id != 0 {
		return id, nil
	}
	res, err := conn.ExecContext(ctx, "INSERT INTO Names (Name) VALUES (?)", name)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetPublic returns the public half stored for name.
func (s *Store) GetPublic(name string) (*[KeySize]byte, error) {
	var blob []byte
	err := s.db.QueryRow(`SELECT PublicKey FROM PublicKeys JOIN Names ON Names.Id = PublicKeys.NameId WHERE Names.Name = ?`, name).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, newNotFound("get_public", name)
	}
	if err != nil {
		return nil, classify("get_public", err)
	}
	return toKey("get_public", blob)
}

// GetPrivate returns the private half stored for name.
func (s *Store) GetPrivate(name string) (*[KeySize]byte, error) {
	var blob []byte
	err := s.db.QueryRow(`SELECT PrivateKey FROM PrivateKeys JOIN Names ON Names.Id = PrivateKeys.NameId WHERE Names.Name = ?`, name).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, newNotFound("get_private", name)
	}
	if err != nil {
		return nil, classify("get_private", err)
	}
	return toKey("get_private", blob)
}

// GetPair returns both halves for name. It fails with CodeNotFound unless
// both halves exist; it is a join, not an either-or lookup.
func (s *Store) GetPair(name string) (Pair, error) {
	pub, err := s.GetPublic(name)
	if err != nil {
		return Pair{}, err
	}
	priv, err := s.GetPrivate(name)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Public: pub, Private: priv}, nil
}

func toKey(op string, blob []byte) (*[KeySize]byte, error) {
	if len(blob) != KeySize {
		return nil, newFatal(op, errors.New("stored key has wrong length"))
	}
	var k [KeySize]byte
	copy(k[:], blob)
	return &k, nil
}

// SetPublic inserts the public half for name, failing if one already
// exists.
func (s *Store) SetPublic(name string, key [KeySize]byte) (SetResult, error) {
	return s.setPair(name, &key, nil)
}

// SetPrivate inserts the private half for name, failing if one already
// exists.
func (s *Store) SetPrivate(name string, key [KeySize]byte) (SetResult, error) {
	return s.setPair(name, nil, &key)
}

// SetPair inserts both halves for name, failing the whole operation if
// either half already exists.
func (s *Store) SetPair(name string, pub, priv [KeySize]byte) (SetResult, error) {
	return s.setPair(name, &pub, &priv)
}

func (s *Store) setPair(name string, pub, priv *[KeySize]byte) (SetResult, error) {
	ctx := context.Background()
	var result SetResult
	err := s.txn(ctx, "set", func(conn *sql.Conn) error {
		id, err := ensureNameID(ctx, conn, name)
		if err != nil {
			return classify("set", err)
		}

		if pub != nil {
			ok, err := insertHalf(ctx, conn, "PublicKeys", "PublicKey", id, pub[:])
			if err != nil {
				return classify("set_public", err)
			}
			if !ok {
				result.PublicOverwriteFailed = true
				return newConflict("set_public", name, "public")
			}
			result.PublicStored = true
		}
		if priv != nil {
			ok, err := insertHalf(ctx, conn, "PrivateKeys", "PrivateKey", id, priv[:])
			if err != nil {
				return classify("set_private", err)
			}
			if !ok {
				result.PrivateOverwriteFailed = true
				return newConflict("set_private", name, "private")
			}
			result.PrivateStored = true
		}
		return nil
	})
	if err != nil {
		return SetResult{PublicOverwriteFailed: result.PublicOverwriteFailed, PrivateOverwriteFailed: result.PrivateOverwriteFailed}, err
	}
	return result, nil
}

func insertHalf(ctx context.Context, conn *sql.Conn, table, column string, nameID int64, blob []byte) (bool, error) {
	_, err := conn.ExecContext(ctx, "INSERT INTO "+table+" (NameId, "+column+") VALUES (?, ?)", nameID, blob)
	if err == nil {
		return true, nil
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return false, nil
	}
	return false, err
}

// PutPublic inserts or overwrites the public half for name.
func (s *Store) PutPublic(name string, key [KeySize]byte) (SetResult, error) {
	return s.putPair(name, &key, nil)
}

// PutPrivate inserts or overwrites the private half for name.
func (s *Store) PutPrivate(name string, key [KeySize]byte) (SetResult, error) {
	return s.putPair(name, nil, &key)
}

// PutPair inserts or overwrites both halves for name.
func (s *Store) PutPair(name string, pub, priv [KeySize]byte) (SetResult, error) {
	return s.putPair(name, &pub, &priv)
}

func (s *Store) putPair(name string, pub, priv *[KeySize]byte) (SetResult, error) {
	ctx := context.Background()
	var result SetResult
	err := s.txn(ctx, "put", func(conn *sql.Conn) error {
		id, err := ensureNameID(ctx, conn, name)
		if err != nil {
			return classify("put", err)
		}

		if pub != nil {
			if err := upsertHalf(ctx, conn, "PublicKeys", "PublicKey", id, pub[:]); err != nil {
				return classify("put_public", err)
			}
			result.PublicStored = true
		}
		if priv != nil {
			if err := upsertHalf(ctx, conn, "PrivateKeys", "PrivateKey", id, priv[:]); err != nil {
				return classify("put_private", err)
			}
			result.PrivateStored = true
		}
		return nil
	})
	if err != nil {
		return SetResult{}, err
	}
	return result, nil
}

func upsertHalf(ctx context.Context, conn *sql.Conn, table, column string, nameID int64, blob []byte) error {
	res, err := conn.ExecContext(ctx, "UPDATE "+table+" SET "+column+" = ? WHERE NameId = ?", blob, nameID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	_, err = conn.ExecContext(ctx, "INSERT INTO "+table+" (NameId, "+column+") VALUES (?, ?)", nameID, blob)
	return err
}

// DeletePublic deletes the public half for name.
func (s *Store) DeletePublic(name string, force bool) (DeleteResult, error) {
	return s.deletePair(name, force, true, false)
}

// DeletePrivate deletes the private half for name.
func (s *Store) DeletePrivate(name string, force bool) (DeleteResult, error) {
	return s.deletePair(name, force, false, true)
}

// DeletePair deletes both halves for name.
func (s *Store) DeletePair(name string, force bool) (DeleteResult, error) {
	return s.deletePair(name, force, true, true)
}

func (s *Store) deletePair(name string, force, wantPublic, wantPrivate bool) (DeleteResult, error) {
	ctx := context.Background()
	var result DeleteResult
	err := s.txn(ctx, "delete", func(conn *sql.Conn) error {
		id, err := nameID(ctx, conn, name)
		if err != nil {
			return classify("delete", err)
		}

		var havePublic, havePrivate bool
		if id != 0 {
			if wantPublic {
				havePublic, err = halfExists(ctx, conn, "PublicKeys", id)
				if err != nil {
					return classify("delete_public", err)
				}
			}
			if wantPrivate {
				havePrivate, err = halfExists(ctx, conn, "PrivateKeys", id)
				if err != nil {
					return classify("delete_private", err)
				}
			}
		}

		if !force && !havePublic && !havePrivate {
			result = DeleteResult{NotDeleted: true}
			return nil
		}

		if havePublic {
			if _, err := conn.ExecContext(ctx, "DELETE FROM PublicKeys WHERE NameId = ?", id); err != nil {
				return classify("delete_public", err)
			}
			result.PublicDeleted = true
		}
		if havePrivate {
			if _, err := conn.ExecContext(ctx, "DELETE FROM PrivateKeys WHERE NameId = ?", id); err != nil {
				return classify("delete_private", err)
			}
			result.PrivateDeleted = true
		}
		if !result.Deleted() {
			result.NotDeleted = true
		}
		return nil
	})
	if err != nil {
		return DeleteResult{}, err
	}
	return result, nil
}

func halfExists(ctx context.Context, conn *sql.Conn, table string, nameID int64) (bool, error) {
	var id int64
	err := conn.QueryRowContext(ctx, "SELECT Id FROM "+table+" WHERE NameId = ?", nameID).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// List iterates every name in lexicographic order, invoking fn with the
// name and whichever halves it owns. Returning false from fn stops
// iteration early.
func (s *Store) List(fn func(name string, pair Pair) bool) error {
	rows, err := s.db.Query(`
		SELECT Names.Name, PublicKeys.PublicKey, PrivateKeys.PrivateKey
		FROM Names
		LEFT JOIN PublicKeys ON PublicKeys.NameId = Names.Id
		LEFT JOIN PrivateKeys ON PrivateKeys.NameId = Names.Id
	`)
	if err != nil {
		return classify("list", err)
	}
	defer rows.Close()

	type entry struct {
		name string
		pair Pair
	}
	var entries []entry
	for rows.Next() {
		var name string
		var pub, priv []byte
		if err := rows.Scan(&name, &pub, &priv); err != nil {
			return classify("list", err)
		}
		var pair Pair
		if pub != nil {
			k, err := toKey("list", pub)
			if err != nil {
				return err
			}
			pair.Public = k
		}
		if priv != nil {
			k, err := toKey("list", priv)
			if err != nil {
				return err
			}
			pair.Private = k
		}
		entries = append(entries, entry{name, pair})
	}
	if err := rows.Err(); err != nil {
		return classify("list", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })
	for _, e := range entries {
		if !fn(e.name, e.pair) {
			break
		}
	}
	return nil
}
