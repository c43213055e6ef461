/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fanzine/internal/config"
	"fanzine/internal/domain"
	applog "fanzine/internal/log"
)

// ErrNotFound is returned for unknown photo ids.
var ErrNotFound = errors.New("not found")

const sessionKey = "session"

// tsLayout sorts lexically.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

// Meta is the layout state saved next to the photos.
type Meta struct {
	Gap       float64                                 `json:"gap"`
	PageTexts [domain.SlotCount][]domain.PageText     `json:"pageTexts"`
	Crops     *[domain.SlotCount]domain.CropTransform `json:"crops,omitempty"`
}

// StoredPhoto is one photo row.
type StoredPhoto struct {
	ID        string
	Data      []byte
	Order     int
	MIME      string
	CreatedAt time.Time
}

// Session is everything LoadSession restores. Meta is nil when never saved.
type Session struct {
	Photos []StoredPhoto
	Meta   *Meta
}

// Store persists photos and layout metadata in SQLite or Postgres.
type Store struct {
	db  *sql.DB
	d   dialect
	log *slog.Logger
}

// OpenSQLite opens the store at path (":memory:" for tests).
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	db, err := openSQLite(ctx, path)
	if err != nil {
		return nil, err
	}
	return newStore(ctx, db, sqliteDialect)
}

// OpenPostgres opens the store on a Postgres DSN.
func OpenPostgres(ctx context.Context, dsn string) (*Store, error) {
	db, err := openPostgres(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return newStore(ctx, db, postgresDialect)
}

// Open picks the driver from the configuration. sqlitePath is used when no DSN is set.
func Open(ctx context.Context, cfg config.StorageConfig, sqlitePath string) (*Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverSQLite:
		p := sqlitePath
		if cfg.DSN != "" {
			p = cfg.DSN
		}
		return OpenSQLite(ctx, p)
	case DriverPostgres, "pgx":
		if cfg.DSN == "" {
			return nil, errors.New("postgres storage needs a dsn")
		}
		return OpenPostgres(ctx, cfg.DSN)
	}
	return nil, fmt.Errorf("unknown storage driver: %s", cfg.Driver)
}

func newStore(ctx context.Context, db *sql.DB, d dialect) (*Store, error) {
	l := applog.WithComponent("storage").With(slog.String("driver", d.name))
	if err := ensureSchema(ctx, db, d); err != nil {
		_ = db.Close()
		l.Error("ensure schema failed", slog.Any("err", err))
		return nil, err
	}
	return &Store{db: db, d: d, log: l}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Driver returns the backing driver name.
func (s *Store) Driver() string { return s.d.name }

// SavePhoto inserts or replaces a photo.
func (s *Store) SavePhoto(ctx context.Context, id string, data []byte, order int, mime string) error {
	if id == "" {
		return errors.New("photo id is required")
	}
	if mime == "" {
		mime = "image/jpeg"
	}
	q := s.d.rebind(`INSERT INTO photos (id, data, ord, mime, created_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET data=excluded.data, ord=excluded.ord, mime=excluded.mime`)
	if _, err := s.db.ExecContext(ctx, q, id, data, order, mime, time.Now().UTC().Format(tsLayout)); err != nil {
		return fmt.Errorf("save photo %s: %w", id, err)
	}
	return nil
}

// SetOrder stores the position of each id as its order.
func (s *Store) SetOrder(ctx context.Context, ids []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	q := s.d.rebind(`UPDATE photos SET ord=? WHERE id=?`)
	for i, id := range ids {
		if _, err := tx.ExecContext(ctx, q, i, id); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("order %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// DeletePhoto removes a photo; unknown ids return ErrNotFound.
func (s *Store) DeletePhoto(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.d.rebind(`DELETE FROM photos WHERE id=?`), id)
	if err != nil {
		return fmt.Errorf("delete photo %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// PhotoBytes returns the stored bytes of a photo.
func (s *Store) PhotoBytes(ctx context.Context, id string) ([]byte, error) {
	var b []byte
	err := s.db.QueryRowContext(ctx, s.d.rebind(`SELECT data FROM photos WHERE id=?`), id).Scan(&b)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read photo %s: %w", id, err)
	}
	return b, nil
}

// ClearPhotos removes all photos and keeps the metadata.
func (s *Store) ClearPhotos(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM photos`)
	return err
}

// SaveMeta replaces the session metadata.
func (s *Store) SaveMeta(ctx context.Context, m Meta) error {
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal meta: %w", err)
	}
	q := s.d.rebind(`INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT (key) DO UPDATE SET value=excluded.value`)
	if _, err := s.db.ExecContext(ctx, q, sessionKey, string(b)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	return nil
}

// LoadSession returns the photos sorted by order and the metadata.
func (s *Store) LoadSession(ctx context.Context) (Session, error) {
	var out Session
	rows, err := s.db.QueryContext(ctx, `SELECT id, data, ord, mime, created_at FROM photos ORDER BY ord, created_at`)
	if err != nil {
		return out, fmt.Errorf("list photos: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var p StoredPhoto
		var ts string
		if err := rows.Scan(&p.ID, &p.Data, &p.Order, &p.MIME, &ts); err != nil {
			return out, err
		}
		p.CreatedAt, _ = time.Parse(tsLayout, ts)
		out.Photos = append(out.Photos, p)
	}
	if err := rows.Err(); err != nil {
		return out, err
	}

	var raw string
	err = s.db.QueryRowContext(ctx, s.d.rebind(`SELECT value FROM meta WHERE key=?`), sessionKey).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return out, nil
	case err != nil:
		return out, fmt.Errorf("read meta: %w", err)
	}
	var m Meta
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		// A broken meta row must not lose the photos.
		s.log.Warn("session meta unreadable", slog.Any("err", err))
		return out, nil
	}
	out.Meta = &m
	return out, nil
}

// ClearAll removes photos and metadata.
func (s *Store) ClearAll(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, q := range []string{`DELETE FROM photos`, `DELETE FROM meta`} {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
