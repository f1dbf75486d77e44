// Package history keeps a SQLite journal of alarm events.
//
// The journal is write-mostly: it backs the /history.json endpoint and is
// never read back into the alarm state.
package history

import (
	"embed"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"crawshaw.io/sqlite"
	"crawshaw.io/sqlite/sqlitex"

	"github.com/sweeney/alarm-clock/internal/logic"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Scripts is the embedded migration set.
var Scripts = mustSub(migrations, "migrations")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

// Entry is a single journaled event.
type Entry struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Event     string        `json:"event"`
	AlarmTime time.Time     `json:"alarm_time"`
	AlarmOn   bool          `json:"alarm_on"`
	Delta     time.Duration `json:"-"`
	DeltaSecs int64         `json:"delta_seconds"`
	Song      string        `json:"song,omitempty"`
}

// Journal is a SQLite-backed event log. It is safe for concurrent use.
type Journal struct {
	mu   sync.Mutex
	conn *sqlite.Conn
}

// Open opens (creating if needed) the journal at path and applies migrations.
// Use ":memory:" for a throwaway journal.
func Open(path string) (*Journal, error) {
	conn, err := sqlite.OpenConn(path, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := Migrate(conn, Scripts); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return &Journal{conn: conn}, nil
}

// Record appends e under id. song is the pattern playing, if any.
func (j *Journal) Record(id string, e logic.Event, song string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	err := sqlitex.Exec(j.conn,
		`insert into events (id, timestamp, event, alarm_time, alarm_on, delta_seconds, song)
		 values (?, ?, ?, ?, ?, ?, ?)`,
		nil,
		id, e.Timestamp.Unix(), string(e.Type), e.AlarmTime.Unix(), e.AlarmOn,
		int64(e.Delta/time.Second), song,
	)
	if err != nil {
		return fmt.Errorf("record %s: %w", e.Type, err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(limit int) ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	var entries []Entry
	err := sqlitex.Exec(j.conn,
		`select id, timestamp, event, alarm_time, alarm_on, delta_seconds, song
		 from events order by seq desc limit ?`,
		func(stmt *sqlite.Stmt) error {
			delta := stmt.ColumnInt64(5)
			entries = append(entries, Entry{
				ID:        stmt.ColumnText(0),
				Timestamp: time.Unix(stmt.ColumnInt64(1), 0),
				Event:     stmt.ColumnText(2),
				AlarmTime: time.Unix(stmt.ColumnInt64(3), 0),
				AlarmOn:   stmt.ColumnInt(4) != 0,
				Delta:     time.Duration(delta) * time.Second,
				DeltaSecs: delta,
				Song:      stmt.ColumnText(6),
			})
			return nil
		},
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	return entries, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.conn.Close()
}
