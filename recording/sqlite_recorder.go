package recording

import (
	"database/sql"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/fatih/structs"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

const eventsTable = "harq_events"

// sqliteRecorder batches HARQ events in memory and flushes them into a
// SQLite table, the way the teacher's sqliteWriter batches simulation
// task entries.
type sqliteRecorder struct {
	db *sql.DB

	mu        sync.Mutex
	batch     []Event
	batchSize int
}

// NewSQLiteRecorder opens (and creates, if absent) a SQLite database at
// path+".sqlite3" and returns a DataRecorder backed by it. An atexit
// handler that flushes the pending batch is registered; it runs when the
// program ends through atexit.Exit, and no signal handler is installed.
func NewSQLiteRecorder(path string) DataRecorder {
	if path == "" {
		path = "harq_recording_" + xid.New().String()
	}

	filename := path + ".sqlite3"

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		panic(fmt.Errorf("recording: open sqlite database: %w", err))
	}

	r := &sqliteRecorder{db: db, batchSize: 10000}
	r.mustCreateTable()

	atexit.Register(func() { r.Flush() })

	return r
}

func (r *sqliteRecorder) mustCreateTable() {
	names := structs.Names(Event{})
	fields := strings.Join(names, ", \n\t")

	createTableSQL := `CREATE TABLE IF NOT EXISTS ` + eventsTable +
		` (` + "\n\t" + fields + "\n" + `);`

	if _, err := r.db.Exec(createTableSQL); err != nil {
		panic(fmt.Errorf("recording: create table %s: %w", eventsTable, err))
	}
}

func (r *sqliteRecorder) RecordEvent(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.batch = append(r.batch, e)

	if len(r.batch) >= r.batchSize {
		r.flushLocked()
	}
}

func (r *sqliteRecorder) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.flushLocked()
}

func (r *sqliteRecorder) flushLocked() {
	if len(r.batch) == 0 {
		return
	}

	placeholders := make([]string, len(structs.Names(Event{})))
	for i := range placeholders {
		placeholders[i] = "?"
	}

	insertSQL := "INSERT INTO " + eventsTable + " VALUES (" +
		strings.Join(placeholders, ", ") + ")"

	tx, err := r.db.Begin()
	if err != nil {
		panic(fmt.Errorf("recording: begin transaction: %w", err))
	}

	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		panic(fmt.Errorf("recording: prepare insert: %w", err))
	}

	for _, e := range r.batch {
		values := structValues(e)

		if _, err := stmt.Exec(values...); err != nil {
			panic(fmt.Errorf("recording: insert event: %w", err))
		}
	}

	if err := stmt.Close(); err != nil {
		panic(fmt.Errorf("recording: close statement: %w", err))
	}

	if err := tx.Commit(); err != nil {
		panic(fmt.Errorf("recording: commit transaction: %w", err))
	}

	r.batch = r.batch[:0]
}

func structValues(v any) []any {
	rv := reflect.ValueOf(v)

	out := make([]any, rv.NumField())
	for i := range out {
		out[i] = rv.Field(i).Interface()
	}

	return out
}

func (r *sqliteRecorder) Close() error {
	r.Flush()

	if err := r.db.Close(); err != nil {
		return fmt.Errorf("recording: close sqlite database: %w", err)
	}

	return nil
}
