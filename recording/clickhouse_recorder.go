package recording

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/tebeka/atexit"
)

// clickhouseRecorder is a DataRecorder backed by a ClickHouse MergeTree
// table, for fleet deployments that centralize HARQ telemetry across many
// base stations. It batches inserts the same way the teacher's
// FastClickHouseRecorder batches simulation task rows.
type clickhouseRecorder struct {
	conn clickhouse.Conn

	mu        sync.Mutex
	batch     []Event
	batchSize int
}

// ClickHouseConfig names the connection parameters for NewClickHouseRecorder.
type ClickHouseConfig struct {
	Host      string
	Port      int
	Database  string
	Username  string
	Password  string
	BatchSize int
}

// NewClickHouseRecorder opens a ClickHouse connection, creates the HARQ
// events table if absent, and returns a DataRecorder backed by it.
func NewClickHouseRecorder(cfg ClickHouseConfig) DataRecorder {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 10000
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout:      30 * time.Second,
		MaxOpenConns:     5,
		MaxIdleConns:     5,
		ConnMaxLifetime:  time.Hour,
		ConnOpenStrategy: clickhouse.ConnOpenInOrder,
		BlockBufferSize:  10,
	})
	if err != nil {
		panic(fmt.Errorf("recording: connect to clickhouse: %w", err))
	}

	if err := conn.Ping(context.Background()); err != nil {
		panic(fmt.Errorf("recording: ping clickhouse: %w", err))
	}

	r := &clickhouseRecorder{conn: conn, batchSize: cfg.BatchSize}
	r.mustCreateTable()

	atexit.Register(func() { r.Flush() })

	return r
}

func (r *clickhouseRecorder) mustCreateTable() {
	createSQL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			ID String,
			EntityID String,
			Kind String,
			ProcessID Int64,
			TB Int64,
			Ack UInt8,
			Detail String
		) ENGINE = MergeTree()
		ORDER BY (EntityID, ID)
	`, eventsTable)

	if err := r.conn.Exec(context.Background(), createSQL); err != nil {
		panic(fmt.Errorf("recording: create clickhouse table: %w", err))
	}
}

func (r *clickhouseRecorder) RecordEvent(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.batch = append(r.batch, e)

	if len(r.batch) >= r.batchSize {
		r.flushLocked()
	}
}

func (r *clickhouseRecorder) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.flushLocked()
}

func (r *clickhouseRecorder) flushLocked() {
	if len(r.batch) == 0 {
		return
	}

	ctx := context.Background()

	batch, err := r.conn.PrepareBatch(ctx, "INSERT INTO "+eventsTable)
	if err != nil {
		panic(fmt.Errorf("recording: prepare clickhouse batch: %w", err))
	}

	for _, e := range r.batch {
		ack := uint8(0)
		if e.Ack {
			ack = 1
		}

		err := batch.Append(e.ID, e.EntityID, e.Kind, e.ProcessID, e.TB, ack, e.Detail)
		if err != nil {
			panic(fmt.Errorf("recording: append to clickhouse batch: %w", err))
		}
	}

	if err := batch.Send(); err != nil {
		panic(fmt.Errorf("recording: send clickhouse batch: %w", err))
	}

	r.batch = r.batch[:0]
}

func (r *clickhouseRecorder) Close() error {
	r.Flush()

	if err := r.conn.Close(); err != nil {
		return fmt.Errorf("recording: close clickhouse connection: %w", err)
	}

	return nil
}
