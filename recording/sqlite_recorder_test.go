package recording_test

import (
	"database/sql"
	"os"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basestation/harqcore/recording"
)

func TestSQLiteRecorder_RecordAndFlush(t *testing.T) {
	path := "harq_recording_test"
	defer os.Remove(path + ".sqlite3")

	r := recording.NewSQLiteRecorder(path)

	r.RecordEvent(recording.Event{
		ID:        "evt-1",
		EntityID:  "entity-1",
		Kind:      string(recording.EventAck),
		ProcessID: 3,
		TB:        0,
		Ack:       true,
	})

	r.Flush()

	db, err := sql.Open("sqlite3", path+".sqlite3")
	require.NoError(t, err)
	defer db.Close()

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM harq_events").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, r.Close())
}

func TestSQLiteRecorder_FlushIsNoOpWhenEmpty(t *testing.T) {
	path := "harq_recording_empty_test"
	defer os.Remove(path + ".sqlite3")

	r := recording.NewSQLiteRecorder(path)
	assert.NotPanics(t, func() { r.Flush() })
	require.NoError(t, r.Close())
}
