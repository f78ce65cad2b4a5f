package event

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type panickySink struct{}

func (panickySink) Record(Event) { panic("boom") }

func TestSafeRecord(t *testing.T) {
	t.Run("nil sink is ignored", func(t *testing.T) {
		assert.NotPanics(t, func() { SafeRecord(nil, Event{}) })
	})

	t.Run("panicking sink is contained", func(t *testing.T) {
		assert.NotPanics(t, func() { SafeRecord(panickySink{}, Event{Kind: KindTool}) })
	})

	t.Run("stamps time", func(t *testing.T) {
		r := NewRecorder()
		SafeRecord(r, Event{Kind: KindFetch})
		require.Len(t, r.Events(), 1)
		assert.False(t, r.Events()[0].Time.IsZero())
	})
}

func TestMulti(t *testing.T) {
	a, b := NewRecorder(), NewRecorder()
	m := Multi{a, panickySink{}, b}

	m.Record(Event{Kind: KindLocate, Name: "org.junit.jupiter"})

	assert.Len(t, a.Events(), 1)
	assert.Len(t, b.Events(), 1)
}

func TestRecorder_Concurrent(t *testing.T) {
	r := NewRecorder()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Record(Event{Kind: KindTool})
			r.Record(Event{Kind: KindFetch})
		}()
	}
	wg.Wait()

	assert.Len(t, r.Events(), 100)
	assert.Len(t, r.OfKind(KindTool), 50)
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	sink := NewLogSink(logger)

	sink.Record(Event{Kind: KindTool, Name: "javac", Outcome: OutcomeFailed, ExitCode: 1, Duration: time.Second})

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "name=javac")
	assert.Contains(t, out, "exit_code=1")
	assert.Contains(t, out, "duration=1s")
}

func TestPayload(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	p := payload(Event{Kind: KindTool, Name: "jar", Outcome: OutcomeOK, Detail: "jar --create", Duration: 1500 * time.Millisecond, Time: ts})

	assert.Equal(t, map[string]any{
		"kind":        "tool",
		"name":        "jar",
		"outcome":     "ok",
		"detail":      "jar --create",
		"exit_code":   0,
		"duration_ms": int64(1500),
		"time":        "2024-03-01T12:00:00Z",
	}, p)
}

func TestSocketSink_ClosedDropsEvents(t *testing.T) {
	s := &SocketSink{}
	require.NoError(t, s.Close())
	assert.NotPanics(t, func() { s.Record(Event{Kind: KindTool}) })
	require.NoError(t, s.Close())
}
