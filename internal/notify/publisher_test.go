package notify

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/plugflow/internal/testutil"
)

type recordingEmitter struct {
	mu       sync.Mutex
	events   []string
	payloads []map[string]any
}

func (r *recordingEmitter) Emit(event string, payload map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event+" "+payload["plug"].(string))
	r.payloads = append(r.payloads, payload)
}

func runPublisher(t *testing.T, p *Publisher) (stop func()) {
	t.Helper()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.Run(context.Background())
	}()
	return func() {
		p.Close()
		wg.Wait()
	}
}

func TestPublisher_RelaysGraphNotifications(t *testing.T) {
	a := testutil.NewCountingNode("a")
	b := testutil.NewCountingNode("b")
	g := testutil.NewGraph(t, a, b)
	rec := &recordingEmitter{}
	p := NewPublisher(rec, 0)
	unsubscribe := p.Attach(g)
	stop := runPublisher(t, p)

	testutil.Connect(t, g, b.In, a.Out)
	testutil.Set(t, g, a.In, 2.0)
	unsubscribe()
	testutil.Set(t, g, a.In, 3.0)
	stop()

	assert.Contains(t, rec.events, "plug_input_changed b.in")
	assert.Contains(t, rec.events, "plug_set a.in")
	assert.Contains(t, rec.events, "plug_dirtied b.out")
	assert.Zero(t, p.Dropped())

	for i, payload := range rec.payloads {
		assert.Equal(t, uint64(i+1), payload["seq"])
		assert.Equal(t, "counting", payload["node_type"])
		if rec.events[i] == "plug_input_changed b.in" {
			assert.Equal(t, "a.out", payload["input"])
		}
	}
	count := len(rec.events)
	testutil.Set(t, g, a.In, 4.0)
	assert.Len(t, rec.events, count)
}

func TestPublisher_DropsWhenQueueFull(t *testing.T) {
	a := testutil.NewCountingNode("a")
	g := testutil.NewGraph(t, a)
	rec := &recordingEmitter{}
	p := NewPublisher(rec, 1)
	p.Attach(g)

	testutil.Set(t, g, a.In, 1.0)
	assert.Positive(t, p.Dropped())

	stop := runPublisher(t, p)
	stop()
	require.Len(t, rec.events, 1)
	assert.Equal(t, "plug_set a.in", rec.events[0])
}

func TestPublisher_RunStopsWithContext(t *testing.T) {
	p := NewPublisher(&recordingEmitter{}, 0)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()
	cancel()
	<-done
}

func TestDial_RejectsBadURL(t *testing.T) {
	tests := []string{"not a url", "/relative/path", "://missing-scheme"}
	for _, u := range tests {
		_, err := Dial(context.Background(), u, SocketOptions{})
		assert.Error(t, err, u)
	}
}
