// internal/channel/fake_test.go
package channel

import (
	"context"
	"errors"
	"sync"
	"time"

	"motion-service/pkg/octet"
)

// step is one scripted WriteRead outcome
type step struct {
	reply string
	err   error
}

type fakeLink struct {
	mu sync.Mutex

	script   []step
	writeN   int
	writeErr error

	writes        []string
	writeReads    []string
	timeouts      []time.Duration
	disconnects   int
	disconnectErr error
}

func newFakeLink(script ...step) *fakeLink {
	return &fakeLink{script: script, writeN: -1}
}

func (f *fakeLink) Write(_ context.Context, data []byte, timeout time.Duration) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.writes = append(f.writes, string(data))
	f.timeouts = append(f.timeouts, timeout)
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	if f.writeN >= 0 {
		return f.writeN, nil
	}
	return len(data), nil
}

func (f *fakeLink) WriteRead(_ context.Context, data []byte, _ int, timeout time.Duration) (*octet.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.writeReads = append(f.writeReads, string(data))
	f.timeouts = append(f.timeouts, timeout)
	if len(f.script) == 0 {
		return nil, errors.New("script exhausted")
	}
	s := f.script[0]
	f.script = f.script[1:]
	if s.err != nil {
		return nil, s.err
	}
	return &octet.Response{
		Data:     []byte(s.reply),
		BytesOut: len(data),
		BytesIn:  len(s.reply),
		EOM:      octet.EOMEOS,
	}, nil
}

func (f *fakeLink) Disconnect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
	return f.disconnectErr
}

type fakeIO struct {
	mu       sync.Mutex
	links    []*fakeLink
	err      error
	connects []string
}

func (f *fakeIO) Connect(_ context.Context, port string, _ int) (octet.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.connects = append(f.connects, port)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.links) == 0 {
		return newFakeLink(), nil
	}
	l := f.links[0]
	f.links = f.links[1:]
	return l, nil
}

func newTestTable(io octet.SyncIO) *Table {
	return NewTable(io, Config{MaxChannels: 3}, nil)
}
