// internal/service/channel_service_test.go
package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"motion-service/internal/channel"
	"motion-service/internal/config"
	"motion-service/internal/metrics"
	"motion-service/internal/model"
	"motion-service/internal/repository"
	"motion-service/pkg/octet"
)

type scriptedLink struct {
	mu      sync.Mutex
	replies []string
	written []string
}

func (l *scriptedLink) Write(_ context.Context, data []byte, _ time.Duration) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.written = append(l.written, string(data))
	return len(data), nil
}

func (l *scriptedLink) WriteRead(_ context.Context, data []byte, _ int, _ time.Duration) (*octet.Response, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.written = append(l.written, string(data))
	if len(l.replies) == 0 {
		return nil, errors.New("timeout")
	}
	reply := l.replies[0]
	l.replies = l.replies[1:]
	return &octet.Response{Data: []byte(reply), BytesOut: len(data), BytesIn: len(reply), EOM: octet.EOMEOS}, nil
}

func (l *scriptedLink) Disconnect() error { return nil }

type scriptedIO struct {
	link *scriptedLink
	err  error
}

func (s *scriptedIO) Connect(context.Context, string, int) (octet.Link, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.link, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.ChannelEvent
}

func (p *recordingPublisher) Publish(e model.ChannelEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []model.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []model.EventType
	for _, e := range p.events {
		out = append(out, e.EventType)
	}
	return out
}

type fixture struct {
	svc     *ChannelService
	link    *scriptedLink
	io      *scriptedIO
	journal repository.ExchangeRepository
	events  *recordingPublisher
	metrics *metrics.Metrics
}

func newFixture(t *testing.T, replies ...string) *fixture {
	t.Helper()
	link := &scriptedLink{replies: replies}
	io := &scriptedIO{link: link}
	cfg := &config.Config{Journal: config.JournalConfig{Retention: time.Hour}}
	table := channel.NewTable(io, channel.Config{MaxChannels: 4, MaxRetry: 3}, zap.NewNop())

	f := &fixture{
		link:    link,
		io:      io,
		journal: repository.NewMemoryExchangeRepository(100),
		events:  &recordingPublisher{},
		metrics: metrics.New(),
	}
	f.svc = NewChannelService(table, f.journal, f.events, f.metrics, cfg, zap.NewNop())
	return f
}

func (f *fixture) open(t *testing.T) int {
	t.Helper()
	info, err := f.svc.Open(context.Background(), &OpenChannelRequest{Port: "xps1", Addr: 5001})
	require.NoError(t, err)
	return info.Index
}

func TestChannelServiceOpenAndClose(t *testing.T) {
	assert := assert.New(t)
	f := newFixture(t)

	info, err := f.svc.Open(context.Background(), &OpenChannelRequest{Port: "xps1", Addr: 5001, TimeoutMs: 5000})
	require.NoError(t, err)
	assert.Equal(0, info.Index)
	assert.Equal("xps1", info.Port)
	assert.EqualValues(channel.DefaultTimeout.Milliseconds(), info.TimeoutMs)
	assert.Len(f.svc.List(), 1)

	require.NoError(t, f.svc.Close(info.Index))
	assert.Empty(f.svc.List())
	assert.ErrorIs(f.svc.Close(info.Index), ErrChannelNotFound)

	assert.Equal([]model.EventType{model.EventChannelOpened, model.EventChannelClosed}, f.events.types())
}

func TestChannelServiceOpenFailure(t *testing.T) {
	f := newFixture(t)
	f.io.err = errors.New("connection refused")

	_, err := f.svc.Open(context.Background(), &OpenChannelRequest{Port: "xps1", Addr: 5001})
	require.Error(t, err)
	assert.ErrorIs(t, err, channel.ErrTransport)

	text, err := f.svc.LastError(0)
	require.NoError(t, err)
	assert.Equal(t, "Create Socket failed.", text)
	assert.Equal(t, []model.EventType{model.EventConnectFailed}, f.events.types())
	require.Len(t, f.events.events, 1)
	assert.Equal(t, 0, f.events.events[0].Channel)
}

func TestChannelServiceExchange(t *testing.T) {
	t.Run("resent reply is journaled", func(t *testing.T) {
		assert := assert.New(t)
		f := newFixture(t, "-1", "0,12.5,3")
		index := f.open(t)

		resp, err := f.svc.Exchange(context.Background(), index, "GroupPositionCurrentGet(G1,double *,double *)")
		require.NoError(t, err)
		assert.Equal("0,12.5,3", resp.Reply)
		assert.Equal([]string{"12.5", "3"}, resp.Values)
		assert.Equal(2, resp.Attempts)
		assert.Equal(0, resp.Status)

		history, err := f.svc.History(context.Background(), index, 10)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(resp.ID, history[0].ID)
		assert.Equal(model.JSONArray{"12.5", "3"}, history[0].Values)
		assert.True(history[0].Resent())
		assert.Nil(history[0].Error)

		count, err := testutil.GatherAndCount(f.metrics.Registry(), "motion_exchange_resends_total")
		require.NoError(t, err)
		assert.Equal(1, count)
		assert.Contains(f.events.types(), model.EventExchangeComplete)
	})

	t.Run("exhausted retries are journaled with error", func(t *testing.T) {
		f := newFixture(t, "-17", "-17", "-17")
		index := f.open(t)

		resp, err := f.svc.Exchange(context.Background(), index, "GroupHomeSearch(G1)")
		require.Error(t, err)
		assert.ErrorIs(t, err, channel.ErrRetriesExhausted)
		assert.Equal(t, -17, resp.Status)
		assert.NotEmpty(t, resp.Error)

		history, err := f.svc.History(context.Background(), index, 10)
		require.NoError(t, err)
		require.Len(t, history, 1)
		require.NotNil(t, history[0].Error)
		assert.False(t, history[0].Succeeded())
		assert.Contains(t, f.events.types(), model.EventExchangeFailed)
	})

	t.Run("invalid channel is not journaled", func(t *testing.T) {
		f := newFixture(t)

		resp, err := f.svc.Exchange(context.Background(), 3, "FirmwareVersionGet(char *)")
		require.Error(t, err)
		assert.ErrorIs(t, err, channel.ErrInvalidChannel)
		assert.Equal(t, "-22", resp.Reply)

		recent, err := f.svc.Recent(context.Background(), 10)
		require.NoError(t, err)
		assert.Empty(t, recent)
	})
}

func TestChannelServiceSend(t *testing.T) {
	f := newFixture(t, "0,XPS-C8")
	index := f.open(t)

	resp, err := f.svc.Send(context.Background(), index, "GroupMoveAbsolute(G1.P1,10)")
	require.NoError(t, err)
	assert.Equal(t, "0", resp.Reply)
	assert.Empty(t, resp.Values)
	assert.Equal(t, []string{"GroupMoveAbsolute(G1.P1,10)", channel.ProbeCommand}, f.link.written)

	stats, err := f.svc.Stats(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ByOperation[model.ExchangeSendOnly])
}

func TestChannelServiceSendStillConfused(t *testing.T) {
	f := newFixture(t, "-1", "-1", "-1")
	index := f.open(t)

	resp, err := f.svc.Send(context.Background(), index, "GroupMoveAbsolute(G1.P1,10)")
	require.NoError(t, err)
	assert.Equal(t, "0", resp.Reply)
	assert.Equal(t, -1, resp.ProbeStatus)
	assert.Equal(t, 3, resp.Attempts)

	history, err := f.svc.History(context.Background(), index, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "0", history[0].Reply)
	assert.Nil(t, history[0].Error)

	last := f.events.events[len(f.events.events)-1]
	assert.Equal(t, model.EventExchangeComplete, last.EventType)
	assert.Equal(t, "WARNING", last.Severity)
	assert.Equal(t, -1, last.Data["probe_status"])
}

func TestChannelServiceTimeout(t *testing.T) {
	f := newFixture(t)
	index := f.open(t)

	assert.ErrorIs(t, f.svc.SetTimeout(index, 0), ErrInvalidTimeout)
	assert.ErrorIs(t, f.svc.SetTimeout(2, time.Second), ErrChannelNotFound)

	require.NoError(t, f.svc.SetTimeout(index, 2*time.Second))
	info, err := f.svc.Get(index)
	require.NoError(t, err)
	assert.EqualValues(t, 2000, info.TimeoutMs)
}

func TestChannelServiceCloseAllAndReset(t *testing.T) {
	f := newFixture(t)
	f.open(t)
	f.open(t)

	closed, err := f.svc.CloseAll()
	require.NoError(t, err)
	assert.Equal(t, 2, closed)
	assert.Empty(t, f.svc.List())

	f.open(t)
	assert.Equal(t, 1, f.svc.ResetAll())
	assert.Empty(t, f.svc.List())
	assert.Contains(t, f.events.types(), model.EventChannelsReset)

	_, err = f.svc.LastError(99)
	assert.ErrorIs(t, err, ErrChannelNotFound)
}

func TestChannelServiceCleanup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	old := &model.Exchange{Channel: 0, Operation: model.ExchangeSendOnly, CreatedAt: time.Now().Add(-2 * time.Hour)}
	fresh := &model.Exchange{Channel: 0, Operation: model.ExchangeSendOnly, CreatedAt: time.Now()}
	require.NoError(t, f.journal.Create(ctx, old))
	require.NoError(t, f.journal.Create(ctx, fresh))

	deleted, err := f.svc.Cleanup(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)
}

func TestTableConfig(t *testing.T) {
	cfg := TableConfig(config.ChannelConfig{MaxChannels: 7, MaxRetry: 2, ProbeCommand: "x", HonorConnectTimeout: true})
	assert.Equal(t, 7, cfg.MaxChannels)
	assert.Equal(t, 2, cfg.MaxRetry)
	assert.Equal(t, "x", cfg.ProbeCommand)
	assert.True(t, cfg.HonorConnectTimeout)
}
