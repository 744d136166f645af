// internal/service/channel_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"motion-service/internal/channel"
	"motion-service/internal/config"
	"motion-service/internal/events"
	"motion-service/internal/metrics"
	"motion-service/internal/model"
	"motion-service/internal/repository"
	"motion-service/internal/utils"
)

var (
	ErrChannelNotFound = errors.New("channel not found")
	ErrInvalidTimeout  = errors.New("timeout must be positive")
)

// ChannelService wraps the channel table with journaling, metrics and events
type ChannelService struct {
	table   *channel.Table
	journal repository.ExchangeRepository
	events  events.Publisher
	metrics *metrics.Metrics
	config  *config.Config
	logger  *utils.ServiceLogger
}

// NewChannelService creates a new channel service instance. metrics and
// publisher may be nil.
func NewChannelService(
	table *channel.Table,
	journal repository.ExchangeRepository,
	publisher events.Publisher,
	m *metrics.Metrics,
	config *config.Config,
	logger *zap.Logger,
) *ChannelService {
	return &ChannelService{
		table:   table,
		journal: journal,
		events:  publisher,
		metrics: m,
		config:  config,
		logger:  utils.NewServiceLogger(logger, "channel-service"),
	}
}

// TableConfig converts the channel configuration section
func TableConfig(cfg config.ChannelConfig) channel.Config {
	return channel.Config{
		MaxChannels:         cfg.MaxChannels,
		DefaultTimeout:      cfg.DefaultTimeout,
		MaxRetry:            cfg.MaxRetry,
		MaxMessageSize:      cfg.MaxMessageSize,
		SettleDelay:         cfg.SettleDelay,
		ProbeCommand:        cfg.ProbeCommand,
		HonorConnectTimeout: cfg.HonorConnectTimeout,
	}
}

// Open connects a new channel
func (cs *ChannelService) Open(ctx context.Context, req *OpenChannelRequest) (*model.ChannelInfo, error) {
	st, err := cs.table.Open(ctx, req.Port, req.Addr, time.Duration(req.TimeoutMs)*time.Millisecond)
	cs.observeConnect(req.Port, err == nil)

	if err != nil {
		cs.logger.Error("Failed to open channel",
			zap.String("port", req.Port),
			zap.Int("addr", req.Addr),
			zap.Error(err),
		)
		cs.publish(model.EventConnectFailed, failedIndex(err), "ERROR", model.JSONObject{
			"port":  req.Port,
			"addr":  req.Addr,
			"error": err.Error(),
		})
		return nil, err
	}

	info := toChannelInfo(st)
	utils.NewChannelLogger(cs.logger.Logger, st.Index, req.Port).LogConnection("open", true, nil)
	cs.publish(model.EventChannelOpened, st.Index, "INFO", model.JSONObject{
		"port": req.Port,
		"addr": req.Addr,
	})
	return &info, nil
}

// SetTimeout changes the I/O timeout of an open channel
func (cs *ChannelService) SetTimeout(index int, timeout time.Duration) error {
	if timeout <= 0 {
		return ErrInvalidTimeout
	}
	if !cs.table.Used(index) {
		return ErrChannelNotFound
	}

	cs.table.SetTimeout(index, timeout)
	cs.logger.Info("Channel timeout changed", zap.Int("channel", index), zap.Duration("timeout", timeout))
	cs.publish(model.EventTimeoutChanged, index, "INFO", model.JSONObject{"timeout_ms": timeout.Milliseconds()})
	return nil
}

// Exchange sends a command and waits for its reply, resending while the
// controller answers out of step
func (cs *ChannelService) Exchange(ctx context.Context, index int, command string) (*ExchangeResponse, error) {
	result, err := cs.table.SendAndReceive(ctx, index, command)
	return cs.record(ctx, model.ExchangeSendAndReceive, result, err), err
}

// Send writes a command without reply and waits for the controller to settle
func (cs *ChannelService) Send(ctx context.Context, index int, command string) (*ExchangeResponse, error) {
	result, err := cs.table.SendOnly(ctx, index, command)
	return cs.record(ctx, model.ExchangeSendOnly, result, err), err
}

// Close disconnects an open channel
func (cs *ChannelService) Close(index int) error {
	info, err := cs.Get(index)
	if err != nil {
		return err
	}

	err = cs.table.Close(index)
	utils.NewChannelLogger(cs.logger.Logger, index, info.Port).LogConnection("close", err == nil, err)
	cs.setChannelsOpen()
	cs.publish(model.EventChannelClosed, index, "INFO", model.JSONObject{"port": info.Port})
	return err
}

// CloseAll disconnects every open channel and returns how many were open
func (cs *ChannelService) CloseAll() (int, error) {
	open := cs.table.Snapshot()
	err := cs.table.CloseAll()
	cs.setChannelsOpen()

	for _, s := range open {
		cs.publish(model.EventChannelClosed, s.Index, "INFO", model.JSONObject{"port": s.Port})
	}
	if err != nil {
		cs.logger.Warn("Some channels failed to disconnect", zap.Error(err))
	}
	return len(open), err
}

// ResetAll forgets every channel without disconnecting
func (cs *ChannelService) ResetAll() int {
	released := cs.table.ResetAll()
	cs.setChannelsOpen()
	if cs.metrics != nil {
		cs.metrics.ObserveReset()
	}

	cs.logger.Warn("Channel table reset", zap.Int("released", released))
	cs.publish(model.EventChannelsReset, -1, "WARNING", model.JSONObject{"released": released})
	return released
}

// List returns the open channels
func (cs *ChannelService) List() []model.ChannelInfo {
	snapshot := cs.table.Snapshot()
	channels := make([]model.ChannelInfo, 0, len(snapshot))
	for _, s := range snapshot {
		channels = append(channels, toChannelInfo(s))
	}
	return channels
}

// Capacity returns the number of channel slots
func (cs *ChannelService) Capacity() int {
	return cs.table.Capacity()
}

// Get returns one open channel
func (cs *ChannelService) Get(index int) (*model.ChannelInfo, error) {
	for _, s := range cs.table.Snapshot() {
		if s.Index == index {
			info := toChannelInfo(s)
			return &info, nil
		}
	}
	return nil, ErrChannelNotFound
}

// LastError returns the socket error text recorded on a slot, open or not
func (cs *ChannelService) LastError(index int) (string, error) {
	if index < 0 || index >= cs.table.Capacity() {
		return "", ErrChannelNotFound
	}
	return cs.table.LastError(index), nil
}

// History returns the journaled exchanges of a channel, newest first
func (cs *ChannelService) History(ctx context.Context, index, limit int) ([]*model.Exchange, error) {
	exchanges, err := cs.journal.ListByChannel(ctx, index, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get channel history: %w", err)
	}
	return exchanges, nil
}

// Recent returns the journaled exchanges of all channels, newest first
func (cs *ChannelService) Recent(ctx context.Context, limit int) ([]*model.Exchange, error) {
	exchanges, err := cs.journal.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list exchanges: %w", err)
	}
	return exchanges, nil
}

// Stats summarizes journaled exchanges
func (cs *ChannelService) Stats(ctx context.Context, filter *repository.ExchangeStatsFilter) (*repository.ExchangeStats, error) {
	stats, err := cs.journal.GetExchangeStats(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get exchange stats: %w", err)
	}
	return stats, nil
}

// Cleanup removes journaled exchanges older than the retention period
func (cs *ChannelService) Cleanup(ctx context.Context) (int64, error) {
	retention := cs.config.Journal.Retention
	if retention <= 0 {
		return 0, nil
	}

	deleted, err := cs.journal.DeleteOlderThan(ctx, time.Now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("failed to clean up journal: %w", err)
	}
	if deleted > 0 {
		cs.logger.Info("Journal cleaned up", zap.Int64("deleted", deleted), zap.Duration("retention", retention))
	}
	return deleted, nil
}

// RunCleanup calls Cleanup every interval until ctx is done
func (cs *ChannelService) RunCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := cs.Cleanup(ctx); err != nil {
				cs.logger.Error("Journal cleanup failed", zap.Error(err))
			}
		}
	}
}

// record journals a finished exchange and reports it
func (cs *ChannelService) record(ctx context.Context, operation model.ExchangeOperation, result *channel.Result, err error) *ExchangeResponse {
	resp := &ExchangeResponse{
		ID:          uuid.New(),
		Channel:     result.Channel,
		Port:        result.Port,
		Operation:   operation,
		Command:     result.Command,
		Reply:       string(result.Reply),
		Status:      result.Status,
		ProbeStatus: result.ProbeStatus,
		Attempts:    result.Attempts,
		DurationMs:  result.Duration.Milliseconds(),
	}
	if err == nil && operation == model.ExchangeSendAndReceive {
		resp.Values = result.Reply.Values()
	}
	if err != nil {
		resp.Error = err.Error()
	}

	utils.NewChannelLogger(cs.logger.Logger, result.Channel, result.Port).
		LogExchange(string(operation), result.Command, resp.Reply, result.Attempts, result.Duration, err)

	// requests rejected before reaching the controller are not journaled
	if errors.Is(err, channel.ErrInvalidChannel) || errors.Is(err, channel.ErrMessageTooLong) {
		return resp
	}

	if cs.metrics != nil {
		cs.metrics.ObserveExchange(string(operation), result.Status, result.Attempts, result.Duration)
	}

	exchange := &model.Exchange{
		ID:         resp.ID,
		Channel:    resp.Channel,
		Port:       resp.Port,
		Operation:  operation,
		Command:    resp.Command,
		Reply:      resp.Reply,
		Values:     model.JSONArray{},
		Status:     resp.Status,
		Attempts:   resp.Attempts,
		DurationMs: int(resp.DurationMs),
		CreatedAt:  time.Now(),
	}
	for _, v := range resp.Values {
		exchange.Values = append(exchange.Values, v)
	}
	if err != nil {
		msg := err.Error()
		exchange.Error = &msg
	}
	if jerr := cs.journal.Create(context.WithoutCancel(ctx), exchange); jerr != nil {
		cs.logger.Warn("Failed to journal exchange", zap.Int("channel", result.Channel), zap.Error(jerr))
	}

	eventType, severity := model.EventExchangeComplete, "INFO"
	if err != nil {
		eventType, severity = model.EventExchangeFailed, "ERROR"
	}
	data := model.JSONObject{
		"exchange_id": resp.ID.String(),
		"operation":   string(operation),
		"command":     resp.Command,
		"reply":       resp.Reply,
		"status":      resp.Status,
		"attempts":    resp.Attempts,
	}
	if resp.ProbeStatus < 0 {
		data["probe_status"] = resp.ProbeStatus
		severity = "WARNING"
	}
	cs.publish(eventType, result.Channel, severity, data)
	return resp
}

func (cs *ChannelService) observeConnect(port string, ok bool) {
	if cs.metrics != nil {
		cs.metrics.ObserveConnect(port, ok)
	}
	cs.setChannelsOpen()
}

func (cs *ChannelService) setChannelsOpen() {
	if cs.metrics != nil {
		cs.metrics.SetChannelsOpen(len(cs.table.Snapshot()))
	}
}

func (cs *ChannelService) publish(eventType model.EventType, index int, severity string, data model.JSONObject) {
	if cs.events == nil {
		return
	}
	cs.events.Publish(model.NewChannelEvent(eventType, index, severity, data))
}

func toChannelInfo(s channel.Status) model.ChannelInfo {
	return model.ChannelInfo{
		Index:     s.Index,
		Port:      s.Port,
		Addr:      s.Addr,
		TimeoutMs: s.Timeout.Milliseconds(),
		ErrorCode: s.ErrorCode,
		LastError: channel.ErrorText(s.ErrorCode),
		OpenedAt:  s.OpenedAt,
	}
}

func failedIndex(err error) int {
	var chErr *channel.Error
	if errors.As(err, &chErr) {
		return chErr.Channel
	}
	return -1
}
