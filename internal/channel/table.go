// internal/channel/table.go
package channel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"motion-service/pkg/octet"
)

// slot is one entry of the handle table
type slot struct {
	// exchange serializes command exchanges on the slot
	exchange sync.Mutex

	used     bool
	reserved bool
	link     octet.Link
	timeout  time.Duration
	errCode  int
	port     string
	addr     int
	openedAt time.Time
}

// Status is a read-only view of a used slot
type Status struct {
	Index     int           `json:"index"`
	Port      string        `json:"port"`
	Addr      int           `json:"addr"`
	Timeout   time.Duration `json:"timeout"`
	ErrorCode int           `json:"error_code"`
	OpenedAt  time.Time     `json:"opened_at"`
}

// Table maps small integer handles to links opened through a SyncIO.
// It does not coordinate work across channels; exchanges on the same
// channel run one at a time.
type Table struct {
	config Config
	io     octet.SyncIO
	logger *zap.Logger

	mutex sync.Mutex
	slots []*slot
}

// NewTable creates an empty table on top of io
func NewTable(io octet.SyncIO, config Config, logger *zap.Logger) *Table {
	if logger == nil {
		logger = zap.NewNop()
	}
	config = config.withDefaults()

	slots := make([]*slot, config.MaxChannels)
	for i := range slots {
		slots[i] = &slot{timeout: config.DefaultTimeout}
	}

	return &Table{
		config: config,
		io:     io,
		logger: logger.With(zap.String("component", "channel-table")),
		slots:  slots,
	}
}

// Config returns the effective table configuration
func (t *Table) Config() Config {
	return t.config
}

// Capacity returns the number of slots
func (t *Table) Capacity() int {
	return len(t.slots)
}

// Connect opens a link to port/addr in the lowest free slot and returns its index.
// The requested timeout is ignored unless HonorConnectTimeout is set.
func (t *Table) Connect(ctx context.Context, port string, addr int, timeout time.Duration) (int, error) {
	st, err := t.Open(ctx, port, addr, timeout)
	if err != nil {
		return -1, err
	}
	return st.Index, nil
}

// Open is Connect returning the state of the new channel as it was set up
func (t *Table) Open(ctx context.Context, port string, addr int, timeout time.Duration) (Status, error) {
	t.mutex.Lock()
	index := -1
	for i, s := range t.slots {
		if !s.used && !s.reserved {
			index = i
			break
		}
	}
	if index < 0 {
		t.mutex.Unlock()
		t.logger.Warn("Channel table full", zap.String("port", port), zap.Int("capacity", len(t.slots)))
		return Status{Index: -1}, &Error{Op: "connect", Channel: -1, Code: CodeConnRefused, Err: ErrTableFull}
	}
	s := t.slots[index]
	s.reserved = true
	s.errCode = CodeNone
	t.mutex.Unlock()

	link, err := t.io.Connect(ctx, port, addr)

	t.mutex.Lock()
	defer t.mutex.Unlock()
	s.reserved = false

	if err != nil {
		s.errCode = CodeCreateSocketFailed
		t.logger.Error("Channel connect failed",
			zap.Int("channel", index),
			zap.String("port", port),
			zap.Int("addr", addr),
			zap.Error(err),
		)
		return Status{Index: -1}, &Error{Op: "connect", Channel: index, Code: CodeCreateSocketFailed, Err: fmt.Errorf("%w: %w", ErrTransport, err)}
	}

	s.used = true
	s.link = link
	s.port = port
	s.addr = addr
	s.openedAt = time.Now()
	s.timeout = t.config.DefaultTimeout
	if t.config.HonorConnectTimeout && timeout > 0 {
		s.timeout = timeout
	}

	t.logger.Info("Channel connected",
		zap.Int("channel", index),
		zap.String("port", port),
		zap.Int("addr", addr),
		zap.Duration("timeout", s.timeout),
	)
	return t.status(index, s), nil
}

// SetTimeout changes the I/O timeout of a used channel. Invalid channels and
// non-positive timeouts are ignored.
func (t *Table) SetTimeout(index int, timeout time.Duration) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	s := t.usedSlot(index)
	if s == nil || timeout <= 0 {
		return
	}
	s.timeout = timeout
}

// Timeout returns the current timeout of a used channel
func (t *Table) Timeout(index int) (time.Duration, bool) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	s := t.usedSlot(index)
	if s == nil {
		return 0, false
	}
	return s.timeout, true
}

// Used reports whether index refers to an open channel
func (t *Table) Used(index int) bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.usedSlot(index) != nil
}

// Close disconnects a used channel and frees its slot. Invalid channels are ignored.
func (t *Table) Close(index int) error {
	if index < 0 || index >= len(t.slots) {
		return nil
	}
	s := t.slots[index]

	s.exchange.Lock()
	defer s.exchange.Unlock()

	t.mutex.Lock()
	if !s.used {
		t.mutex.Unlock()
		return nil
	}
	link := s.link
	port := s.port
	t.release(s)
	t.mutex.Unlock()

	if err := link.Disconnect(); err != nil {
		t.logger.Warn("Channel disconnect failed", zap.Int("channel", index), zap.Error(err))
		return fmt.Errorf("failed to disconnect channel %d: %w", index, err)
	}

	t.logger.Info("Channel closed", zap.Int("channel", index), zap.String("port", port))
	return nil
}

// CloseAll closes every used channel and returns the combined disconnect errors
func (t *Table) CloseAll() error {
	var err error
	for i := range t.slots {
		err = multierr.Append(err, t.Close(i))
	}
	return err
}

// ResetAll marks every slot free without disconnecting. Used after the
// controller rebooted and every handle went stale.
func (t *Table) ResetAll() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	count := 0
	for _, s := range t.slots {
		if s.used {
			s.used = false
			s.link = nil
			count++
		}
	}

	t.logger.Info("Channel table reset", zap.Int("released", count))
	return count
}

// LastError returns the message for the socket error recorded on a slot.
// Free slots answer too, so a failed Connect can be explained afterwards.
func (t *Table) LastError(index int) string {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if index < 0 || index >= len(t.slots) {
		return ""
	}
	return ErrorText(t.slots[index].errCode)
}

// Snapshot lists the used slots in index order
func (t *Table) Snapshot() []Status {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	var out []Status
	for i, s := range t.slots {
		if !s.used {
			continue
		}
		out = append(out, t.status(i, s))
	}
	return out
}

// status copies slot state. Caller holds t.mutex.
func (t *Table) status(index int, s *slot) Status {
	return Status{
		Index:     index,
		Port:      s.port,
		Addr:      s.addr,
		Timeout:   s.timeout,
		ErrorCode: s.errCode,
		OpenedAt:  s.openedAt,
	}
}

// usedSlot returns the slot at index if it is open. Caller holds t.mutex.
func (t *Table) usedSlot(index int) *slot {
	if index < 0 || index >= len(t.slots) {
		return nil
	}
	s := t.slots[index]
	if !s.used {
		return nil
	}
	return s
}

// release resets a slot to its free state. Caller holds t.mutex.
func (t *Table) release(s *slot) {
	s.used = false
	s.link = nil
	s.timeout = t.config.DefaultTimeout
	s.errCode = CodeNone
}

// lease is a checked-out channel for the duration of one exchange
type lease struct {
	slot    *slot
	link    octet.Link
	timeout time.Duration
	port    string
}

// acquire locks the channel for an exchange. The returned lease must be released.
func (t *Table) acquire(index int) (*lease, bool) {
	if index < 0 || index >= len(t.slots) {
		return nil, false
	}
	s := t.slots[index]
	s.exchange.Lock()

	t.mutex.Lock()
	defer t.mutex.Unlock()
	if !s.used {
		s.exchange.Unlock()
		return nil, false
	}
	return &lease{slot: s, link: s.link, timeout: s.timeout, port: s.port}, true
}

func (l *lease) release() {
	l.slot.exchange.Unlock()
}
