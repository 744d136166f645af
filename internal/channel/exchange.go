// internal/channel/exchange.go
package channel

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Result describes one command exchange, including resends
type Result struct {
	Channel  int           `json:"channel"`
	Port     string        `json:"port,omitempty"`
	Command  string        `json:"command"`
	Reply    Reply         `json:"reply"`
	Status   int           `json:"status"`
	Attempts int           `json:"attempts"`
	Duration time.Duration `json:"duration"`

	// ProbeStatus is the last probe status of a SendOnly
	ProbeStatus int `json:"probe_status,omitempty"`
}

// SendAndReceive sends command and returns the controller's reply.
//
// The controller sometimes answers a previous command or stays confused
// after a one-way write, so the command is resent while the reply status is
// negative or the reply carries fewer values than the command has '*'
// output placeholders, up to MaxRetry attempts.
func (t *Table) SendAndReceive(ctx context.Context, index int, command string) (*Result, error) {
	const op = "send_and_receive"
	start := time.Now()
	result := &Result{Channel: index, Command: command, Status: StatusUnparsed}
	defer func() { result.Duration = time.Since(start) }()

	l, ok := t.acquire(index)
	if !ok {
		t.logger.Error("Invalid channel", zap.String("op", op), zap.Int("channel", index), zap.String("command", command))
		return result.fail(op, StatusInvalidChannel, ErrInvalidChannel)
	}
	defer l.release()
	result.Port = l.port

	if len(command) > t.config.MaxMessageSize {
		t.logger.Error("Command too long",
			zap.Int("channel", index),
			zap.Int("length", len(command)),
			zap.Int("max", t.config.MaxMessageSize),
		)
		return result.fail(op, StatusMessageTooLong, ErrMessageTooLong)
	}

	logger := t.logger.With(zap.Int("channel", index), zap.String("command", command))
	expected := Placeholders(command)
	failures := 0
	var lastErr error

	for result.Status < 0 && result.Attempts < t.config.MaxRetry {
		if err := ctx.Err(); err != nil {
			return result.fail(op, StatusTransportError, fmt.Errorf("%w: %w", ErrTransport, err))
		}
		result.Attempts++

		resp, err := l.link.WriteRead(ctx, []byte(command), t.config.MaxMessageSize, l.timeout)
		if err != nil {
			failures++
			lastErr = err
			logger.Warn("writeRead failed", zap.Int("attempt", result.Attempts), zap.Error(err))
			continue
		}

		reply := Reply(resp.Text())
		result.Reply = reply
		// an unparsable reply keeps the previous status
		status, ok := reply.ScanStatus()
		if !ok {
			status = result.Status
		}

		if status < 0 {
			result.Status = status
			logger.Warn("Controller returned error status, command sent again",
				zap.Int("status", status),
				zap.String("reply", string(reply)),
				zap.Int("attempt", result.Attempts),
				zap.Duration("timeout", l.timeout),
			)
			continue
		}

		if !reply.Expect(expected) {
			result.Status = StatusArgumentMismatch
			logger.Warn("Reply has too few values, command sent again",
				zap.Int("expected", expected),
				zap.String("reply", string(reply)),
				zap.Int("attempt", result.Attempts),
			)
			continue
		}

		result.Status = status
	}

	if result.Status >= 0 {
		logger.Debug("Exchange completed", zap.Int("attempts", result.Attempts), zap.String("reply", string(result.Reply)))
		return result, nil
	}

	if failures == result.Attempts {
		result.Reply = ""
		return result.fail(op, StatusTransportError, fmt.Errorf("%w: %w", ErrTransport, lastErr))
	}

	logger.Error("Controller did not resynchronize",
		zap.Int("status", result.Status),
		zap.Int("attempts", result.Attempts),
		zap.String("reply", string(result.Reply)),
	)
	return result, &Error{
		Op:       op,
		Channel:  index,
		Code:     result.Status,
		Reply:    string(result.Reply),
		Attempts: result.Attempts,
		Err:      ErrRetriesExhausted,
	}
}

// SendOnly writes a command that produces no reply of interest.
//
// A one-way write leaves the controller confused for a while, so after a
// short settle delay it is probed with a harmless query until it answers
// with a non-negative status. A probe status of StatusCommandNotExecuted
// means the command was dropped and it is written again. Once MaxRetry
// probes are spent the write is reported as done with reply "0"; the last
// probe status is kept in ProbeStatus.
func (t *Table) SendOnly(ctx context.Context, index int, command string) (*Result, error) {
	const op = "send_only"
	start := time.Now()
	result := &Result{Channel: index, Command: command, Status: StatusUnparsed}
	defer func() { result.Duration = time.Since(start) }()

	l, ok := t.acquire(index)
	if !ok {
		t.logger.Error("Invalid channel", zap.String("op", op), zap.Int("channel", index), zap.String("command", command))
		return result.fail(op, StatusInvalidChannel, ErrInvalidChannel)
	}
	defer l.release()
	result.Port = l.port

	if len(command) > t.config.MaxMessageSize {
		return result.fail(op, StatusMessageTooLong, ErrMessageTooLong)
	}

	logger := t.logger.With(zap.Int("channel", index), zap.String("command", command))
	probe := []byte(t.config.ProbeCommand)
	rewrite := true

	for {
		if rewrite {
			n, err := l.link.Write(ctx, []byte(command), l.timeout)
			if err != nil || n <= 0 {
				logger.Error("Write failed", zap.Int("bytes_out", n), zap.Error(err))
				return result.fail(op, StatusTransportError, transportErr(err, "nothing written"))
			}
			rewrite = false

			if err := sleepContext(ctx, t.config.SettleDelay); err != nil {
				return result.fail(op, StatusTransportError, fmt.Errorf("%w: %w", ErrTransport, err))
			}
		}

		resp, err := l.link.WriteRead(ctx, probe, t.config.MaxMessageSize, l.timeout)
		if err != nil || resp == nil || resp.BytesIn <= 0 {
			logger.Error("Probe failed", zap.Error(err))
			return result.fail(op, StatusTransportError, transportErr(err, "empty probe reply"))
		}

		result.Attempts++
		if status, ok := Reply(resp.Text()).ScanStatus(); ok {
			result.Status = status
		}

		if result.Status < 0 {
			logger.Warn("Controller still confused after write",
				zap.Int("status", result.Status),
				zap.Int("attempt", result.Attempts),
			)
		}

		if result.Attempts >= t.config.MaxRetry || result.Status >= 0 {
			break
		}
		if result.Status == StatusCommandNotExecuted {
			rewrite = true
		}
	}

	result.ProbeStatus = result.Status
	if result.Status < 0 {
		logger.Warn("Controller still confused after retries, write reported as done",
			zap.Int("probe_status", result.Status),
			zap.Int("attempts", result.Attempts),
		)
	}

	result.Status = StatusOK
	result.Reply = Reply(strconv.Itoa(StatusOK))
	return result, nil
}

// fail records code as the reply and wraps err
func (r *Result) fail(op string, code int, err error) (*Result, error) {
	r.Status = code
	r.Reply = Reply(strconv.Itoa(code))
	return r, &Error{
		Op:       op,
		Channel:  r.Channel,
		Code:     code,
		Reply:    string(r.Reply),
		Attempts: r.Attempts,
		Err:      err,
	}
}

func transportErr(err error, reason string) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrTransport, reason)
	}
	return fmt.Errorf("%w: %w", ErrTransport, err)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
