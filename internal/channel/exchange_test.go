// internal/channel/exchange_test.go
package channel

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const positionGet = "GroupPositionCurrentGet(XY,double *,double *)"

func openChannel(t *testing.T, link *fakeLink) (*Table, int) {
	t.Helper()
	tbl := newTestTable(&fakeIO{links: []*fakeLink{link}})
	idx, err := tbl.Connect(context.Background(), "XPS1", 5001, 0)
	require.NoError(t, err)
	return tbl, idx
}

func TestSendAndReceive(t *testing.T) {
	ctx := context.Background()

	t.Run("first reply accepted", func(t *testing.T) {
		assert := assert.New(t)
		link := newFakeLink(step{reply: "0,1.25,-3.5"})
		tbl, idx := openChannel(t, link)

		res, err := tbl.SendAndReceive(ctx, idx, positionGet)
		require.NoError(t, err)
		assert.Equal(Reply("0,1.25,-3.5"), res.Reply)
		assert.Equal(0, res.Status)
		assert.Equal(1, res.Attempts)
		assert.Equal("XPS1", res.Port)
		assert.Equal([]string{positionGet}, link.writeReads)
		assert.Equal([]time.Duration{DefaultTimeout}, link.timeouts)
	})

	t.Run("negative status is resent", func(t *testing.T) {
		assert := assert.New(t)
		link := newFakeLink(step{reply: "-3"}, step{reply: "-108"}, step{reply: "0,1,2"})
		tbl, idx := openChannel(t, link)

		res, err := tbl.SendAndReceive(ctx, idx, positionGet)
		require.NoError(t, err)
		assert.Equal(3, res.Attempts)
		assert.Equal(Reply("0,1,2"), res.Reply)
		assert.Len(link.writeReads, 3)
	})

	t.Run("stale reply with too few values is resent", func(t *testing.T) {
		assert := assert.New(t)
		link := newFakeLink(step{reply: "0"}, step{reply: "0,4.5"}, step{reply: "0,4.5,6.5"})
		tbl, idx := openChannel(t, link)

		res, err := tbl.SendAndReceive(ctx, idx, positionGet)
		require.NoError(t, err)
		assert.Equal(3, res.Attempts)
		assert.Equal(Reply("0,4.5,6.5"), res.Reply)
	})

	t.Run("command without placeholders accepts bare status", func(t *testing.T) {
		link := newFakeLink(step{reply: "0"})
		tbl, idx := openChannel(t, link)

		res, err := tbl.SendAndReceive(ctx, idx, "GroupMoveAbort(XY)")
		require.NoError(t, err)
		assert.Equal(t, 1, res.Attempts)
	})

	t.Run("transport failures count as attempts", func(t *testing.T) {
		assert := assert.New(t)
		link := newFakeLink(step{err: errors.New("timeout")}, step{reply: "0,1,2"})
		tbl, idx := openChannel(t, link)

		res, err := tbl.SendAndReceive(ctx, idx, positionGet)
		require.NoError(t, err)
		assert.Equal(2, res.Attempts)
	})

	t.Run("retries exhausted keeps last reply", func(t *testing.T) {
		assert := assert.New(t)
		link := newFakeLink(
			step{reply: "-1"}, step{reply: "-1"}, step{reply: "-1"}, step{reply: "-1"}, step{reply: "-17"},
			step{reply: "0,1,2"},
		)
		tbl, idx := openChannel(t, link)

		res, err := tbl.SendAndReceive(ctx, idx, positionGet)
		assert.ErrorIs(err, ErrRetriesExhausted)
		assert.Equal(-17, Code(err))
		assert.Equal(MaxRetry, res.Attempts)
		assert.Equal(Reply("-17"), res.Reply)
		assert.Len(link.writeReads, MaxRetry)

		var chErr *Error
		require.True(t, errors.As(err, &chErr))
		assert.Equal("send_and_receive", chErr.Op)
		assert.Equal(MaxRetry, chErr.Attempts)
	})

	t.Run("unparsable reply keeps previous status", func(t *testing.T) {
		link := newFakeLink(step{reply: "-17"}, step{reply: "junk"}, step{reply: "junk"}, step{reply: "junk"}, step{reply: "junk"})
		tbl, idx := openChannel(t, link)

		res, err := tbl.SendAndReceive(ctx, idx, positionGet)
		assert.ErrorIs(t, err, ErrRetriesExhausted)
		assert.Equal(t, -17, res.Status)
		assert.Equal(t, Reply("junk"), res.Reply)
		assert.Len(t, link.writeReads, MaxRetry)
	})

	t.Run("mismatch exhausted reports -98", func(t *testing.T) {
		link := newFakeLink(step{reply: "0"}, step{reply: "0"}, step{reply: "0"}, step{reply: "0"}, step{reply: "0"})
		tbl, idx := openChannel(t, link)

		res, err := tbl.SendAndReceive(ctx, idx, positionGet)
		assert.ErrorIs(t, err, ErrRetriesExhausted)
		assert.Equal(t, StatusArgumentMismatch, res.Status)
		assert.Equal(t, Reply("0"), res.Reply)
	})

	t.Run("every attempt failing is a transport error", func(t *testing.T) {
		assert := assert.New(t)
		link := newFakeLink()
		tbl, idx := openChannel(t, link)

		res, err := tbl.SendAndReceive(ctx, idx, positionGet)
		assert.ErrorIs(err, ErrTransport)
		assert.Equal(StatusTransportError, Code(err))
		assert.Equal(Reply("-72"), res.Reply)
		assert.Equal(MaxRetry, res.Attempts)
	})

	t.Run("invalid channel", func(t *testing.T) {
		tbl := newTestTable(&fakeIO{})
		for _, idx := range []int{-1, 0, 3, 50} {
			res, err := tbl.SendAndReceive(ctx, idx, positionGet)
			assert.ErrorIs(t, err, ErrInvalidChannel)
			assert.Equal(t, Reply("-22"), res.Reply)
			assert.Equal(t, StatusInvalidChannel, Code(err))
		}
	})

	t.Run("command too long", func(t *testing.T) {
		link := newFakeLink(step{reply: "0"})
		tbl, idx := openChannel(t, link)

		res, err := tbl.SendAndReceive(ctx, idx, strings.Repeat("x", MaxMessageSize+1))
		assert.ErrorIs(t, err, ErrMessageTooLong)
		assert.Equal(t, Reply("-3"), res.Reply)
		assert.Empty(t, link.writeReads)

		_, err = tbl.SendAndReceive(ctx, idx, strings.Repeat("x", MaxMessageSize))
		assert.NoError(t, err)
	})

	t.Run("uses channel timeout", func(t *testing.T) {
		link := newFakeLink(step{reply: "0"})
		tbl, idx := openChannel(t, link)
		tbl.SetTimeout(idx, 750*time.Millisecond)

		_, err := tbl.SendAndReceive(ctx, idx, "GroupKill(XY)")
		require.NoError(t, err)
		assert.Equal(t, []time.Duration{750 * time.Millisecond}, link.timeouts)
	})

	t.Run("cancelled context stops resending", func(t *testing.T) {
		link := newFakeLink(step{reply: "-1"}, step{reply: "-1"})
		tbl, idx := openChannel(t, link)

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := tbl.SendAndReceive(cctx, idx, positionGet)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, link.writeReads)
	})
}

func TestSendOnly(t *testing.T) {
	ctx := context.Background()
	const move = "GroupMoveAbsolute(XY,10,20)"

	t.Run("probe answers cleanly", func(t *testing.T) {
		assert := assert.New(t)
		link := newFakeLink(step{reply: "0,XPS-C8 Firmware V2.6.x"})
		tbl, idx := openChannel(t, link)

		res, err := tbl.SendOnly(ctx, idx, move)
		require.NoError(t, err)
		assert.Equal(Reply("0"), res.Reply)
		assert.Equal(1, res.Attempts)
		assert.Equal([]string{move}, link.writes)
		assert.Equal([]string{ProbeCommand}, link.writeReads)
	})

	t.Run("confused controller is probed again", func(t *testing.T) {
		assert := assert.New(t)
		link := newFakeLink(step{reply: "-1"}, step{reply: "-17"}, step{reply: "0,v"})
		tbl, idx := openChannel(t, link)

		res, err := tbl.SendOnly(ctx, idx, move)
		require.NoError(t, err)
		assert.Equal(3, res.Attempts)
		assert.Len(link.writes, 1)
		assert.Len(link.writeReads, 3)
	})

	t.Run("command not executed is written again", func(t *testing.T) {
		assert := assert.New(t)
		link := newFakeLink(step{reply: "-3"}, step{reply: "-3"}, step{reply: "0,v"})
		tbl, idx := openChannel(t, link)

		_, err := tbl.SendOnly(ctx, idx, move)
		require.NoError(t, err)
		assert.Equal([]string{move, move, move}, link.writes)
		assert.Len(link.writeReads, 3)
	})

	t.Run("still confused after retries", func(t *testing.T) {
		assert := assert.New(t)
		link := newFakeLink(step{reply: "-1"}, step{reply: "-1"}, step{reply: "-1"}, step{reply: "-1"}, step{reply: "-3"})
		tbl, idx := openChannel(t, link)

		res, err := tbl.SendOnly(ctx, idx, move)
		require.NoError(t, err)
		assert.Equal(Reply("0"), res.Reply)
		assert.Equal(StatusOK, res.Status)
		assert.Equal(StatusCommandNotExecuted, res.ProbeStatus)
		assert.Equal(MaxRetry, res.Attempts)
		assert.Len(link.writes, 1)
		assert.Len(link.writeReads, MaxRetry)
	})

	t.Run("unparsable probe keeps previous status", func(t *testing.T) {
		assert := assert.New(t)
		link := newFakeLink(step{reply: "-3"}, step{reply: "XPS busy"}, step{reply: "0,v"})
		tbl, idx := openChannel(t, link)

		res, err := tbl.SendOnly(ctx, idx, move)
		require.NoError(t, err)
		assert.Equal([]string{move, move, move}, link.writes)
		assert.Equal(3, res.Attempts)
		assert.Equal(0, res.ProbeStatus)
	})

	t.Run("write failure", func(t *testing.T) {
		link := newFakeLink()
		link.writeErr = errors.New("connection reset")
		tbl, idx := openChannel(t, link)

		res, err := tbl.SendOnly(ctx, idx, move)
		assert.ErrorIs(t, err, ErrTransport)
		assert.Equal(t, Reply("-72"), res.Reply)
		assert.Empty(t, link.writeReads)
	})

	t.Run("zero bytes written", func(t *testing.T) {
		link := newFakeLink()
		link.writeN = 0
		tbl, idx := openChannel(t, link)

		_, err := tbl.SendOnly(ctx, idx, move)
		assert.ErrorIs(t, err, ErrTransport)
		assert.Equal(t, StatusTransportError, Code(err))
	})

	t.Run("probe failure", func(t *testing.T) {
		link := newFakeLink(step{err: errors.New("timeout")})
		tbl, idx := openChannel(t, link)

		_, err := tbl.SendOnly(ctx, idx, move)
		assert.ErrorIs(t, err, ErrTransport)
	})

	t.Run("empty probe reply", func(t *testing.T) {
		link := newFakeLink(step{reply: ""})
		tbl, idx := openChannel(t, link)

		_, err := tbl.SendOnly(ctx, idx, move)
		assert.ErrorIs(t, err, ErrTransport)
	})

	t.Run("invalid channel and long command", func(t *testing.T) {
		link := newFakeLink()
		tbl, idx := openChannel(t, link)

		res, err := tbl.SendOnly(ctx, 2, move)
		assert.ErrorIs(t, err, ErrInvalidChannel)
		assert.Equal(t, Reply("-22"), res.Reply)

		res, err = tbl.SendOnly(ctx, idx, strings.Repeat("y", MaxMessageSize+1))
		assert.ErrorIs(t, err, ErrMessageTooLong)
		assert.Equal(t, Reply("-3"), res.Reply)
		assert.Empty(t, link.writes)
	})
}
