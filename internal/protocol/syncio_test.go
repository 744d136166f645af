// internal/protocol/syncio_test.go
package protocol

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"motion-service/internal/config"
	"motion-service/internal/model"
	"motion-service/pkg/octet"
)

type fakeProtocol struct {
	open     bool
	openErr  error
	writes   [][]byte
	writeErr error
	chunks   [][]byte
	readErr  error
	flushes  int
	closes   int
	deadline bool
}

func (f *fakeProtocol) Open(ctx context.Context) error {
	if f.openErr != nil {
		return f.openErr
	}
	f.open = true
	return nil
}

func (f *fakeProtocol) Close() error {
	f.closes++
	f.open = false
	return nil
}

func (f *fakeProtocol) IsOpen() bool { return f.open }

func (f *fakeProtocol) Write(ctx context.Context, data []byte) (int, error) {
	_, f.deadline = ctx.Deadline()
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	f.writes = append(f.writes, append([]byte(nil), data...))
	return len(data), nil
}

func (f *fakeProtocol) Read(ctx context.Context, maxBytes int) ([]byte, error) {
	if len(f.chunks) == 0 {
		if f.readErr != nil {
			return nil, f.readErr
		}
		return nil, context.DeadlineExceeded
	}
	chunk := f.chunks[0]
	if len(chunk) > maxBytes {
		f.chunks[0] = chunk[maxBytes:]
		return chunk[:maxBytes], nil
	}
	f.chunks = f.chunks[1:]
	return chunk, nil
}

func (f *fakeProtocol) Flush() error {
	f.flushes++
	return nil
}

func (f *fakeProtocol) GetProtocolType() model.ConnectionType { return model.ConnectionTypeTCP }

func (f *fakeProtocol) Stats() ProtocolStats { return ProtocolStats{IsConnected: f.open} }

func newFakeSyncIO(cfg config.ProtocolConfig, proto *fakeProtocol) (*SyncIO, *[]int) {
	var addrs []int
	s := NewSyncIO(cfg, zap.NewNop()).WithFactory(func(ep config.EndpointConfig, addr int, logger *zap.Logger) (DeviceProtocol, error) {
		addrs = append(addrs, addr)
		return proto, nil
	})
	return s, &addrs
}

func xpsConfig() config.ProtocolConfig {
	return config.ProtocolConfig{
		InputEOS: ",EndOfAPI",
		Ports: map[string]config.EndpointConfig{
			"XPS1": {Type: config.EndpointTCP, Host: "192.168.0.254"},
		},
	}
}

func TestSyncIOConnect(t *testing.T) {
	t.Run("port lookup ignores case", func(t *testing.T) {
		proto := &fakeProtocol{}
		s, addrs := newFakeSyncIO(xpsConfig(), proto)

		l, err := s.Connect(context.Background(), "Xps1", 5001)
		require.NoError(t, err)
		require.NotNil(t, l)
		assert.True(t, proto.open)
		assert.Equal(t, []int{5001}, *addrs)
	})

	t.Run("unknown port", func(t *testing.T) {
		s, _ := newFakeSyncIO(xpsConfig(), &fakeProtocol{})

		_, err := s.Connect(context.Background(), "nope", 5001)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not configured")
	})

	t.Run("open failure", func(t *testing.T) {
		s, _ := newFakeSyncIO(xpsConfig(), &fakeProtocol{openErr: errors.New("refused")})

		_, err := s.Connect(context.Background(), "xps1", 5001)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "refused")
	})

	t.Run("registered ports are listed sorted", func(t *testing.T) {
		s, _ := newFakeSyncIO(xpsConfig(), &fakeProtocol{})
		s.Register("AUX", config.EndpointConfig{Type: config.EndpointSerial, Device: "/dev/ttyUSB0"})

		assert.Equal(t, []string{"aux", "xps1"}, s.Ports())
	})
}

func TestLinkWriteRead(t *testing.T) {
	connect := func(t *testing.T, cfg config.ProtocolConfig, proto *fakeProtocol) octet.Link {
		s, _ := newFakeSyncIO(cfg, proto)
		l, err := s.Connect(context.Background(), "xps1", 5001)
		require.NoError(t, err)
		return l
	}

	t.Run("reply split across reads is joined and terminator stripped", func(t *testing.T) {
		assert := assert.New(t)
		proto := &fakeProtocol{chunks: [][]byte{[]byte("0,1.5"), []byte(",2.5,EndOf"), []byte("API")}}
		l := connect(t, xpsConfig(), proto)

		resp, err := l.WriteRead(context.Background(), []byte("GroupPositionCurrentGet(G1,double *,double *)"), 256, 200*time.Millisecond)
		require.NoError(t, err)
		assert.Equal("0,1.5,2.5", resp.Text())
		assert.Equal(octet.EOMEOS, resp.EOM)
		assert.Equal(len("0,1.5,2.5,EndOfAPI"), resp.BytesIn)
		assert.Equal(len("GroupPositionCurrentGet(G1,double *,double *)"), resp.BytesOut)
		assert.Equal(1, proto.flushes)
		assert.True(proto.deadline)
	})

	t.Run("buffer full ends the read", func(t *testing.T) {
		proto := &fakeProtocol{chunks: [][]byte{[]byte("0123456789")}}
		l := connect(t, xpsConfig(), proto)

		resp, err := l.WriteRead(context.Background(), []byte("x"), 4, time.Second)
		require.NoError(t, err)
		assert.Equal(t, "0123", resp.Text())
		assert.Equal(t, octet.EOMCount, resp.EOM)
	})

	t.Run("no terminator configured returns first chunk", func(t *testing.T) {
		cfg := xpsConfig()
		cfg.InputEOS = ""
		proto := &fakeProtocol{chunks: [][]byte{[]byte("0,7")}}
		l := connect(t, cfg, proto)

		resp, err := l.WriteRead(context.Background(), []byte("x"), 256, time.Second)
		require.NoError(t, err)
		assert.Equal(t, "0,7", resp.Text())
		assert.Equal(t, octet.EOMEnd, resp.EOM)
	})

	t.Run("timeout keeps partial data", func(t *testing.T) {
		proto := &fakeProtocol{chunks: [][]byte{[]byte("0,1")}}
		l := connect(t, xpsConfig(), proto)

		resp, err := l.WriteRead(context.Background(), []byte("x"), 256, time.Second)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, "0,1", resp.Text())
	})

	t.Run("write failure", func(t *testing.T) {
		proto := &fakeProtocol{writeErr: errors.New("broken pipe")}
		l := connect(t, xpsConfig(), proto)

		_, err := l.WriteRead(context.Background(), []byte("x"), 256, time.Second)
		require.Error(t, err)
	})

	t.Run("output terminator appended and not counted", func(t *testing.T) {
		eos := "\r\n"
		cfg := xpsConfig()
		ep := cfg.Ports["XPS1"]
		ep.OutputEOS = &eos
		cfg.Ports["XPS1"] = ep
		proto := &fakeProtocol{}
		l := connect(t, cfg, proto)

		n, err := l.Write(context.Background(), []byte("GroupKill(G1)"), time.Second)
		require.NoError(t, err)
		assert.Equal(t, len("GroupKill(G1)"), n)
		require.Len(t, proto.writes, 1)
		assert.Equal(t, "GroupKill(G1)\r\n", string(proto.writes[0]))
	})

	t.Run("disconnect closes transport", func(t *testing.T) {
		proto := &fakeProtocol{}
		l := connect(t, xpsConfig(), proto)

		require.NoError(t, l.Disconnect())
		assert.Equal(t, 1, proto.closes)
		assert.False(t, proto.open)
	})
}
