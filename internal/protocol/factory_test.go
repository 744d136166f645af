// internal/protocol/factory_test.go
package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motion-service/internal/config"
	"motion-service/internal/model"
)

func TestCreateProtocol(t *testing.T) {
	t.Run("tcp uses addr when port is unset", func(t *testing.T) {
		proto, err := CreateProtocol(config.EndpointConfig{Type: config.EndpointTCP, Host: "10.0.0.1"}, 5001, nil)
		require.NoError(t, err)

		tcp, ok := proto.(*TCPConnection)
		require.True(t, ok)
		assert.Equal(t, 5001, tcp.config.Port)
		assert.Equal(t, defaultConnectTimeout, tcp.config.ConnectTimeout)
		assert.Equal(t, model.ConnectionTypeTCP, proto.GetProtocolType())
	})

	t.Run("tcp configured port wins", func(t *testing.T) {
		proto, err := CreateProtocol(config.EndpointConfig{Type: config.EndpointTCP, Host: "10.0.0.1", Port: 5002}, 5001, nil)
		require.NoError(t, err)
		assert.Equal(t, 5002, proto.(*TCPConnection).config.Port)
	})

	t.Run("tcp without port", func(t *testing.T) {
		_, err := CreateProtocol(config.EndpointConfig{Type: config.EndpointTCP, Host: "10.0.0.1"}, 0, nil)
		assert.Error(t, err)
	})

	t.Run("serial defaults", func(t *testing.T) {
		proto, err := CreateProtocol(config.EndpointConfig{Type: config.EndpointSerial, Device: "/dev/ttyS0", BaudRate: 115200}, 0, nil)
		require.NoError(t, err)

		sc := proto.(*SerialConnection)
		assert.Equal(t, 115200, sc.config.BaudRate)
		assert.Equal(t, 8, sc.config.DataBits)
		assert.Equal(t, "none", sc.config.Parity)
	})

	t.Run("usb requires ids", func(t *testing.T) {
		_, err := CreateProtocol(config.EndpointConfig{Type: config.EndpointUSB, VendorID: "104d"}, 0, nil)
		assert.Error(t, err)

		proto, err := CreateProtocol(config.EndpointConfig{Type: config.EndpointUSB, VendorID: "104d", ProductID: "3001"}, 0, nil)
		require.NoError(t, err)
		assert.Equal(t, model.ConnectionTypeUSB, proto.GetProtocolType())
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := CreateProtocol(config.EndpointConfig{Type: "bluetooth"}, 0, nil)
		assert.Error(t, err)
	})
}

func TestParseHexID(t *testing.T) {
	id, err := parseHexID("0x104D")
	require.NoError(t, err)
	assert.EqualValues(t, 0x104d, id)

	_, err = parseHexID("zz")
	assert.Error(t, err)
}
