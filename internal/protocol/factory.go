// internal/protocol/factory.go
package protocol

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"motion-service/internal/config"
	"motion-service/internal/model"
)

const (
	defaultConnectTimeout = 5 * time.Second
	defaultBaudRate       = 9600
	defaultDataBits       = 8
	defaultStopBits       = 1
	defaultUSBEndpoint    = 1
	defaultSerialTimeout  = 200 * time.Millisecond
)

// CreateProtocol creates the transport for a configured endpoint. For TCP
// endpoints without a port, addr is used as the TCP port.
func CreateProtocol(ep config.EndpointConfig, addr int, logger *zap.Logger) (DeviceProtocol, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch ep.Type {
	case config.EndpointTCP:
		return createTCPProtocol(ep, addr, logger)
	case config.EndpointSerial:
		return createSerialProtocol(ep, logger)
	case config.EndpointUSB:
		return createUSBProtocol(ep, logger)
	default:
		return nil, fmt.Errorf("unsupported protocol type: %q", ep.Type)
	}
}

// createTCPProtocol creates a TCP protocol
func createTCPProtocol(ep config.EndpointConfig, addr int, logger *zap.Logger) (DeviceProtocol, error) {
	if ep.Host == "" {
		return nil, fmt.Errorf("TCP host is required")
	}

	tcpConfig := &TCPConfig{
		Host:           ep.Host,
		Port:           ep.Port,
		SSL:            ep.SSL,
		KeepAlive:      ep.KeepAlive,
		ConnectTimeout: ep.ConnectTimeout,
	}
	if tcpConfig.Port == 0 {
		tcpConfig.Port = addr
	}
	if tcpConfig.Port <= 0 || tcpConfig.Port > 65535 {
		return nil, fmt.Errorf("invalid TCP port: %d", tcpConfig.Port)
	}
	if tcpConfig.ConnectTimeout <= 0 {
		tcpConfig.ConnectTimeout = defaultConnectTimeout
	}

	return NewTCPConnection(tcpConfig, logger), nil
}

// createSerialProtocol creates a serial protocol
func createSerialProtocol(ep config.EndpointConfig, logger *zap.Logger) (DeviceProtocol, error) {
	if ep.Device == "" {
		return nil, fmt.Errorf("serial device is required")
	}

	serialConfig := &SerialConfig{
		Port:     ep.Device,
		BaudRate: defaultBaudRate,
		DataBits: defaultDataBits,
		StopBits: defaultStopBits,
		Parity:   "none",
		Timeout:  defaultSerialTimeout,
	}
	if ep.BaudRate > 0 {
		serialConfig.BaudRate = ep.BaudRate
	}
	if ep.DataBits > 0 {
		serialConfig.DataBits = ep.DataBits
	}
	if ep.StopBits > 0 {
		serialConfig.StopBits = ep.StopBits
	}
	if ep.Parity != "" {
		serialConfig.Parity = ep.Parity
	}

	return NewSerialConnection(serialConfig, logger), nil
}

// createUSBProtocol creates a USB protocol
func createUSBProtocol(ep config.EndpointConfig, logger *zap.Logger) (DeviceProtocol, error) {
	if ep.VendorID == "" || ep.ProductID == "" {
		return nil, fmt.Errorf("USB vendor_id and product_id are required")
	}

	usbConfig := &USBConfig{
		VendorID:  ep.VendorID,
		ProductID: ep.ProductID,
		Interface: ep.Interface,
		Endpoint:  ep.Endpoint,
	}
	if usbConfig.Endpoint == 0 {
		usbConfig.Endpoint = defaultUSBEndpoint
	}

	return NewUSBConnection(usbConfig, logger), nil
}

// ConnectionTypeOf maps an endpoint type to its connection type
func ConnectionTypeOf(endpointType string) model.ConnectionType {
	switch endpointType {
	case config.EndpointSerial:
		return model.ConnectionTypeSerial
	case config.EndpointUSB:
		return model.ConnectionTypeUSB
	default:
		return model.ConnectionTypeTCP
	}
}

// EndpointTarget renders where an endpoint points, for listings
func EndpointTarget(ep config.EndpointConfig) string {
	switch ep.Type {
	case config.EndpointSerial:
		return ep.Device
	case config.EndpointUSB:
		return ep.VendorID + ":" + ep.ProductID
	}
	if ep.Port == 0 {
		return ep.Host
	}
	return fmt.Sprintf("%s:%d", ep.Host, ep.Port)
}
