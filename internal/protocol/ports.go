// internal/protocol/ports.go
package protocol

import (
	"fmt"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// SerialPortInfo describes a serial port present on the host
type SerialPortInfo struct {
	Name         string `json:"name"`
	IsUSB        bool   `json:"is_usb"`
	VendorID     string `json:"vendor_id,omitempty"`
	ProductID    string `json:"product_id,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`
	Product      string `json:"product,omitempty"`
}

// ListSerialPorts enumerates serial ports with USB details when available
func ListSerialPorts() ([]SerialPortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err == nil {
		ports := make([]SerialPortInfo, 0, len(details))
		for _, d := range details {
			ports = append(ports, SerialPortInfo{
				Name:         d.Name,
				IsUSB:        d.IsUSB,
				VendorID:     d.VID,
				ProductID:    d.PID,
				SerialNumber: d.SerialNumber,
				Product:      d.Product,
			})
		}
		return ports, nil
	}

	names, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	ports := make([]SerialPortInfo, 0, len(names))
	for _, name := range names {
		ports = append(ports, SerialPortInfo{Name: name})
	}
	return ports, nil
}
