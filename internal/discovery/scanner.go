// internal/discovery/scanner.go
package discovery

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"motion-service/internal/model"
)

// ControllerScanner finds controllers reachable through one kind of transport
type ControllerScanner interface {
	Scan(ctx context.Context) ([]*DiscoveredController, error)
	GetScannerType() string
	IsAvailable() bool
}

// DiscoveredController is a controller that answered, or a target that
// accepted a connection but gave no usable answer
type DiscoveredController struct {
	ConnectionType model.ConnectionType `json:"connection_type"`
	Port           string               `json:"port,omitempty"`
	Address        string               `json:"address"`
	Addr           int                  `json:"addr,omitempty"`
	Firmware       string               `json:"firmware,omitempty"`
	Reachable      bool                 `json:"reachable"`
	LatencyMs      int64                `json:"latency_ms"`
	Error          string               `json:"error,omitempty"`
	Scanner        string               `json:"scanner"`
}

// ScannerManager manages all controller scanners
type ScannerManager struct {
	mutex    sync.RWMutex
	scanners map[string]ControllerScanner
	logger   *zap.Logger
}

// NewScannerManager creates a new scanner manager
func NewScannerManager(logger *zap.Logger) *ScannerManager {
	return &ScannerManager{
		scanners: make(map[string]ControllerScanner),
		logger:   logger,
	}
}

// RegisterScanner registers a controller scanner
func (sm *ScannerManager) RegisterScanner(scanner ControllerScanner) {
	scannerType := scanner.GetScannerType()

	sm.mutex.Lock()
	sm.scanners[scannerType] = scanner
	sm.mutex.Unlock()

	sm.logger.Info("Scanner registered", zap.String("type", scannerType))
}

// ScanAll runs every available scanner. A failing scanner is logged and skipped.
func (sm *ScannerManager) ScanAll(ctx context.Context) ([]*DiscoveredController, error) {
	var all []*DiscoveredController

	for _, scannerType := range sm.GetAvailableScanners() {
		found, err := sm.ScanByType(ctx, scannerType)
		if err != nil {
			sm.logger.Error("Scanner failed", zap.String("type", scannerType), zap.Error(err))
			continue
		}

		all = append(all, found...)
		sm.logger.Info("Scanner completed",
			zap.String("type", scannerType),
			zap.Int("controllers_found", len(found)),
		)
	}

	return all, ctx.Err()
}

// ScanByType runs one scanner
func (sm *ScannerManager) ScanByType(ctx context.Context, scannerType string) ([]*DiscoveredController, error) {
	sm.mutex.RLock()
	scanner, exists := sm.scanners[scannerType]
	sm.mutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("scanner type not found: %s", scannerType)
	}
	if !scanner.IsAvailable() {
		return nil, fmt.Errorf("scanner not available: %s", scannerType)
	}

	found, err := scanner.Scan(ctx)
	for _, c := range found {
		c.Scanner = scannerType
	}
	return found, err
}

// GetAvailableScanners returns the available scanner types, sorted
func (sm *ScannerManager) GetAvailableScanners() []string {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()

	var available []string
	for scannerType, scanner := range sm.scanners {
		if scanner.IsAvailable() {
			available = append(available, scannerType)
		}
	}
	sort.Strings(available)
	return available
}
