// internal/service/discovery_service.go
package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"motion-service/internal/channel"
	"motion-service/internal/config"
	"motion-service/internal/discovery"
	"motion-service/internal/discovery/configured"
	"motion-service/internal/discovery/tcp"
	"motion-service/internal/events"
	"motion-service/internal/model"
	"motion-service/internal/utils"
)

// ScanAll runs every available scanner
const ScanAll = "all"

// DiscoveryService finds controllers on configured ports and on the network
type DiscoveryService struct {
	scannerManager *discovery.ScannerManager
	events         events.Publisher
	logger         *utils.ServiceLogger
}

// NewDiscoveryService creates a discovery service over the given scanners
func NewDiscoveryService(publisher events.Publisher, logger *zap.Logger, scanners ...discovery.ControllerScanner) *DiscoveryService {
	ds := &DiscoveryService{
		scannerManager: discovery.NewScannerManager(logger),
		events:         publisher,
		logger:         utils.NewServiceLogger(logger, "discovery-service"),
	}

	for _, s := range scanners {
		ds.scannerManager.RegisterScanner(s)
	}

	ds.logger.Info("Discovery scanners initialized",
		zap.Strings("available_scanners", ds.scannerManager.GetAvailableScanners()),
	)
	return ds
}

// DefaultScanners builds the configured-port and network scanners
func DefaultScanners(cfg *config.Config, ports configured.PortSource, dialer tcp.Dialer, logger *zap.Logger) []discovery.ControllerScanner {
	probe := cfg.Channel.ProbeCommand
	if probe == "" {
		probe = channel.ProbeCommand
	}
	maxReply := cfg.Channel.MaxMessageSize
	if maxReply <= 0 {
		maxReply = channel.MaxMessageSize
	}
	d := cfg.Discovery

	return []discovery.ControllerScanner{
		configured.NewScanner(ports, configured.Config{
			ProbeCommand: probe,
			MaxReply:     maxReply,
			ProbeTimeout: d.ProbeTimeout,
			DefaultAddr:  d.DefaultAddr,
		}, logger),
		tcp.NewScanner(dialer, tcp.Config{
			NetworkRanges:  d.NetworkRanges,
			Ports:          d.Ports,
			ConnectTimeout: d.ConnectTimeout,
			ProbeTimeout:   d.ProbeTimeout,
			ScanTimeout:    d.ScanTimeout,
			Concurrency:    d.Concurrency,
			MaxHosts:       d.MaxHosts,
			ProbeCommand:   probe,
			MaxReply:       maxReply,
		}, logger),
	}
}

// Scan runs one scanner type, or all of them for ScanAll
func (ds *DiscoveryService) Scan(ctx context.Context, scanType string) ([]*discovery.DiscoveredController, error) {
	if scanType == "" {
		scanType = ScanAll
	}
	op := utils.NewOperationLogger(ds.logger.Logger, "scan", uuid.New().String())
	op.Start(zap.String("scan_type", scanType))

	var (
		found []*discovery.DiscoveredController
		err   error
	)
	if scanType == ScanAll {
		found, err = ds.scannerManager.ScanAll(ctx)
	} else {
		found, err = ds.scannerManager.ScanByType(ctx, scanType)
	}
	if err != nil {
		op.Error(err, zap.Int("targets", len(found)))
		return found, fmt.Errorf("scan failed: %w", err)
	}

	reachable := 0
	for _, c := range found {
		if c.Reachable {
			reachable++
		}
	}

	op.Success(
		zap.Int("targets", len(found)),
		zap.Int("reachable", reachable),
	)

	if ds.events != nil {
		ds.events.Publish(model.NewChannelEvent(model.EventScanCompleted, -1, "INFO", model.JSONObject{
			"scan_type": scanType,
			"targets":   len(found),
			"reachable": reachable,
		}))
	}

	return found, nil
}

// AvailableScanners returns the scanner types that can run
func (ds *DiscoveryService) AvailableScanners() []string {
	return ds.scannerManager.GetAvailableScanners()
}
