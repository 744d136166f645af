// cmd/xpsctl/discover.go
package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"motion-service/internal/protocol"
	"motion-service/internal/service"
)

var (
	cmdDiscover = &cobra.Command{
		Use:   "discover",
		Short: "Probe configured ports and network ranges for controllers",
		Long:  ``,
		Args:  cobra.NoArgs,
		RunE:  runDiscover,
	}
)

var discoverType string
var discoverRanges []string

func init() {
	rootCmd.AddCommand(cmdDiscover)
	cmdDiscover.Flags().StringVarP(&discoverType, "type", "T", service.ScanAll, "Scanner type: all, configured, tcp")
	cmdDiscover.Flags().StringSliceVarP(&discoverRanges, "range", "r", nil, "Network ranges to sweep, overriding the configuration")
}

func runDiscover(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	if len(discoverRanges) > 0 {
		cfg.Discovery.NetworkRanges = discoverRanges
	}

	io := protocol.NewSyncIO(cfg.Protocol, logger)
	ds := service.NewDiscoveryService(nil, logger, service.DefaultScanners(cfg, io, io, logger)...)

	found, err := ds.Scan(cmd.Context(), discoverType)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SCANNER\tPORT\tADDRESS\tLATENCY\tFIRMWARE / ERROR")
	for _, c := range found {
		detail := c.Firmware
		if !c.Reachable {
			detail = c.Error
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%dms\t%s\n", c.Scanner, c.Port, c.Address, c.LatencyMs, detail)
	}
	return w.Flush()
}
