// cmd/xpsctl/ports.go
package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"motion-service/internal/protocol"
)

var (
	cmdPorts = &cobra.Command{
		Use:   "ports",
		Short: "List configured ports and host serial ports",
		Long:  ``,
		Args:  cobra.NoArgs,
		RunE:  runPorts,
	}
)

func init() {
	rootCmd.AddCommand(cmdPorts)
}

func runPorts(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Configured ports:")
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	io := protocol.NewSyncIO(cfg.Protocol, nil)
	for _, name := range io.Ports() {
		ep, _ := io.Endpoint(name)
		fmt.Fprintf(w, "  %s\t%s\t%s\n", name, ep.Type, protocol.EndpointTarget(ep))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	serialPorts, err := protocol.ListSerialPorts()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "Serial ports:")
	w = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, p := range serialPorts {
		usb := ""
		if p.IsUSB {
			usb = fmt.Sprintf("usb %s:%s %s", p.VendorID, p.ProductID, p.Product)
		}
		fmt.Fprintf(w, "  %s\t%s\n", p.Name, usb)
	}
	return w.Flush()
}
