// cmd/xpsctl/send.go
package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	cmdSend = &cobra.Command{
		Use:   "send <command>",
		Short: "Write a command without reading its reply",
		Long:  ``,
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSend,
	}
)

var sendPort string
var sendAddr int
var sendTimeout time.Duration

func init() {
	rootCmd.AddCommand(cmdSend)
	cmdSend.Flags().StringVarP(&sendPort, "port", "p", "xps", "Configured port name")
	cmdSend.Flags().IntVarP(&sendAddr, "addr", "a", 0, "Device address (TCP port when the port has none)")
	cmdSend.Flags().DurationVarP(&sendTimeout, "timeout", "t", 0, "I/O timeout, 0 for the configured default")
}

func runSend(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := openSession(ctx, sendPort, sendAddr, sendTimeout)
	if err != nil {
		return err
	}
	defer s.close()

	result, err := s.table.SendOnly(ctx, s.index, strings.Join(args, " "))
	if err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), string(result.Reply))
		return fmt.Errorf("send failed after %d probes: %w", result.Attempts, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "ok (%d probes, %s)\n", result.Attempts, result.Duration.Round(time.Millisecond))
	return nil
}
