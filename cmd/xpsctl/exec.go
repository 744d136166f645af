// cmd/xpsctl/exec.go
package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	cmdExec = &cobra.Command{
		Use:   "exec <command>",
		Short: "Send a command and print the controller's reply",
		Long: `Send a command and print the reply. The command is resent while the
controller answers with an error status or with fewer values than the
command has '*' output arguments.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runExec,
	}
)

var execPort string
var execAddr int
var execTimeout time.Duration
var execFields bool

func init() {
	rootCmd.AddCommand(cmdExec)
	cmdExec.Flags().StringVarP(&execPort, "port", "p", "xps", "Configured port name")
	cmdExec.Flags().IntVarP(&execAddr, "addr", "a", 0, "Device address (TCP port when the port has none)")
	cmdExec.Flags().DurationVarP(&execTimeout, "timeout", "t", 0, "I/O timeout, 0 for the configured default")
	cmdExec.Flags().BoolVarP(&execFields, "fields", "f", false, "Print each reply value on its own line")
}

func runExec(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := openSession(ctx, execPort, execAddr, execTimeout)
	if err != nil {
		return err
	}
	defer s.close()

	result, err := s.table.SendAndReceive(ctx, s.index, strings.Join(args, " "))
	out := cmd.OutOrStdout()

	if execFields && err == nil {
		fmt.Fprintf(out, "status: %d\n", result.Status)
		for i, v := range result.Reply.Fields() {
			fmt.Fprintf(out, "%d: %s\n", i, v)
		}
	} else {
		fmt.Fprintln(out, string(result.Reply))
	}

	if err != nil {
		return fmt.Errorf("exec failed after %d attempts: %w", result.Attempts, err)
	}
	return nil
}
