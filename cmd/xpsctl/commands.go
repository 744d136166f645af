// cmd/xpsctl/commands.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"motion-service/internal/channel"
	"motion-service/internal/config"
	"motion-service/internal/protocol"
	"motion-service/internal/service"
)

var (
	rootCmd = &cobra.Command{
		Use:           "xpsctl",
		Short:         "Talk to XPS motion controllers through the channel table.",
		Long:          ``,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
)

var configDir string
var verbose bool

func init() {
	rootCmd.PersistentFlags().StringVarP(&configDir, "config", "c", "", "Directory holding config.yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log exchanges to stderr")
}

// Execute runs the root command, cancelled on interrupt
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func loadConfig() (*config.Config, error) {
	if configDir == "" {
		return config.Load()
	}
	return config.Load(configDir)
}

func newLogger() (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	return zap.NewDevelopment()
}

// session is one channel opened for the lifetime of a command
type session struct {
	table   *channel.Table
	index   int
	logger  *zap.Logger
	timeout time.Duration
}

func openSession(ctx context.Context, port string, addr int, timeout time.Duration) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	io := protocol.NewSyncIO(cfg.Protocol, logger)
	table := channel.NewTable(io, service.TableConfig(cfg.Channel), logger)

	index, err := table.Connect(ctx, port, addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", port, err)
	}
	if timeout > 0 {
		table.SetTimeout(index, timeout)
	}

	return &session{table: table, index: index, logger: logger, timeout: timeout}, nil
}

func (s *session) close() {
	if err := s.table.Close(s.index); err != nil {
		s.logger.Warn("Close failed", zap.Error(err))
	}
	_ = s.logger.Sync()
}
