package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"leadplan/engine/internal/appdirs"
	"leadplan/engine/internal/envfile"
	"leadplan/engine/internal/envutil"
	"leadplan/engine/internal/logging"
	"leadplan/engine/internal/secrets"
	"leadplan/engine/internal/settings"
)

const version = "0.1.0"

type globalOptions struct {
	debug   bool
	dataDir string
}

var globals globalOptions

// session is the per-process state shared by every command.
type session struct {
	dataDir  string
	logger   *slog.Logger
	settings *settings.Store
	secrets  *secrets.Store
	closers  []func() error
}

var current *session

var rootCmd = &cobra.Command{
	Use:           "leadplan",
	Short:         "Generate lead generation plans",
	Long:          "leadplan turns a business profile into a lead generation plan, using OpenAI when a key is configured and an offline builder otherwise.",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		s, err := openSession(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		current = s
		return nil
	},
	PersistentPostRunE: func(*cobra.Command, []string) error {
		if current == nil {
			return nil
		}
		return current.close()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&globals.debug, "debug", false, "Enable debug logging (also LEADPLAN_DEBUG)")
	rootCmd.PersistentFlags().StringVar(&globals.dataDir, "data-dir", "", "Data directory (default: LEADPLAN_DATA_DIR or the user config dir)")
	rootCmd.AddCommand(serveCmd, stdioCmd, generateCmd, diffCmd, keyCmd)
}

// Execute runs the root command until it finishes or the process is signaled.
func Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return rootCmd.ExecuteContext(ctx)
}

func openSession(stderr io.Writer) (*session, error) {
	envResult := envfile.Load()
	debug := globals.debug || envutil.Bool("LEADPLAN_DEBUG")

	dataDir := strings.TrimSpace(globals.dataDir)
	if dataDir == "" {
		dir, err := appdirs.DataDir()
		if err != nil {
			return nil, fmt.Errorf("resolve data dir: %w", err)
		}
		dataDir = dir
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	s := &session{
		dataDir:  dataDir,
		settings: settings.NewStore(appdirs.SettingsPath(dataDir)),
		secrets:  secrets.NewStore(appdirs.SecretsPath(dataDir), appdirs.MasterKeyPath(dataDir)),
	}
	logger := logging.NewConsoleLogger(stderr, debug)
	fileLog, logErr := logging.NewFileLogger(dataDir, debug)
	if fileLog.Enabled {
		logger = slog.New(fanout{logger.Handler(), fileLog.Logger.Handler()})
		s.closers = append(s.closers, fileLog.Close)
	}
	s.logger = logger.With("component", "leadplan")
	if fileLog.Enabled {
		s.logger.Debug("leadplan.logging_enabled", "path", fileLog.Path)
	}
	if logErr != nil {
		s.logger.Warn("leadplan.log_setup_failed", "error", logErr.Error())
	}
	if envResult.Loaded {
		s.logger.Debug("leadplan.env_loaded", "path", envResult.Path, "keys", envResult.Keys)
	}
	if envResult.Err != nil {
		s.logger.Warn("leadplan.env_load_failed", "path", envResult.Path, "error", envResult.Err.Error())
	}
	return s, nil
}

func (s *session) close() error {
	var first error
	for _, fn := range s.closers {
		if err := fn(); err != nil && first == nil {
			first = err
		}
	}
	s.closers = nil
	return first
}
