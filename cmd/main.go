package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/okian/spraycam/internal/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCommand().ExecuteContext(ctx); err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

// flags are the command line overrides shared by every subcommand.
type flags struct {
	configPath string
	addr       string
	demo       bool
	logLevel   string
}

// rootCommand builds the spraycam CLI. Running it without a subcommand is the
// same as "spraycam run".
func rootCommand() *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:           "spraycam",
		Short:         "Camera triggered cat deterrent",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCommandE(cmd, f)
		},
	}
	root.PersistentFlags().StringVar(&f.configPath, "config", os.Getenv(config.EnvPrefix+"CONFIG"), "Path to a YAML config file")
	root.PersistentFlags().StringVar(&f.addr, "addr", "", "HTTP listen address (overrides config)")
	root.PersistentFlags().BoolVar(&f.demo, "demo", false, "Use the mock actuator instead of GPIO")
	root.PersistentFlags().StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	root.AddCommand(runCommand(f), eventsCommand(f))
	return root
}

// loadConfig layers the command line flags over the loaded configuration.
func loadConfig(ctx context.Context, f *flags) (*config.Config, error) {
	cfg, err := config.LoadFrom(ctx, f.configPath)
	if err != nil {
		return nil, err
	}
	if f.addr != "" {
		cfg.Addr = f.addr
	}
	if f.demo {
		cfg.DemoMode = true
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	return cfg, cfg.Validate()
}
