// Package cli holds the keywordpulse commands.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"keywordpulse/internal/config"
	"keywordpulse/internal/output"
	"keywordpulse/pkg/logger"
	"keywordpulse/pkg/provider"
)

var version = "dev"

func SetVersion(v string) {
	version = v
}

// app carries what every subcommand needs once the persistent pre-run has loaded config.
type app struct {
	cfgFile string
	debug   bool
	noColor bool

	cfg     *config.Config
	client  *provider.Client
	printer *output.Printer
}

// Execute runs the root command until ctx is cancelled.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "keywordpulse",
		Short: "Keyword volume analysis, image edits and strategy chat",
		Long: `keywordpulse runs grounded keyword analyses, AI image edits and a marketing
strategy chat against a generative AI provider.

Example usage:
  keywordpulse analyze --keyword "cloud security" --location "New York"
  keywordpulse edit --image photo.png --prompt "add a retro filter"
  keywordpulse chat`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: environment and .env only)")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable colored output")

	root.AddCommand(newAnalyzeCommand(a))
	root.AddCommand(newEditCommand(a))
	root.AddCommand(newChatCommand(a))
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.NewManager().Load(a.cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a.cfg = cfg

	logCfg := cfg.LoggerConfig()
	if logCfg.Output == "" || logCfg.Output == "stdout" {
		// stdout belongs to the command output.
		logCfg.Output = "stderr"
	}
	if a.debug {
		logCfg.Level = "debug"
	}
	logger.SetLogger(logger.New(logCfg))

	client, err := provider.NewClient(cfg.ProviderClient())
	if err != nil {
		return fmt.Errorf("creating provider client: %w", err)
	}
	a.client = client
	a.printer = output.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.ResolveColors(!a.noColor))

	logger.WithFields(map[string]interface{}{
		"config":   a.cfgFile,
		"api_key":  logger.MaskSecret(cfg.Provider.APIKey),
		"base_url": cfg.Provider.BaseURL,
	}).Debug("Configuration loaded")
	return nil
}
