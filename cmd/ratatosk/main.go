// Package main provides the Ratatosk entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rennerdo30/ratatosk/internal/config"
	"github.com/rennerdo30/ratatosk/internal/feed"
	"github.com/rennerdo30/ratatosk/internal/logging"
	"github.com/rennerdo30/ratatosk/internal/updater"
	"github.com/rennerdo30/ratatosk/internal/version"
)

var (
	configFile  string
	manifestURL string
	skipUpdate  bool

	// Config init flags
	initOutput string
	initKind   string
	initForce  bool

	rootCmd = &cobra.Command{
		Use:   "ratatosk",
		Short: "Self-updating agent",
		Long:  `Ratatosk checks an update feed for a newer build of itself, swaps the running binary via a detached helper, and relaunches.`,
		RunE:  run,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "ratatosk.yaml", "config file path")
	rootCmd.Flags().StringVar(&manifestURL, "manifest-url", "", "override the manifest endpoint")
	rootCmd.Flags().BoolVar(&skipUpdate, "no-update", false, "skip the update check")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version.Full())
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultAgentConfig()
			if err := config.LoadAndValidate(configFile, &cfg); err != nil {
				return fmt.Errorf("configuration invalid: %w", err)
			}
			fmt.Println("Configuration is valid")
			return nil
		},
	})

	rootCmd.AddCommand(newCheckCommand())
	rootCmd.AddCommand(newServeCommand())

	// Add config commands
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management commands",
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a sample configuration file",
		Long: `Generate a sample configuration file with sensible defaults.

Use --kind to choose between the agent configuration (update checking)
and the feed configuration (manifest and artifact serving).`,
		RunE: runConfigInit,
	}

	initCmd.Flags().StringVarP(&initOutput, "output", "o", "ratatosk.yaml", "output file path")
	initCmd.Flags().StringVarP(&initKind, "kind", "k", "agent", "config kind (agent or feed)")
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite existing file")

	configCmd.AddCommand(initCmd)
	rootCmd.AddCommand(configCmd)
}

// loadAgentConfig reads the agent configuration, falling back to defaults
// when the default config file does not exist. An explicitly given path
// must exist.
func loadAgentConfig(cmd *cobra.Command) (config.AgentConfig, error) {
	cfg := config.DefaultAgentConfig()

	if _, err := os.Stat(configFile); err != nil {
		if os.IsNotExist(err) && !cmd.InheritedFlags().Changed("config") && !cmd.Flags().Changed("config") {
			return cfg, nil
		}
		return cfg, fmt.Errorf("load config: %w", err)
	}

	if err := config.LoadAndValidate(configFile, &cfg); err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func newCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check if an update is available",
		RunE:  runCheck,
	}
	cmd.Flags().StringVar(&manifestURL, "manifest-url", "", "override the manifest endpoint")
	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadAgentConfig(cmd)
	if err != nil {
		return err
	}

	ucfg := cfg.Update.UpdaterConfig()
	if manifestURL != "" {
		ucfg.ManifestURL = manifestURL
	}

	ctx, cancel := context.WithTimeout(context.Background(), ucfg.RequestTimeout)
	defer cancel()

	d := updater.NewDownloader(ucfg.RequestTimeout, ucfg.Retries)
	m, ok := updater.NewResolver(d).Fetch(ctx, ucfg.ManifestURL)
	if !ok {
		return fmt.Errorf("manifest unavailable at %s", ucfg.ManifestURL)
	}

	if !updater.UpdateAvailable(version.Short(), m.AppVersion) {
		fmt.Printf("Current version %s is up to date.\n", version.Short())
		return nil
	}

	fmt.Printf("Update available!\n")
	fmt.Printf("  Current version: %s\n", version.Short())
	fmt.Printf("  Feed version:    %s\n", m.AppVersion)
	fmt.Printf("  Download:        %s\n", m.UpdateLink)
	fmt.Printf("\nRun 'ratatosk' to apply it.\n")

	return nil
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the update feed server",
		Long:  `Serve the manifest and artifact files agents poll for updates.`,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultFeedConfig()
	if err := config.LoadAndValidate(configFile, &cfg); err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logging.Setup(cfg.Logging); err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer logging.Close()

	s, err := feed.New(cfg.Feed)
	if err != nil {
		return fmt.Errorf("create feed: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logging.Info("Received signal", "signal", sig)
		cancel()
	}()

	return s.Start(ctx)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	var template string
	switch initKind {
	case "agent":
		template = config.DefaultAgentConfigTemplate
	case "feed":
		template = config.DefaultFeedConfigTemplate
	default:
		return fmt.Errorf("kind must be 'agent' or 'feed'")
	}

	if !initForce {
		if _, err := os.Stat(initOutput); err == nil {
			return fmt.Errorf("file %s already exists (use --force to overwrite)", initOutput)
		}
	}

	if err := os.WriteFile(initOutput, []byte(template), 0600); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("Generated %s configuration: %s\n\n", initKind, initOutput)
	fmt.Println("Next steps:")
	fmt.Printf("  1. Review and customize the configuration\n")
	if initKind == "feed" {
		fmt.Printf("  2. Start the feed: ratatosk serve -c %s\n", initOutput)
	} else {
		fmt.Printf("  2. Start the agent: ratatosk -c %s\n", initOutput)
	}

	return nil
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := loadAgentConfig(cmd)
	if err != nil {
		return err
	}

	if err := logging.Setup(cfg.Logging); err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer logging.Close()

	logging.Info("Starting Ratatosk", "version", version.Short())

	if skipUpdate {
		return runApp()
	}

	ucfg := cfg.Update.UpdaterConfig()
	if manifestURL != "" {
		ucfg.ManifestURL = manifestURL
	}

	u, err := updater.New(ucfg, version.Short())
	if err != nil {
		return fmt.Errorf("create updater: %w", err)
	}

	// Report how the previous attempt, if any, turned out.
	if prev := u.ResolvePrevious(); prev != nil {
		if prev.Applied {
			logging.Info("Update applied", "version", prev.Version)
		} else {
			logging.Warn("Previous update did not complete", "version", prev.Version, "started", prev.StartedAt)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	outcome, err := u.CheckAndApply(ctx)
	cancel()

	switch outcome {
	case updater.OutcomeUpdated:
		// Unreachable in production: CheckAndApply exits the process after
		// handing off to the helper. Kept for injected-exit test builds.
		return nil
	case updater.OutcomeFailed:
		// A failed check never blocks the application itself.
		logging.Warn("Update check failed, continuing", "error", err)
	case updater.OutcomeNoUpdate:
		logging.Info("No update available")
	}

	return runApp()
}

// runApp is the application payload that runs once updating is settled.
func runApp() error {
	fmt.Printf("%s\n", version.Full())
	fmt.Println("Ratatosk is running. Press Ctrl+C to exit.")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logging.Info("Received signal", "signal", sig)

	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
