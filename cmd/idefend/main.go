package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/PabloGalante/idefend/internal/bootstrap"
	"github.com/PabloGalante/idefend/internal/config"
	"github.com/PabloGalante/idefend/internal/observability"
)

var (
	verbose bool

	cfg *config.Config
	app *bootstrap.App
)

var rootCmd = &cobra.Command{
	Use:   "idefend",
	Short: "IDefend - know your legal rights",
	Long: `IDefend is a legal-rights assistant.

Pick a category (police, tenants, workers, consumers) and chat with an
assistant about your rights, browse rights-related news, or run the HTTP API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}
		if cmd.Name() == "chat" && !verbose {
			// keep JSON logs off the chat screen
			level = "error"
		}
		observability.Configure(level)

		app, err = bootstrap.Build(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if app != nil {
			app.Close()
		}
		observability.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, "")
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	chatCmd.Flags().StringVarP(&chatCategory, "category", "c", "", "Rights category (police, tenants, workers, consumers)")
	articlesCmd.Flags().StringVarP(&articlesTopic, "topic", "t", "all", "Feed topic (all, police, tenant, worker, consumer)")
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "Port to listen on (defaults to IDEFEND_PORT)")

	rootCmd.AddCommand(chatCmd, categoriesCmd, articlesCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
