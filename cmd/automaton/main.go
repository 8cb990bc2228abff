package main

import (
	"os"

	"github.com/appleton-labs/automaton/internal/cli"
	"github.com/appleton-labs/automaton/internal/config"
	"github.com/appleton-labs/automaton/internal/httpserver"
	"github.com/appleton-labs/automaton/internal/logging"
	"github.com/appleton-labs/automaton/internal/orchestrator"
	"github.com/appleton-labs/automaton/internal/otel"
	"github.com/appleton-labs/automaton/internal/workflow"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func main() {
	rootCmd := cli.NewRootCommand()

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the automation server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			startServer(configPath)
			return nil
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func startServer(configPath string) {
	app := fx.New(
		config.Module(configPath),
		logging.Module(),
		otel.Module("automaton"),
		workflow.Module(),
		orchestrator.Module(),
		httpserver.Module(),
	)

	app.Run()
}
