// Package cli defines the automaton command tree. The serve command is wired
// in main; everything else here runs one-shot against the configured store.
package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/appleton-labs/automaton/internal/config"
	"github.com/appleton-labs/automaton/internal/logging"
	"github.com/appleton-labs/automaton/internal/upload"
	"github.com/appleton-labs/automaton/internal/workflow"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "automaton",
		Short:         "Workflow automation engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("config", "config.yaml", "Path to config file")
	cmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")

	cmd.AddCommand(newWorkflowCommand())
	cmd.AddCommand(newExecutionCommand())
	cmd.AddCommand(newUploadCommand())
	cmd.AddCommand(newTaskCommand())
	return cmd
}

// setup loads config and builds a logger for a one-shot command.
func setup(cmd *cobra.Command) (config.Config, *zap.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, err
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.Logging.Level = "debug"
	}
	logger, err := logging.New(cfg)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, logger, nil
}

func buildService(cmd *cobra.Command) (*workflow.Service, *zap.Logger, error) {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return nil, nil, err
	}
	store, err := workflow.NewStore(cfg)
	if err != nil {
		return nil, logger, err
	}
	svc, err := workflow.Build(cfg, store, logger)
	return svc, logger, err
}

func newWorkflowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflow",
		Short: "Manage and run workflow definitions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "run <file>",
		Short: "Execute a workflow definition file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, logger, err := buildService(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			exec, err := svc.ExecuteFile(cmd.Context(), args[0])
			if err != nil && exec == nil {
				return err
			}
			printJSON(exec)
			if exec.OverallStatus != workflow.StatusSucceeded {
				return fmt.Errorf("workflow finished %s", exec.OverallStatus)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored workflow definitions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := buildService(cmd)
			if err != nil {
				return err
			}
			defs, err := svc.ListDefinitions()
			if err != nil {
				return err
			}
			for _, def := range defs {
				fmt.Printf("%s\t%s\t%d steps\n", def.ID, def.Name, len(def.Steps))
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate <file>",
		Short: "Parse and validate a definition without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			def, err := workflow.ParseDefinition(data)
			if err != nil {
				return err
			}
			if err := workflow.ValidateDefinition(def); err != nil {
				return err
			}
			if _, err := workflow.Resolve(def); err != nil {
				return err
			}
			fmt.Printf("%s: ok (%d steps)\n", def.Name, len(def.Steps))
			return nil
		},
	})

	return cmd
}

func newExecutionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "execution",
		Short: "Inspect execution records",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show one execution record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := buildService(cmd)
			if err != nil {
				return err
			}
			exec, err := svc.GetExecution(args[0])
			if err != nil {
				return err
			}
			printJSON(exec)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list <workflow-id>",
		Short: "List executions of a workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := buildService(cmd)
			if err != nil {
				return err
			}
			execs, err := svc.ListExecutions(args[0])
			if err != nil {
				return err
			}
			for _, exec := range execs {
				fmt.Printf("%s\t%s\t%s\n", exec.ExecutionID, exec.OverallStatus, exec.StartedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	})

	return cmd
}

func newUploadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Process files through the upload pipeline",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "process <file>",
		Short: "Run the intake pipeline on a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			info, err := upload.NewManager(cfg.Upload, logger).Process(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printJSON(info)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List processed uploads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			items, err := upload.NewManager(cfg.Upload, logger).List()
			if err != nil {
				return err
			}
			for _, info := range items {
				fmt.Printf("%s\t%s\t%s\n", info.ID, info.Filename, info.Status)
			}
			return nil
		},
	})

	return cmd
}

func newTaskCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Inspect tasks on a running server",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List tasks tracked by the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup(cmd)
			if err != nil {
				return err
			}
			url := fmt.Sprintf("http://%s:%d/v1/tasks", cfg.Server.Host, cfg.Server.Port)
			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, url, nil)
			if err != nil {
				return err
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return fmt.Errorf("is the server running? %w", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("server returned %s", resp.Status)
			}
			var body struct {
				Items []struct {
					ID     string `json:"id"`
					Type   string `json:"type"`
					Status string `json:"status"`
				} `json:"items"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				return err
			}
			for _, task := range body.Items {
				fmt.Printf("%s\t%s\t%s\n", task.ID, task.Type, task.Status)
			}
			return nil
		},
	})

	return cmd
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
