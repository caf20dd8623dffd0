package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/doeshing/typecopilot/internal/app"
	"github.com/doeshing/typecopilot/internal/domain"
	"github.com/doeshing/typecopilot/internal/infrastructure/cli/helpers"
)

// testPrompt is a short misspelled line used by 'models test'.
const testPrompt = "teh quick brown fox"

// NewModelsCommand creates the models command with all subcommands
func NewModelsCommand(container *app.Container) *cobra.Command {
	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "List and select installed models",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listModels(cmd.Context(), cmd.OutOrStdout(), container)
		},
	}

	modelsCmd.AddCommand(
		newModelsListCommand(container),
		newModelsUseCommand(container),
		newModelsTestCommand(container),
	)

	return modelsCmd
}

// newModelsListCommand creates the 'models list' subcommand
func newModelsListCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List models installed on the service (* marks the active one)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listModels(cmd.Context(), cmd.OutOrStdout(), container)
		},
	}
}

// newModelsUseCommand creates the 'models use' subcommand
func newModelsUseCommand(container *app.Container) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "use <name>",
		Short: "Set the model used for corrections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setDefaultModel(cmd.Context(), cmd.OutOrStdout(), container, args[0], force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Save the model even if the service does not list it")
	return cmd
}

// newModelsTestCommand creates the 'models test' subcommand
func newModelsTestCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "test [name]",
		Short: "Run a fix-mode generation against a model (default: active model)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := container.Session.Model()
			if len(args) == 1 {
				name = args[0]
			}
			return testModel(cmd.Context(), cmd.OutOrStdout(), container, name)
		},
	}
}

// listModels prints installed models in service order
func listModels(ctx context.Context, out io.Writer, container *app.Container) error {
	if container.Registry == nil {
		return errors.Join(errors.New(ErrRegistryUnavailable), container.ClientErr)
	}

	models := container.Registry.ListModels(ctx)
	if len(models) == 0 {
		fmt.Fprintln(out, MsgNoModelsInstalled)
		return nil
	}

	active := container.Session.Model()
	for _, name := range models {
		marker := " "
		if name == active {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %s\n", marker, name)
	}

	if !slices.Contains(models, active) {
		helpers.PrintWarnings(out, []string{fmt.Sprintf("active model %s is not installed", active)})
	}
	return nil
}

// setDefaultModel switches the active model and persists it
func setDefaultModel(ctx context.Context, out io.Writer, container *app.Container, modelName string, force bool) error {
	if !force && container.Registry != nil {
		models := container.Registry.ListModels(ctx)
		if len(models) > 0 && !slices.Contains(models, modelName) {
			return fmt.Errorf("model %s is not installed (run: ollama pull %s, or pass --force)", modelName, modelName)
		}
	}

	if err := container.Session.SetModel(modelName); err != nil {
		return err
	}
	if err := persistModel(ctx, container, modelName); err != nil {
		return err
	}

	fmt.Fprintf(out, "Using model %s\n", modelName)
	return nil
}

// persistModel writes service.model to the configuration file
func persistModel(ctx context.Context, container *app.Container, modelName string) error {
	cfg, err := container.ConfigProvider.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.SetModel(modelName); err != nil {
		return err
	}

	return helpers.SaveConfigWithValidation(ctx, container, cfg)
}

// testModel runs one synchronous fix generation against modelName
func testModel(ctx context.Context, out io.Writer, container *app.Container, modelName string) error {
	if container.Client == nil {
		return container.ClientErr
	}

	prompt, err := container.Session.Prompt(domain.ModeFix, testPrompt, time.Now())
	if err != nil {
		return err
	}
	req := container.Session.Request(prompt, false)
	req.Model = modelName

	testCtx, cancel := context.WithTimeout(ctx, domain.DefaultModelTestTimeout)
	defer cancel()

	start := time.Now()
	text, err := container.Client.GenerateSync(testCtx, req)
	if err != nil {
		return fmt.Errorf("model %s test failed: %w", modelName, err)
	}

	fmt.Fprintf(out, "Model %s responded in %s.\n", modelName, time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(out, "  %q -> %q\n", testPrompt, text)
	return nil
}
