package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/doeshing/typecopilot/internal/app"
	"github.com/doeshing/typecopilot/internal/infrastructure/cli/commands"
)

// Options holds CLI-level configuration.
type Options struct {
	Verbose bool
	// NewListener builds the global hotkey listener used by run.
	NewListener commands.ListenerFactory
}

// NewRootCmd wires the cobra root command. The container is initialised once
// flags are parsed, before any subcommand runs.
func NewRootCmd(container *app.Container, opts Options) *cobra.Command {
	var configPath string

	runCmd := commands.NewRunCommand(container, opts.NewListener)

	root := &cobra.Command{
		Use:   "typecopilot",
		Short: "Typing Copilot - hotkey text correction with a local model",
		Long: "Typing Copilot fixes or rewrites the line you are typing in any application.\n" +
			"Press a hotkey and the text is copied, sent to a local Ollama model and pasted back.\n" +
			"Without a subcommand it runs the hotkey listener.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[commands.AnnotationSkipContainer] == "true" {
				return nil
			}
			return container.Init(cmd.Context(), app.Options{Verbose: opts.Verbose, ConfigPath: configPath})
		},
		RunE:          runCmd.RunE,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", opts.Verbose, "Mirror logs to stderr at debug level")
	root.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file (default $TYPING_COPILOT_CONFIG or ~/.typing-copilot/config.yaml)")

	root.AddCommand(runCmd)
	root.AddCommand(commands.NewTriggerCommand(container))
	root.AddCommand(newPreviewCommand(container))
	root.AddCommand(commands.NewModelsCommand(container))
	root.AddCommand(commands.NewHistoryCommand(container))
	root.AddCommand(commands.NewConfigCommand(container))
	root.AddCommand(commands.NewDoctorCommand(container))
	root.AddCommand(commands.NewVersionCommand())
	return root
}

// Execute runs the command tree with os.Args and releases the container afterwards.
func Execute(ctx context.Context, opts Options) error {
	container := app.NewContainer()
	defer func() { _ = container.Close(context.WithoutCancel(ctx)) }()

	return NewRootCmd(container, opts).ExecuteContext(ctx)
}
