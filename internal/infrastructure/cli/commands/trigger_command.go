package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/doeshing/typecopilot/internal/app"
	"github.com/doeshing/typecopilot/internal/domain"
)

// NewTriggerCommand creates the trigger command, a one-shot correction for
// desktops where global hotkeys cannot be registered. Bind it in the desktop's
// own shortcut settings.
func NewTriggerCommand(container *app.Container) *cobra.Command {
	var (
		delay  time.Duration
		stream bool
	)

	cmd := &cobra.Command{
		Use:       "trigger <fix-line|instruct-line|instruct-selection>",
		Short:     "Run one correction against the focused application",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(domain.ActionFixLine), string(domain.ActionInstructLine), string(domain.ActionInstructSelection)},
		RunE: func(cmd *cobra.Command, args []string) error {
			action, err := domain.ParseAction(args[0])
			if err != nil {
				return err
			}
			return triggerCorrection(cmd.Context(), cmd.ErrOrStderr(), container, action, delay, stream)
		},
	}

	cmd.Flags().DurationVar(&delay, "delay", 0, "Wait before capturing, e.g. until shortcut modifiers are released")
	cmd.Flags().BoolVar(&stream, "stream", false, "Stream instruct results instead of pasting once")
	return cmd
}

// triggerCorrection runs a single correction and reports its outcome on out
func triggerCorrection(ctx context.Context, out io.Writer, container *app.Container, action domain.Action, delay time.Duration, forceStream bool) error {
	svc, err := container.Corrections()
	if err != nil {
		return err
	}

	if delay > 0 {
		time.Sleep(delay)
	}

	var result domain.CorrectionResult
	if forceStream {
		result, err = svc.Run(ctx, domain.CorrectionRequest{Mode: action.Mode(), Target: action.Target(), Stream: true})
	} else {
		result, err = svc.Dispatch(ctx, action)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}

	fmt.Fprintf(out, "%s applied with %s in %s (%d fragment(s))\n",
		action, result.Model, result.Duration.Round(time.Millisecond), result.Fragments)
	return nil
}
