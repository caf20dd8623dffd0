package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/doeshing/typecopilot/internal/app"
	"github.com/doeshing/typecopilot/internal/domain"
)

// previewOptions holds the flags of the preview command.
type previewOptions struct {
	mode    string
	stream  bool
	model   string
	timeout time.Duration
}

func newPreviewCommand(container *app.Container) *cobra.Command {
	var opts previewOptions

	cmd := &cobra.Command{
		Use:   "preview [text...]",
		Short: "Correct text from the arguments or stdin and print the result",
		Long: "Preview renders the same prompt a hotkey would send and prints the model's answer.\n" +
			"Nothing is copied, typed or pasted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 {
				raw, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				text = strings.TrimRight(string(raw), "\r\n")
			}
			return runPreview(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), container, opts, text)
		},
	}

	cmd.Flags().StringVarP(&opts.mode, "mode", "m", string(domain.ModeFix), "Prompt mode (fix|instruct)")
	cmd.Flags().BoolVarP(&opts.stream, "stream", "s", false, "Print fragments as they arrive")
	cmd.Flags().StringVar(&opts.model, "model", "", "Override the active model")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", domain.DefaultModelTestTimeout, "Override request timeout")
	return cmd
}

func runPreview(ctx context.Context, out, errOut io.Writer, container *app.Container, opts previewOptions, text string) error {
	mode, err := domain.ParseMode(opts.mode)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return domain.ErrCaptureEmpty
	}
	if container.Client == nil {
		return container.ClientErr
	}

	prompt, err := container.Session.Prompt(mode, text, time.Now())
	if err != nil {
		return err
	}
	req := container.Session.Request(prompt, opts.stream)
	if opts.model != "" {
		req.Model = opts.model
	}

	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	if opts.stream {
		stream, err := container.Client.GenerateStream(ctx, req)
		if err != nil {
			return err
		}
		defer stream.Close()

		w := NewStreamWriter(out)
		for stream.Next() {
			w.WriteChunk(stream.Fragment())
		}
		w.Done()
		return stream.Err()
	}

	var spinner *Spinner
	if Interactive(errOut) {
		spinner = NewSpinner(errOut, req.Model)
		spinner.Start()
	}
	result, err := container.Client.GenerateSync(ctx, req)
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(out, result)
	return nil
}
