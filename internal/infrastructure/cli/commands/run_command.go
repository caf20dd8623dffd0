package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/doeshing/typecopilot/internal/app"
	"github.com/doeshing/typecopilot/internal/application/correction"
	"github.com/doeshing/typecopilot/internal/application/registry"
	"github.com/doeshing/typecopilot/internal/domain"
	"github.com/doeshing/typecopilot/internal/ports"
)

// ListenerFactory builds the global hotkey listener.
type ListenerFactory func(ports.Logger) ports.HotkeyListener

// NewRunCommand creates the run command, which stays in the foreground listening for hotkeys
func NewRunCommand(container *app.Container, newListener ListenerFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Listen for global hotkeys and correct text in the focused application",
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunDaemon(cmd.Context(), cmd.OutOrStdout(), container, newListener)
		},
	}
}

// RunDaemon registers the configured hotkeys and serves corrections until
// interrupted. Correction failures are logged and never stop the daemon.
func RunDaemon(ctx context.Context, out io.Writer, container *app.Container, newListener ListenerFactory) error {
	svc, err := container.Corrections()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := &daemon{container: container, corrections: svc}
	return d.serve(ctx, out, newListener(container.Logger))
}

// daemon routes hotkey actions to the correction service and the model registry
type daemon struct {
	container   *app.Container
	corrections *correction.Service

	cycleMu sync.Mutex
}

func (d *daemon) serve(ctx context.Context, out io.Writer, listener ports.HotkeyListener) error {
	cfg := d.container.Config
	log := d.container.Logger
	bindings := cfg.Bindings()

	d.pruneHistory(time.Now())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return listener.Listen(gctx, bindings, d.handler(gctx))
	})
	if cfg.Metrics.Listen != "" && d.container.Telemetry != nil {
		g.Go(func() error {
			log.Info("metrics endpoint listening", map[string]interface{}{"addr": cfg.Metrics.Listen})
			return d.container.Telemetry.Serve(gctx, cfg.Metrics.Listen)
		})
	}

	fmt.Fprintf(out, "Typing Copilot running with model %s. Press Ctrl+C to stop.\n", d.container.Session.Model())
	for _, b := range bindings {
		fmt.Fprintf(out, "  %-20s %s\n", b.Action, b.Keys)
	}
	log.Info("daemon started", map[string]interface{}{
		"model":    d.container.Session.Model(),
		"bindings": len(bindings),
	})
	d.notify("Ready")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("daemon stopped", nil)
	return nil
}

// handler returns the per-press callback handed to the hotkey listener
func (d *daemon) handler(ctx context.Context) func(domain.Action) {
	return func(action domain.Action) {
		if action == domain.ActionNextModel {
			d.cycleModel(ctx)
			return
		}
		// Errors are logged by the correction service.
		_, _ = d.corrections.Dispatch(ctx, action)
	}
}

// cycleModel selects the installed model after the active one
func (d *daemon) cycleModel(ctx context.Context) {
	d.cycleMu.Lock()
	defer d.cycleMu.Unlock()

	log := d.container.Logger
	if d.container.Registry == nil {
		return
	}

	current := d.container.Session.Model()
	next := registry.NextAfter(d.container.Registry.ListModels(ctx), current)
	if next == "" {
		d.notify("No models available")
		return
	}
	if err := d.container.Session.SetModel(next); err != nil {
		log.Error("model change failed", err, map[string]interface{}{"model": next})
		return
	}
	log.Info("model changed", map[string]interface{}{"from": current, "to": next})

	if err := persistModel(ctx, d.container, next); err != nil {
		log.Warn("model change not saved", map[string]interface{}{"model": next, "error": err.Error()})
	}
	d.notify("Model: " + next)
}

// pruneHistory applies history.retention_days once at startup
func (d *daemon) pruneHistory(now time.Time) {
	cfg := d.container.Config
	if !cfg.IsHistoryEnabled() || d.container.HistoryStore == nil {
		return
	}
	removed, err := d.container.HistoryStore.Prune(now.AddDate(0, 0, -cfg.GetHistoryRetentionDays()))
	if err != nil {
		d.container.Logger.Warn("history prune failed", map[string]interface{}{"error": err.Error()})
		return
	}
	if removed > 0 {
		d.container.Logger.Info("history pruned", map[string]interface{}{"removed": removed})
	}
}

func (d *daemon) notify(message string) {
	if d.container.Notifier == nil {
		return
	}
	if err := d.container.Notifier.Notify(message, ""); err != nil {
		d.container.Logger.Debug("notification failed", map[string]interface{}{"error": err.Error()})
	}
}
