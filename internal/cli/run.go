package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"zenort/internal/slots"
	"zenort/pkg/config"
	"zenort/pkg/engine"
	"zenort/pkg/logger"
	"zenort/pkg/metrics"
	"zenort/pkg/syncx"
	"zenort/pkg/task"
	"zenort/pkg/value"
)

// setup loads .env and installs the default logger. Every command calls it
// first.
func setup() config.Config {
	cfg := config.Load()
	logger.Setup(cfg.Env, cfg.LogLevel)
	return cfg
}

// HandleRun runs a script on the main thread.
// Usage: zeno run [--json] <path/to/script.zl> [args...]
func HandleRun(args []string) {
	isJSON, rest := splitJSONFlag(args)
	if len(rest) < 1 {
		fmt.Println("Usage: zeno run [--json] <path/to/script.zl> [args...]")
		os.Exit(1)
	}
	cfg := setup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := RunScript(ctx, cfg, rest[0], rest[1:]); err != nil {
		reportError(os.Stdout, err, isJSON)
		stop()
		os.Exit(1)
	}
}

// RunScript loads and runs the script at path, then waits for the tasks it
// left running. Script arguments are bound to $args. The returned error is
// the script's uncaught error, if any.
func RunScript(ctx context.Context, cfg config.Config, path string, scriptArgs []string) error {
	root, err := engine.LoadScript(path)
	if err != nil {
		return err
	}

	eng := engine.NewEngine()
	sched := task.NewScheduler(eng, task.WithMaxTasks(cfg.MaxTasks))
	slots.RegisterAllSlots(eng, sched)

	ec, err := eng.Prepare(root)
	if err != nil {
		return err
	}
	argv := make([]value.Value, len(scriptArgs))
	for i, a := range scriptArgs {
		argv[i] = value.NewString(a)
	}
	ec.Set("args", value.NewList(argv...))

	if cfg.MetricsAddr != "" {
		srv, err := serveMetrics(cfg.MetricsAddr, sched)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Error("❌ Metrics Server Forced Shutdown", "error", err)
			}
		}()
	}

	slog.Debug("▶️ Running script", "path", path, "max_tasks", cfg.MaxTasks)
	_, runErr := eng.Run(syncx.WithOwner(ctx, task.MainThreadID), root, ec)

	waitCtx := context.Background()
	if cfg.ShutdownGrace > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(waitCtx, cfg.ShutdownGrace)
		defer cancel()
	}
	if err := sched.Wait(waitCtx); err != nil && runErr == nil {
		return fmt.Errorf("tasks still running after %s: %w", cfg.ShutdownGrace, err)
	}
	return runErr
}

// serveMetrics listens before returning so a busy port fails the run
// instead of a background goroutine.
func serveMetrics(addr string, sched *task.Scheduler) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener on %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:           metrics.Router(sched),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("📈 Metrics Ready", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("❌ Metrics listener failed", "error", err)
		}
	}()
	return srv, nil
}

// splitJSONFlag removes a --json flag given before the script path. Anything
// after the path belongs to the script.
func splitJSONFlag(args []string) (bool, []string) {
	for i, arg := range args {
		if arg == "--json" {
			return true, append(args[:i:i], args[i+1:]...)
		}
		if !strings.HasPrefix(arg, "-") {
			break
		}
	}
	return false, args
}

// diagnosticOf turns any script error into a Diagnostic. Positioned errors
// keep their location; raised script errors carry their stack in the
// message.
func diagnosticOf(err error) engine.Diagnostic {
	var diag engine.Diagnostic
	if errors.As(err, &diag) {
		return diag
	}
	return engine.Diagnostic{
		Type:    "error",
		Message: value.AsErrorValue(err).Describe(),
	}
}

func reportError(w io.Writer, err error, asJSON bool) {
	if asJSON {
		writeJSON(w, map[string]interface{}{
			"success": false,
			"errors":  []engine.Diagnostic{diagnosticOf(err)},
		})
		return
	}

	var ev *value.ErrorValue
	if errors.As(err, &ev) {
		fmt.Fprintf(w, "❌ Uncaught %s\n", ev.Describe())
		return
	}
	fmt.Fprintf(w, "❌ Execution Error: %v\n", err)
}
