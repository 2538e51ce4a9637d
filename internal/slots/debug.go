package slots

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"zenort/pkg/engine"
	"zenort/pkg/logger"
	"zenort/pkg/syncx"
)

// out is where print and debug.dump write. Tasks print from many threads, so
// every line is written under outMu.
var (
	outMu sync.Mutex
	out   io.Writer = os.Stdout
)

// SetOutput redirects print and debug.dump, returning the previous writer.
func SetOutput(w io.Writer) io.Writer {
	outMu.Lock()
	defer outMu.Unlock()
	prev := out
	out = w
	return prev
}

func writeLine(s string) {
	outMu.Lock()
	defer outMu.Unlock()
	fmt.Fprintln(out, s)
}

// RegisterDebugSlots registers output and inspection slots.
func RegisterDebugSlots(eng *engine.Engine) {
	// ==========================================
	// SLOT: print
	// ==========================================
	eng.Register("print", func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		parts := []string{mainValue(eng, node, ec).String()}
		for _, c := range node.Children {
			if c.Name == "val" && node.Value != nil {
				parts = append(parts, eng.ResolveValue(c, ec).String())
			}
		}
		writeLine(strings.Join(parts, " "))
		return nil
	}, engine.SlotMeta{
		Description: "Write a line to standard output.",
		Example:     "print: $result",
		Inputs: map[string]engine.InputMeta{
			"val": {Description: "Extra values appended to the line"},
		},
	})

	// ==========================================
	// SLOT: log
	// ==========================================
	eng.Register("log", func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		level := logger.ParseLevel(engine.RawString(valueOf(node.Child("level"))))
		thread, _ := syncx.OwnerFrom(ctx)
		slog.Log(ctx, level, "📝 "+mainValue(eng, node, ec).String(),
			"task", thread,
			"file", node.Filename,
			"line", node.Line,
		)
		return nil
	}, engine.SlotMeta{
		Description: "Write a structured log record tagged with the current task.",
		Example:     "log: $user.name {\n  level: warn\n}",
		Inputs: map[string]engine.InputMeta{
			"level": {Description: "debug, info, warn or error (Default: info)"},
		},
	})

	// ==========================================
	// SLOT: debug.dump (Inspect a value)
	// ==========================================
	eng.Register("debug.dump", func(ctx context.Context, node *engine.Node, ec *engine.ExecutionContext) error {
		if node.Value == nil {
			names := make([]string, 0)
			for k := range ec.Bindings() {
				names = append(names, k)
			}
			sort.Strings(names)
			writeLine(fmt.Sprintf("🔍 [DEBUG] bindings: %s", strings.Join(names, ", ")))
			return nil
		}

		v := engine.ResolveRaw(node.Value, ec)
		if ev, ok := v.AsError(); ok {
			writeLine("🔍 [DEBUG] " + ev.Describe())
			return nil
		}
		writeLine(fmt.Sprintf("🔍 [DEBUG] %s (%s)", v.String(), v.TypeName()))
		return nil
	}, engine.SlotMeta{
		Description: "Print a value with its type, or the names bound in the current context.",
		Example:     "debug.dump: $err",
	})
}

func valueOf(n *engine.Node) interface{} {
	if n == nil {
		return nil
	}
	return n.Value
}
