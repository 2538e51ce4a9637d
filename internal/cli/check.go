package cli

import (
	"fmt"
	"io"
	"os"

	"zenort/internal/slots"
	"zenort/pkg/analysis"
	"zenort/pkg/engine"
	"zenort/pkg/fastjson"
	"zenort/pkg/task"
)

// HandleCheck parses a script and runs the static analysis without
// executing anything.
// Usage: zeno check [--json] <path/to/script.zl>
func HandleCheck(args []string) {
	isJSON, rest := splitJSONFlag(args)
	if len(rest) < 1 {
		fmt.Println("Usage: zeno check [--json] <path/to/script.zl>")
		os.Exit(1)
	}
	setup()
	os.Exit(Check(os.Stdout, rest[0], isJSON))
}

// Check writes its report to w and returns the process exit code.
func Check(w io.Writer, path string, asJSON bool) int {
	root, err := engine.LoadScript(path)
	if err != nil {
		if asJSON {
			writeJSON(w, map[string]interface{}{
				"success": false,
				"errors":  []engine.Diagnostic{diagnosticOf(err)},
			})
		} else {
			fmt.Fprintf(w, "❌ Syntax Error: %v\n", err)
		}
		return 1
	}

	// Slots are registered for their metadata only; nothing is spawned.
	eng := engine.NewEngine()
	slots.RegisterAllSlots(eng, task.NewScheduler(eng, task.WithMetrics(false)))

	result := analysis.NewAnalyzer(eng).Analyze(root)
	if _, err := eng.Hoist(root); err != nil {
		result.Errors = append([]engine.Diagnostic{diagnosticOf(err)}, result.Errors...)
	}

	if asJSON {
		writeJSON(w, map[string]interface{}{
			"success":  result.OK(),
			"errors":   nonNil(result.Errors),
			"warnings": nonNil(result.Warnings),
		})
		if !result.OK() {
			return 1
		}
		return 0
	}

	if !result.OK() {
		fmt.Fprintf(w, "❌ Static Analysis Failed (%d errors):\n", len(result.Errors))
		for _, diag := range result.Errors {
			fmt.Fprintf(w, "  - [%s:%d:%d] %s\n", diag.Filename, diag.Line, diag.Col, diag.Message)
		}
		return 1
	}

	for _, diag := range result.Warnings {
		fmt.Fprintf(w, "⚠️  Warning: [%s:%d:%d] %s\n", diag.Filename, diag.Line, diag.Col, diag.Message)
	}
	fmt.Fprintln(w, "✅ Code Valid (Static Analysis Passed)")
	return 0
}

func writeJSON(w io.Writer, v interface{}) {
	out, _ := fastjson.MarshalIndent(v, "", "  ")
	fmt.Fprintln(w, string(out))
}

func nonNil(ds []engine.Diagnostic) []engine.Diagnostic {
	if ds == nil {
		return []engine.Diagnostic{}
	}
	return ds
}
