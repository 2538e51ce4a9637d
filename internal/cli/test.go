package cli

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"zenort/internal/slots"
	"zenort/pkg/config"
	"zenort/pkg/engine"
	"zenort/pkg/syncx"
	"zenort/pkg/task"
)

// HandleTest executes .test.zl files in the tests/ directory.
// Usage: zeno test [path/to/file-or-dir]
func HandleTest(args []string) {
	cfg := setup()
	fmt.Println("🧪 Starting Zeno Test Runner...")
	start := time.Now()

	target := "tests"
	if len(args) > 0 {
		target = args[0]
	}

	testFiles, err := findTestFiles(target)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
	if len(testFiles) == 0 {
		fmt.Println("⚠️  No test files found (looking for *.test.zl).")
		return
	}

	fmt.Printf("🔍 Found %d test file(s)\n\n", len(testFiles))

	passed := 0
	failed := 0
	for _, file := range testFiles {
		// Each file gets its own engine and scheduler.
		_, err := RunTestFile(context.Background(), cfg, file)
		if err == nil {
			fmt.Printf("✅ PASS: %s\n", file)
			passed++
		} else {
			fmt.Printf("❌ FAIL: %s\n", file)
			fmt.Printf("   Error: %v\n", err)
			failed++
		}
	}

	duration := time.Since(start)
	fmt.Println("\n" + strings.Repeat("-", 40))
	if failed == 0 {
		fmt.Printf("🎉 All tests passed! (%s)\n", duration)
	} else {
		fmt.Printf("💥 %d passed, %d failed. (%s)\n", passed, failed, duration)
		os.Exit(1)
	}
}

func findTestFiles(target string) ([]string, error) {
	info, err := os.Stat(target)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("target '%s' not found", target)
	}
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{target}, nil
	}

	var files []string
	err = filepath.WalkDir(target, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".test.zl") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// RunTestFile runs one test script and returns its stats. The error is set
// when the script itself fails or any test in it fails.
func RunTestFile(ctx context.Context, cfg config.Config, path string) (*slots.TestStats, error) {
	root, err := engine.LoadScript(path)
	if err != nil {
		return nil, err
	}

	eng := engine.NewEngine()
	sched := task.NewScheduler(eng, task.WithMaxTasks(cfg.MaxTasks), task.WithMetrics(false))
	slots.RegisterAllSlots(eng, sched)
	slots.RegisterTestSlots(eng)

	ec, err := eng.Prepare(root)
	if err != nil {
		return nil, err
	}

	stats := &slots.TestStats{}
	ctx = slots.WithTestStats(syncx.WithOwner(ctx, task.MainThreadID), stats)

	_, err = eng.Run(ctx, root, ec)
	if waitErr := sched.Wait(context.Background()); waitErr != nil && err == nil {
		err = waitErr
	}
	if err != nil {
		return stats, err
	}
	if stats.Failed > 0 {
		return stats, fmt.Errorf("%d/%d tests failed:\n   %s", stats.Failed, stats.Total, strings.Join(stats.Errors, "\n   "))
	}
	return stats, nil
}
