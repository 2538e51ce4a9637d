package main

import (
	"fmt"
	"os"
	"strings"

	"zenort/internal/cli"
)

const usage = `Usage: zeno <command> [arguments]

Commands:
  run [--json] <script.zl> [args...]   run a script
  check [--json] <script.zl>           parse and statically check a script
  test [path]                          run *.test.zl files (default: tests/)
  new <project-name>                   create a project skeleton
  version                              print the version

A path ending in .zl is run directly: zeno main.zl`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	switch cmd {
	case "run":
		cli.HandleRun(os.Args[2:])
	case "check":
		cli.HandleCheck(os.Args[2:])
	case "test":
		cli.HandleTest(os.Args[2:])
	case "new":
		cli.HandleNew(os.Args[2:])
	case "version", "--version":
		cli.HandleVersion()
	case "help", "--help", "-h":
		fmt.Println(usage)
	default:
		// Automatically run if it ends with .zl
		if strings.HasSuffix(cmd, ".zl") {
			cli.HandleRun(os.Args[1:])
			return
		}
		fmt.Printf("❌ Unknown command '%s'\n\n%s\n", cmd, usage)
		os.Exit(1)
	}
}
