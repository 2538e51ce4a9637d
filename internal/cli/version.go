package cli

import (
	"fmt"
	"runtime"
)

// Version is the current version of the Zeno runtime
const Version = "1.0.0"

// HandleVersion prints the current version of the Zeno runtime
func HandleVersion() {
	fmt.Printf("Zeno runtime version %s %s/%s\n", Version, runtime.GOOS, runtime.GOARCH)
}
