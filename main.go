// main is the entry point for the pagegate CLI.
package main

import (
	"fmt"
	"os"

	"github.com/huangsam/pagegate/cmd"
	"github.com/huangsam/pagegate/internal/contract"
	"github.com/huangsam/pagegate/internal/iocache"
)

func main() {
	os.Exit(run())
}

// run executes the CLI and maps the outcome to a process exit code.
// It is separate from main so deferred cleanup runs before os.Exit.
func run() int {
	cmd.SetHistoryManager(iocache.Manager)
	defer iocache.CloseHistory()

	if err := cmd.Execute(); err != nil {
		// The verdict has already been printed for a failed gate
		if !contract.IsKind(err, contract.KindGateFailure) {
			_, _ = fmt.Fprintln(os.Stderr, "❌", err)
		}
		return contract.ExitCodeFor(err)
	}
	return 0
}
