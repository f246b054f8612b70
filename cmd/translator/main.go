// translator fetches translations for string catalogs through a tiered
// chain of machine translation providers.
package main

import (
	"fmt"
	"os"

	"github.com/nulzo/translation-router/internal/cli"
	"github.com/nulzo/translation-router/internal/platform/logger"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
)

func main() {
	err := newRootCmd().Execute()
	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", cli.CrossMark(), err)
		os.Exit(1)
	}
}
