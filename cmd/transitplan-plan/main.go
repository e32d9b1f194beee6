// Command transitplan-plan previews and commits monthly duty patterns from the shell
package main

import (
	"os"

	"transitplan/internal/core/version"
	"transitplan/internal/platform/logger"
)

func main() {
	version.SetService("transitplan-plan")
	if err := newRootCmd().Execute(); err != nil {
		logger.Get().Error().Err(err).Msg("transitplan-plan failed")
		os.Exit(1)
	}
}
