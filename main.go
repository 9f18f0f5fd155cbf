// Package main is the entry point for the hockeystick CLI.
package main

import (
	"os"

	"github.com/huangsam/hockeystick/cmd"
	"github.com/huangsam/hockeystick/internal/contract"
	"github.com/huangsam/hockeystick/internal/iocache"
)

func main() {
	defer iocache.CloseCaching()
	cmd.SetCacheManager(iocache.Manager)

	if err := cmd.Execute(); err != nil {
		contract.Log().Error().Err(err).Msg("command failed")
		iocache.CloseCaching()
		os.Exit(1)
	}
}
