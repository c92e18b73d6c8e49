// Copyright 2026 Wolf McNally
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// wolfluaVersion is the version string filled in by the linker (e.g. "1.2.3").
var wolfluaVersion string

func newVersionCommand() *cobra.Command {
	c := &cobra.Command{
		Use:                   "version",
		Short:                 "show version information",
		DisableFlagsInUseLine: true,
		Args:                  cobra.NoArgs,
		SilenceErrors:         true,
		SilenceUsage:          true,
	}
	c.RunE = func(cmd *cobra.Command, args []string) error {
		return runVersion()
	}
	return c
}

func runVersion() error {
	firstLine := "wolflua"
	if wolfluaVersion == "" {
		firstLine += " (version unknown)"
	} else {
		firstLine += " version " + wolfluaVersion
	}
	fmt.Printf("%s\nGo:     %s\nSystem: %s/%s\nCPUs:   %d\n",
		firstLine, runtime.Version(), runtime.GOOS, runtime.GOARCH, runtime.NumCPU())
	return nil
}
