// Copyright 2026 Wolf McNally
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"zombiezen.com/go/log"
)

type runOptions struct {
	scripts  []string
	parallel bool
	jobs     int
}

func newRunCommand(g *globalConfig) *cobra.Command {
	c := &cobra.Command{
		Use:                   "run [options] SCRIPT [...]",
		Short:                 "run one or more Lua scripts",
		DisableFlagsInUseLine: true,
		Args:                  cobra.MinimumNArgs(1),
		SilenceErrors:         true,
		SilenceUsage:          true,
	}
	opts := new(runOptions)
	c.Flags().BoolVarP(&opts.parallel, "parallel", "p", false, "run scripts concurrently, each in its own interpreter")
	c.Flags().IntVarP(&opts.jobs, "jobs", "j", 0, "maximum `number` of scripts to run at once (0 = no limit)")
	c.RunE = func(cmd *cobra.Command, args []string) error {
		opts.scripts = args
		return runRun(cmd.Context(), g, opts)
	}
	return c
}

func runRun(ctx context.Context, g *globalConfig, opts *runOptions) error {
	if !opts.parallel {
		for _, script := range opts.scripts {
			if err := runScript(ctx, g, script); err != nil {
				return err
			}
		}
		return nil
	}

	grp, grpCtx := errgroup.WithContext(ctx)
	if opts.jobs > 0 {
		grp.SetLimit(opts.jobs)
	}
	for _, script := range opts.scripts {
		grp.Go(func() error {
			return runScript(grpCtx, g, script)
		})
	}
	return grp.Wait()
}

func runScript(ctx context.Context, g *globalConfig, path string) error {
	ctx, cancel, err := scriptContext(ctx, g)
	if err != nil {
		return err
	}
	defer cancel()

	state, err := newState(ctx, g)
	if err != nil {
		return err
	}
	defer state.Close()

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	log.Debugf(ctx, "running %s", path)
	if err := state.Load(f, "@"+path); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := state.Call(0, 0, 0); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
