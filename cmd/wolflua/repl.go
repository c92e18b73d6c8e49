// Copyright 2026 Wolf McNally
// SPDX-License-Identifier: MIT

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	wolflua "github.com/wolfmcnally/WolfLua"
	"golang.org/x/term"
)

func newReplCommand(g *globalConfig) *cobra.Command {
	c := &cobra.Command{
		Use:                   "repl",
		Short:                 "start an interactive session",
		DisableFlagsInUseLine: true,
		Args:                  cobra.NoArgs,
		SilenceErrors:         true,
		SilenceUsage:          true,
	}
	c.RunE = func(cmd *cobra.Command, args []string) error {
		return runRepl(cmd.Context(), g)
	}
	return c
}

func runRepl(ctx context.Context, g *globalConfig) error {
	state, err := newState(ctx, g)
	if err != nil {
		return err
	}
	defer state.Close()

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	scanner := bufio.NewScanner(os.Stdin)
	for {
		if interactive {
			fmt.Print("> ")
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" {
			break
		}

		// A failed chunk never poisons the session:
		// the error is reported and the next line runs normally.
		if err := replLine(state, line); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
		state.SetTop(0)
	}
	if interactive {
		fmt.Println()
	}
	return scanner.Err()
}

func replLine(state *wolflua.State, line string) error {
	if err := loadExpression(state, line); err != nil {
		return err
	}
	if err := state.Call(0, wolflua.MultipleReturns, 0); err != nil {
		return err
	}
	for i := 1; i <= state.Top(); i++ {
		fmt.Println(displayValue(state, i))
	}
	return nil
}
