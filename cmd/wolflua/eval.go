// Copyright 2026 Wolf McNally
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"os"

	jsonv2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/spf13/cobra"
	wolflua "github.com/wolfmcnally/WolfLua"
)

type evalOptions struct {
	expr       string
	file       string
	jsonOutput bool
}

func newEvalCommand(g *globalConfig) *cobra.Command {
	c := &cobra.Command{
		Use:                   "eval [options] [EXPR]",
		Short:                 "evaluate a Lua expression and print its results",
		DisableFlagsInUseLine: true,
		Args:                  cobra.MaximumNArgs(1),
		SilenceErrors:         true,
		SilenceUsage:          true,
	}
	opts := new(evalOptions)
	c.Flags().StringVar(&opts.file, "file", "", "evaluate the chunk stored in `path` instead of an expression")
	c.Flags().BoolVar(&opts.jsonOutput, "json", false, "print results as JSON")
	c.RunE = func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			opts.expr = args[0]
		}
		return runEval(cmd.Context(), g, opts)
	}
	return c
}

func runEval(ctx context.Context, g *globalConfig, opts *evalOptions) error {
	switch {
	case opts.expr != "" && opts.file != "":
		return fmt.Errorf("can specify at most one of EXPR or --file")
	case opts.expr == "" && opts.file == "":
		return fmt.Errorf("nothing to evaluate")
	}

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

	if opts.file != "" {
		f, err := os.Open(opts.file)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := state.Load(f, "@"+opts.file); err != nil {
			return fmt.Errorf("%s: %w", opts.file, err)
		}
	} else if err := loadExpression(state, opts.expr); err != nil {
		return err
	}

	if err := state.Call(0, wolflua.MultipleReturns, 0); err != nil {
		return err
	}

	if opts.jsonOutput {
		results := make([]any, 0, state.Top())
		for i := 1; i <= state.Top(); i++ {
			results = append(results, goValue(state, i))
		}
		data, err := jsonv2.Marshal(results, jsontext.WithIndent("  "))
		if err != nil {
			return err
		}
		fmt.Printf("%s\n", data)
		return nil
	}

	for i := 1; i <= state.Top(); i++ {
		fmt.Println(displayValue(state, i))
	}
	return nil
}

// loadExpression compiles source as a value-producing expression first,
// then falls back to compiling it as a statement chunk.
// On failure the error value is popped
// so the caller sees a clean stack.
func loadExpression(state *wolflua.State, source string) error {
	if err := state.LoadString("return "+source, "=(expression)"); err == nil {
		return nil
	}
	state.Pop(1)
	if err := state.LoadString(source, "=(expression)"); err != nil {
		state.Pop(1)
		return err
	}
	return nil
}

// displayValue renders the value at the given index for terminal output.
func displayValue(state *wolflua.State, idx int) string {
	switch state.Type(idx) {
	case wolflua.TypeNone, wolflua.TypeNil:
		return "nil"
	case wolflua.TypeBoolean:
		if state.ToBoolean(idx) {
			return "true"
		}
		return "false"
	default:
		if s, ok := state.ToString(idx); ok {
			return s
		}
		return state.Type(idx).String()
	}
}
