// Copyright 2026 Wolf McNally
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"slices"
	"strings"
)

// stringVarsMap holds named string values
// that are installed as globals before a chunk runs.
type stringVarsMap map[string]string

func (m stringVarsMap) flag() *stringVarsFlag {
	return &stringVarsFlag{vars: m}
}

// sortedNames returns the variable names in lexical order,
// so installation and display are deterministic.
func (m stringVarsMap) sortedNames() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// stringVarsFlag is the implementation of [github.com/spf13/pflag.Value]
// for repeatable name=value assignments.
type stringVarsFlag struct {
	vars stringVarsMap
}

func (f *stringVarsFlag) Type() string { return "name=value" }
func (f *stringVarsFlag) Get() any     { return f.vars }

func (f *stringVarsFlag) String() string {
	sb := new(strings.Builder)
	sb.WriteString("[")
	for i, name := range f.vars.sortedNames() {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(name)
		sb.WriteString("=")
		sb.WriteString(f.vars[name])
	}
	sb.WriteString("]")
	return sb.String()
}

func (f *stringVarsFlag) Set(s string) error {
	name, value, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return fmt.Errorf("invalid assignment %q (want name=value)", s)
	}
	f.vars[name] = value
	return nil
}
