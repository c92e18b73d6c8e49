// Copyright 2026 Wolf McNally
// SPDX-License-Identifier: MIT

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestGlobalConfigMergeFiles(t *testing.T) {
	dir := t.TempDir()
	var paths [3]string
	paths[0] = filepath.Join(dir, "config1.jwcc")
	if err := os.WriteFile(paths[0], []byte(`{
	// Base configuration.
	"debug": true,
	"timeout": "5s",
	"globals": {"animal": "giraffe", "color": "blue"},
}
`), 0o666); err != nil {
		t.Fatal(err)
	}
	paths[1] = filepath.Join(dir, "config2.jwcc")
	if err := os.WriteFile(paths[1], []byte(`{"globals": {"color": "green"}}`+"\n"), 0o666); err != nil {
		t.Fatal(err)
	}
	// Missing files are skipped, not an error.
	paths[2] = filepath.Join(dir, "nonexistent.jwcc")

	g := defaultGlobalConfig()
	err := g.mergeFiles(func(yield func(string) bool) {
		for _, path := range paths {
			if !yield(path) {
				return
			}
		}
	})
	if err != nil {
		t.Error("mergeFiles:", err)
	}
	if !g.Debug {
		t.Error("g.Debug = false; want true")
	}
	if got, want := g.Timeout, "5s"; got != want {
		t.Errorf("g.Timeout = %q; want %q", got, want)
	}
	wantGlobals := stringVarsMap{"animal": "giraffe", "color": "green"}
	if diff := cmp.Diff(wantGlobals, g.Globals); diff != "" {
		t.Errorf("g.Globals (-want +got):\n%s", diff)
	}
}

func TestGlobalConfigTimeout(t *testing.T) {
	tests := []struct {
		timeout string
		want    time.Duration
		wantErr bool
	}{
		{"", 0, false},
		{"5s", 5 * time.Second, false},
		{"1m30s", 90 * time.Second, false},
		{"-1s", 0, true},
		{"soon", 0, true},
	}
	for _, test := range tests {
		g := &globalConfig{Timeout: test.timeout}
		got, err := g.timeout()
		if test.wantErr {
			if err == nil {
				t.Errorf("timeout %q: no error; want error", test.timeout)
			}
			continue
		}
		if err != nil {
			t.Errorf("timeout %q: %v", test.timeout, err)
			continue
		}
		if got != test.want {
			t.Errorf("timeout %q = %v; want %v", test.timeout, got, test.want)
		}
	}
}

func TestStringVarsFlag(t *testing.T) {
	vars := make(stringVarsMap)
	f := vars.flag()
	if err := f.Set("animal=giraffe"); err != nil {
		t.Error(err)
	}
	if err := f.Set("count=12"); err != nil {
		t.Error(err)
	}
	if err := f.Set("plain"); err == nil {
		t.Error(`f.Set("plain") = <nil>; want error`)
	}
	if err := f.Set("=value"); err == nil {
		t.Error(`f.Set("=value") = <nil>; want error`)
	}
	want := stringVarsMap{"animal": "giraffe", "count": "12"}
	if diff := cmp.Diff(want, vars); diff != "" {
		t.Errorf("vars (-want +got):\n%s", diff)
	}
	if got, want := f.String(), "[animal=giraffe,count=12]"; got != want {
		t.Errorf("f.String() = %q; want %q", got, want)
	}
}
