// Copyright 2026 Wolf McNally
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"iter"
	"maps"
	"os"
	"path/filepath"
	"time"

	jsonv2 "github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/tailscale/hujson"
)

type globalConfig struct {
	Debug   bool          `json:"debug"`
	Timeout string        `json:"timeout"`
	Globals stringVarsMap `json:"globals"`
}

func defaultGlobalConfig() *globalConfig {
	return &globalConfig{
		Globals: make(stringVarsMap),
	}
}

func (g *globalConfig) mergeEnvironment() error {
	if s := os.Getenv("WOLFLUA_TIMEOUT"); s != "" {
		g.Timeout = s
	}
	if s := os.Getenv("WOLFLUA_DEBUG"); s != "" {
		g.Debug = s != "0" && s != "false"
	}
	return nil
}

// mergeFiles reads each existing configuration file in paths
// and merges its fields into g, later files taking precedence.
// The files may use HuJSON (JSON with comments and trailing commas).
func (g *globalConfig) mergeFiles(paths iter.Seq[string]) error {
	for path := range paths {
		huJSONData, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return err
		}
		jsonData, err := hujson.Standardize(huJSONData)
		if err != nil {
			return fmt.Errorf("read %s: %v", path, err)
		}
		if err := jsonv2.Unmarshal(jsonData, g, jsonv2.RejectUnknownMembers(false)); err != nil {
			return fmt.Errorf("read %s: %v", path, err)
		}
	}

	return nil
}

// UnmarshalJSONFrom unmarshals the configuration object from the JSON decoder,
// merging any fields in the JSON object with existing values.
func (g *globalConfig) UnmarshalJSONFrom(in *jsontext.Decoder) error {
	tok, err := in.ReadToken()
	if err != nil {
		return err
	}
	if got := tok.Kind(); got != '{' {
		return fmt.Errorf("config must be an object not a %v", got)
	}

	for {
		keyToken, err := in.ReadToken()
		if err != nil {
			return err
		}
		switch kind := keyToken.Kind(); kind {
		case '}':
			return nil
		case '"':
			// Keep going.
		default:
			return fmt.Errorf("unexpected non-string key (%v) in object", kind)
		}

		switch k := keyToken.String(); k {
		case "debug":
			if err := jsonv2.UnmarshalDecode(in, &g.Debug); err != nil {
				return fmt.Errorf("unmarshal config.debug: %w", err)
			}
		case "timeout":
			if err := jsonv2.UnmarshalDecode(in, &g.Timeout); err != nil {
				return fmt.Errorf("unmarshal config.timeout: %w", err)
			}
		case "globals":
			newGlobals := make(stringVarsMap)
			if err := jsonv2.UnmarshalDecode(in, &newGlobals); err != nil {
				return fmt.Errorf("unmarshal config.globals: %w", err)
			}
			if g.Globals == nil {
				g.Globals = make(stringVarsMap)
			}
			maps.Copy(g.Globals, newGlobals)
		default:
			if reject, _ := jsonv2.GetOption(in.Options(), jsonv2.RejectUnknownMembers); reject {
				return fmt.Errorf("unmarshal config: unknown field %q", k)
			}
		}
	}
}

func (g *globalConfig) validate() error {
	if _, err := g.timeout(); err != nil {
		return err
	}
	return nil
}

// timeout returns the per-chunk execution deadline,
// or zero if none is configured.
func (g *globalConfig) timeout() (time.Duration, error) {
	if g.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(g.Timeout)
	if err != nil {
		return 0, fmt.Errorf("config timeout: %v", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("config timeout: %v is negative", d)
	}
	return d, nil
}

// configFiles yields the configuration file paths in ascending precedence.
func configFiles() iter.Seq[string] {
	return func(yield func(string) bool) {
		if dir := systemConfigDir(); dir != "" {
			if !yield(filepath.Join(dir, "wolflua", "config.json")) {
				return
			}
		}
		if dir := configDir(); dir != "" {
			if !yield(filepath.Join(dir, "wolflua", "config.json")) {
				return
			}
		}
	}
}
