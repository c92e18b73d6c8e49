// Copyright 2026 Wolf McNally
// SPDX-License-Identifier: MIT

package main

import "os"

func configDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return dir
}

func systemConfigDir() string {
	return os.Getenv("ProgramData")
}
