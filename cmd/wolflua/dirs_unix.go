// Copyright 2026 Wolf McNally
// SPDX-License-Identifier: MIT

//go:build unix

package main

import "go4.org/xdgdir"

func configDir() string {
	return xdgdir.Config.Path()
}

func systemConfigDir() string {
	return "/etc"
}
