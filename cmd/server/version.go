// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package main

// version is overridden at build time:
//
//	go build -ldflags "-X main.version=$(git describe --tags --always)"
var version = "dev"
