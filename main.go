// Copyright 2025 The JalanKu Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/jalanku/jalanku/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
