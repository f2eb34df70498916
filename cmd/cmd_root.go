// Copyright 2025 The JalanKu Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/jalanku/jalanku/config"
	"github.com/spf13/cobra"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})
}

var rootOptions = struct {
	ConfigFile    string
	TraceHTTP     bool
	TraceHTTPBody bool
}{}

// settings is shared by every command; flags are bound to it in init.
var settings = config.New()

var rootCmd = &cobra.Command{
	Use:   "jalanku",
	Short: "location resolution for road damage reports",
	Long: `
jalanku resolves where a road damage report was taken, from the photo, the
device or a typed address, and places it in the Indonesian administrative
hierarchy (province, regency or city, district).
`,
	SilenceUsage: true,
}

var Version = "dev"

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rootOptions.ConfigFile, "config", "", "YAML configuration file")
	flags.BoolVar(&rootOptions.TraceHTTP, "trace-http", false, "dump outgoing HTTP requests to stderr")
	flags.BoolVar(&rootOptions.TraceHTTPBody, "trace-http-body", false, "include bodies in the HTTP dump")
	flags.String("db", "db", "directory holding the reference database")
	flags.String("geocoder", "google", "geocoding provider: google or none")

	_ = settings.BindPFlag("region.db_path", flags.Lookup("db"))
	_ = settings.BindPFlag("geocode.provider", flags.Lookup("geocoder"))
}

func Execute(version string) {
	Version = version

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
