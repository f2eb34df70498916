// Copyright 2025 The JalanKu Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/jalanku/jalanku/match"
	"github.com/jalanku/jalanku/reconcile"
	"github.com/jalanku/jalanku/region"
	"github.com/jalanku/jalanku/spatial"
	"github.com/spf13/cobra"
)

// we say that it isn't.
func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}

	return (info.Mode() & os.ModeCharDevice) != 0
}

var resolveOptions = struct {
	Address string
	Lat     float64
	Lng     float64
	Photo   string
}{}

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolves one location and prints every step",
	Long: `Runs a throw-away draft with the given input and prints each status change
followed by the final resolution.

$ jalanku resolve --photo pothole.jpg
$ jalanku resolve --lat -7.2575 --lng 112.7521

Without flags it reads one address per line and prints the match:

$ echo "Jl. Tunjungan, Genteng, Surabaya" | jalanku resolve
Jl. Tunjungan, Genteng, Surabaya		{"selection":{...},"confidence":"high",...}
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		o := resolveOptions
		hasLat, hasLng := cmd.Flags().Changed("lat"), cmd.Flags().Changed("lng")

		if hasLat != hasLng {
			return errors.New("--lat and --lng go together")
		}

		if o.Address == "" && o.Photo == "" && !hasLat {
			return matchLines(a.catalog)
		}

		var mu sync.Mutex

		enc := json.NewEncoder(os.Stdout)

		cfg := a.draftConfig()
		cfg.OnStatus = func(s reconcile.Status) {
			mu.Lock()
			defer mu.Unlock()

			_ = enc.Encode(s)
		}

		d := reconcile.NewDraft(cfg)
		defer d.Close()

		switch {
		case o.Photo != "":
			data, err := os.ReadFile(o.Photo)
			if err != nil {
				return err
			}

			if err := d.AttachPhoto(data); err != nil {
				return err
			}
		case hasLat:
			if err := d.EditCoordinates(spatial.Point{Lat: o.Lat, Lng: o.Lng}); err != nil {
				return err
			}
		default:
			if err := d.EditAddress(o.Address); err != nil {
				return err
			}
		}

		d.Wait()

		mu.Lock()
		defer mu.Unlock()

		fmt.Println()

		enc.SetIndent("", "  ")

		return enc.Encode(d.Resolution())
	},
}

// matchLines matches one address per line of stdin against catalog.
func matchLines(catalog *region.Catalog) error {
	input := os.Stdin
	if isTerminal(input) {
		fmt.Fprintln(os.Stderr, "Enter addresses to match, one per line…")
	}

	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		text := scanner.Text()
		res := match.Match(catalog, text)

		s, err := json.Marshal(res)
		if err != nil {
			return err
		}

		fmt.Printf("%s\t\t%s\n", text, s)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	return nil
}

func init() {
	f := resolveCmd.Flags()
	f.StringVar(&resolveOptions.Address, "address", "", "address text")
	f.Float64Var(&resolveOptions.Lat, "lat", 0, "latitude")
	f.Float64Var(&resolveOptions.Lng, "lng", 0, "longitude")
	f.StringVar(&resolveOptions.Photo, "photo", "", "JPEG or TIFF photo carrying a GPS position")

	rootCmd.AddCommand(resolveCmd)
}
