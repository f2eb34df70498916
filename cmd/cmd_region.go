// Copyright 2025 The JalanKu Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/jalanku/jalanku/region"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var regionCmd = &cobra.Command{
	Use:   "region",
	Short: "Manage the administrative reference data",
}

var regionLoadOptions = struct {
	CSV     string
	JSON    string
	Charset string
}{}

var regionLoadCmd = &cobra.Command{
	Use:   "load",
	Short: "Imports provinces, regencies and districts",
	Long: `Imports the administrative code list into the reference database.

The CSV format is code,name[,lat,lng] with dotted codes (35, 35.78,
35.78.09); the level and the parent follow from the code. A JSON file
written by "region export" is accepted too. Every parent must exist in the
file or the database; an orphan aborts the import.

$ jalanku region load --csv kecamatan.csv --charset windows-1252
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		o := regionLoadOptions
		if (o.CSV == "") == (o.JSON == "") {
			return errors.New("exactly one of --csv or --json is required")
		}

		var (
			nodes []region.Node
			err   error
		)

		if o.CSV != "" {
			nodes, err = readCSVFile(o.CSV, o.Charset)
		} else {
			nodes, err = region.ReadJSON(o.JSON)
		}

		if err != nil {
			return err
		}

		s, err := loadSettings()
		if err != nil {
			return err
		}

		repo, err := openRepository(s)
		if err != nil {
			return err
		}
		defer repo.DB().Close()

		var bar *progressbar.ProgressBar
		if isatty.IsTerminal(os.Stderr.Fd()) {
			bar = progressbar.NewOptions(len(nodes),
				progressbar.OptionSetDescription("Importing regions"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}

		n, err := repo.Import(cmd.Context(), nodes, func(done int) {
			if bar != nil {
				_ = bar.Set(done)
			}
		})
		if bar != nil {
			_ = bar.Finish()
		}

		if err != nil {
			return fmt.Errorf("importing: %w", err)
		}

		log.Printf("Imported %d regions into %s", n, s.Region.DBPath)

		return nil
	},
}

func readCSVFile(path, charset string) ([]region.Node, error) {
	f, err := os.Open(path) // #nosec G304 - path is provided by admin
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return region.ReadCSV(f, charset)
}

var regionExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Writes the reference data as a JSON seed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings()
		if err != nil {
			return err
		}

		repo, err := openRepository(s)
		if err != nil {
			return err
		}
		defer repo.DB().Close()

		n, err := region.ExportToJSON(cmd.Context(), repo, args[0])
		if err != nil {
			return err
		}

		log.Printf("Exported %d regions to %s", n, args[0])

		return nil
	},
}

var regionListCmd = &cobra.Command{
	Use:   "list [province [regency]]",
	Short: "Lists provinces, or the children of a province or regency",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings()
		if err != nil {
			return err
		}

		repo, err := openRepository(s)
		if err != nil {
			return err
		}
		defer repo.DB().Close()

		var nodes []region.Node

		switch len(args) {
		case 0:
			nodes, err = repo.ListProvinces(cmd.Context())
		case 1:
			nodes, err = repo.ListRegencies(cmd.Context(), args[0])
		default:
			nodes, err = repo.ListDistricts(cmd.Context(), args[1])
		}

		if err != nil {
			return err
		}

		a, b := strings.Repeat("─", 8), strings.Repeat("─", 40)
		fmt.Printf("╭─%-8s─┬─%-40s╮\n", a, b)
		fmt.Printf("│ %-8s │ %-40s│\n", "Code", "Name")
		fmt.Printf("├─%-8s─┼─%-40s┤\n", a, b)

		for _, n := range nodes {
			fmt.Printf("│ %-8s │ %-40s│\n", n.Code, n.Name)
		}

		fmt.Printf("╰─%-8s─┴─%-40s╯\n", a, b)

		return nil
	},
}

func init() {
	regionLoadCmd.Flags().StringVar(&regionLoadOptions.CSV, "csv", "", "CSV code list")
	regionLoadCmd.Flags().StringVar(&regionLoadOptions.JSON, "json", "", "JSON seed written by region export")
	regionLoadCmd.Flags().StringVar(&regionLoadOptions.Charset, "charset", "", "CSV encoding (default UTF-8), e.g. windows-1252")

	regionCmd.AddCommand(regionLoadCmd, regionExportCmd, regionListCmd)
	rootCmd.AddCommand(regionCmd)
}
