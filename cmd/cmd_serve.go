// Copyright 2025 The JalanKu Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/jalanku/jalanku/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the report form API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		srv := server.NewServer(server.Options{
			Draft:    a.draftConfig(),
			Store:    a.store,
			Metrics:  a.metrics,
			DraftTTL: a.settings.Server.DraftTTL,
		})
		defer srv.Close()

		return srv.Run(a.settings.Server.Listen)
	},
}

func init() {
	serveCmd.Flags().String("listen", "localhost:8080", "address to listen on")
	serveCmd.Flags().Duration("draft-ttl", server.DefaultDraftTTL, "close drafts idle for this long")
	_ = settings.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
	_ = settings.BindPFlag("server.draft_ttl", serveCmd.Flags().Lookup("draft-ttl"))

	rootCmd.AddCommand(serveCmd)
}
