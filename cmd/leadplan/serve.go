package main

import (
	"github.com/spf13/cobra"

	"leadplan/engine/internal/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve POST /api/agent over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := current.resolveConfig()
		if err != nil {
			return err
		}
		if serveAddr != "" {
			cfg.ListenAddr = serveAddr
		}
		eng := current.newEngine(cfg)
		server := httpapi.NewServer(eng, httpapi.Options{
			Version:        version,
			AllowedOrigins: cfg.AllowedOrigins,
			RequestTimeout: cfg.Engine.RequestTimeout,
		}, current.logger.With("component", "http"))
		return server.Run(cmd.Context(), cfg.ListenAddr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides settings and LEADPLAN_LISTEN_ADDR)")
}
