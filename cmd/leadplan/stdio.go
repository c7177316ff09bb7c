package main

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"leadplan/engine/internal/errinfo"
	"leadplan/engine/internal/rpc"
)

type engineInfo struct {
	Version       string `json:"version"`
	Model         string `json:"model"`
	HasCredential bool   `json:"has_credential"`
}

var stdioCmd = &cobra.Command{
	Use:   "stdio",
	Short: "Serve JSON-RPC requests on stdin/stdout",
	Long:  "Serve line-delimited JSON-RPC 2.0 on stdin/stdout for embedding in another process. Methods: AgentGeneratePlan, EngineGetInfo.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := current.resolveConfig()
		if err != nil {
			return err
		}
		eng := current.newEngine(cfg)
		server := rpc.NewServer(cmd.InOrStdin(), cmd.OutOrStdout(), current.logger.With("component", "rpc"))
		server.Register("AgentGeneratePlan", eng.AgentGeneratePlan)
		server.Register("EngineGetInfo", func(context.Context, json.RawMessage) (any, *errinfo.ErrorInfo) {
			return engineInfo{Version: version, Model: eng.Model(), HasCredential: eng.HasCredential()}, nil
		})
		return server.Serve(cmd.Context())
	},
}
