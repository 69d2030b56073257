package main

import (
	"github.com/spf13/cobra"

	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/api"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the learning tools over MCP on stdio",
	Long: `Exposes every registered tool and the learner:// resources to MCP
clients over stdin/stdout. Point an MCP-capable editor or agent at
"pointer mcp" and it can create goals, generate paths, and track
progress in the same workspace the chat REPL uses.

Stdout carries the protocol, so all diagnostics go to stderr and the
workspace log files.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()

		s := api.NewMCPServer(api.Deps{
			Chat:     rt.Chat,
			Journey:  rt.Journey,
			Engine:   rt.Engine,
			Plans:    rt.Plans,
			Registry: rt.Registry,
			Store:    rt.Store,
			Version:  rt.Config.Version,
			Logger:   logger,
		})
		return api.ServeMCPStdio(s)
	},
}
