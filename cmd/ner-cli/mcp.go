package main

import (
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/go-nereval/internal/tool"
)

var mcpFlags modelFlags

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve decode_tags, score_tags and tag_text over MCP on stdio",
	Long: "Serve the decoding and scoring tools over the Model Context Protocol on stdio. " +
		"tag_text is only available when a model is given.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger := newLogger()

		var tagger tool.Tagger
		if mcpFlags.configured() {
			t, err := mcpFlags.open(logger)
			if err != nil {
				return fmt.Errorf("creating tagger: %w", err)
			}
			defer func() { _ = t.Close() }()
			tagger = t
		}

		logger.Info("serving MCP on stdio", "tag_text", tagger != nil)
		server := tool.NewServer(version, tagger)
		return server.Run(cmd.Context(), &mcp.StdioTransport{})
	},
}

func init() {
	mcpFlags.register(mcpCmd)
}
