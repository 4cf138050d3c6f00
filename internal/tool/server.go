package tool

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewServer returns an MCP server with the decoding and scoring tools. When
// tagger is non-nil the tag_text tool is registered as well.
func NewServer(version string, tagger Tagger) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "nereval", Version: version}, nil)

	mcp.AddTool(server, MetadataDecodeTags, DecodeTags)
	mcp.AddTool(server, MetadataScoreTags, ScoreTags)
	if tagger != nil {
		mcp.AddTool(server, MetadataTagText, TagText(tagger))
	}
	return server
}
