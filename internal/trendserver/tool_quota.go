package trendserver

import (
	"context"
	"time"

	"github.com/anatolykoptev/go_trending/internal/engine"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerQuotaStatus(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "quota_status",
		Description: "Report today's YouTube Data API quota usage: daily limit, units used, units remaining, and when the budget resets (UTC midnight).",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(_ context.Context, _ *mcp.CallToolRequest, _ engine.QuotaStatusInput) (*mcp.CallToolResult, engine.QuotaStatusOutput, error) {
		snap := ledger.Snapshot()
		return nil, engine.QuotaStatusOutput{
			DailyLimit: snap.DailyLimit,
			Used:       snap.Used,
			Remaining:  snap.Remaining,
			ResetsAt:   snap.ResetsAt.UTC().Format(time.RFC3339),
		}, nil
	})
}
