// Package mcptools exposes the report engine as MCP tools over stdio.
//
// Each tool follows the same shape: a struct holding the engine, a
// Definition with the tool schema and a Handle that processes the call.
// Tool failures are reported as error results, never as protocol errors.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/seo-optimizer/report-engine/analyzer"
	"github.com/seo-optimizer/report-engine/compliance"
	"github.com/seo-optimizer/report-engine/snapshot"
)

// Version is set at build time via ldflags.
var Version = "dev"

const snapshotArg = "snapshot"

// NewServer creates an MCP server with every report tool registered.
func NewServer(engine *analyzer.Engine) *server.MCPServer {
	s := server.NewMCPServer(
		"seo-report-engine",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	evaluate := &EvaluateTool{engine: engine}
	s.AddTool(evaluate.Definition(), evaluate.Handle)

	score := &ScoreTool{engine: engine}
	s.AddTool(score.Definition(), score.Handle)

	recommend := &RecommendTool{engine: engine}
	s.AddTool(recommend.Definition(), recommend.Handle)

	return s
}

func withSnapshot() mcp.ToolOption {
	return mcp.WithString(snapshotArg,
		mcp.Required(),
		mcp.Description("Site analysis snapshot as a JSON object; only url is required"),
	)
}

// parseSnapshot decodes the snapshot argument. The returned result is
// non-nil when the argument is unusable.
func parseSnapshot(req mcp.CallToolRequest) (*snapshot.AnalysisSnapshot, *mcp.CallToolResult) {
	raw := req.GetString(snapshotArg, "")
	if strings.TrimSpace(raw) == "" {
		return nil, mcp.NewToolResultError("'snapshot' is required")
	}
	snap, err := snapshot.Decode([]byte(raw))
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	return snap, nil
}

// jsonResult renders a one-line summary followed by the indented payload.
func jsonResult(summary string, payload any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(summary + "\n\n" + string(data)), nil
}

// EvaluateTool handles the evaluate_snapshot MCP tool.
type EvaluateTool struct {
	engine *analyzer.Engine
}

func (t *EvaluateTool) Definition() mcp.Tool {
	return mcp.NewTool("evaluate_snapshot",
		mcp.WithDescription("Check every SEO compliance rule against a site analysis snapshot and return one verdict per field."),
		withSnapshot(),
	)
}

func (t *EvaluateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, bad := parseSnapshot(req)
	if bad != nil {
		return bad, nil
	}
	verdicts, err := t.engine.Evaluate(snap)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	counts := compliance.Summarize(verdicts)
	summary := fmt.Sprintf("%d rules (table %s): %d optimal, %d needs improvement, %d missing, %d invalid",
		len(verdicts), compliance.TableVersion,
		counts[compliance.Optimal], counts[compliance.NeedsImprovement],
		counts[compliance.Missing], counts[compliance.Invalid])
	return jsonResult(summary, verdicts)
}

// ScoreTool handles the score_snapshot MCP tool.
type ScoreTool struct {
	engine *analyzer.Engine
}

func (t *ScoreTool) Definition() mcp.Tool {
	return mcp.NewTool("score_snapshot",
		mcp.WithDescription("Score a site analysis snapshot out of 100 with a grade, per-category scores, issues and strengths."),
		withSnapshot(),
	)
}

func (t *ScoreTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, bad := parseSnapshot(req)
	if bad != nil {
		return bad, nil
	}
	_, breakdown, err := t.engine.Score(snap)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	summary := fmt.Sprintf("Overall score: %d / 100 (%s)", breakdown.Overall, breakdown.Grade)
	return jsonResult(summary, breakdown)
}

// RecommendTool handles the recommend_snapshot MCP tool.
type RecommendTool struct {
	engine *analyzer.Engine
}

func (t *RecommendTool) Definition() mcp.Tool {
	return mcp.NewTool("recommend_snapshot",
		mcp.WithDescription("Return ranked, deduplicated remediation recommendations for a site analysis snapshot."),
		withSnapshot(),
		mcp.WithNumber("limit",
			mcp.Description("Max recommendations to return (default: all)"),
		),
	)
}

func (t *RecommendTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, bad := parseSnapshot(req)
	if bad != nil {
		return bad, nil
	}
	breakdown, recs, err := t.engine.Recommend(snap)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	total := len(recs)
	if limit := intArg(req, "limit", 0); limit > 0 && limit < total {
		recs = recs[:limit]
	}
	summary := fmt.Sprintf("%d of %d recommendations (score %d / 100, %s)", len(recs), total, breakdown.Overall, breakdown.Grade)
	return jsonResult(summary, recs)
}

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}
