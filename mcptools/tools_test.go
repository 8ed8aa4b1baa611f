package mcptools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/seo-optimizer/report-engine/analyzer"
	"github.com/seo-optimizer/report-engine/recommend"
)

const page = `{"url":"https://example.com/page","title":"Short","robots":"noindex"}`

// makeReq builds a mcp.CallToolRequest with the given arguments.
func makeReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// resultText extracts the text content from a tool result.
func resultText(r *mcp.CallToolResult) string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// payload returns the JSON part of a tool result.
func payload(t *testing.T, r *mcp.CallToolResult) string {
	t.Helper()
	text := resultText(r)
	i := strings.Index(text, "\n\n")
	if i < 0 {
		t.Fatalf("result has no payload: %q", text)
	}
	return text[i+2:]
}

func TestDefinitions(t *testing.T) {
	engine := analyzer.New()
	tests := []struct {
		def  mcp.Tool
		name string
	}{
		{(&EvaluateTool{engine}).Definition(), "evaluate_snapshot"},
		{(&ScoreTool{engine}).Definition(), "score_snapshot"},
		{(&RecommendTool{engine}).Definition(), "recommend_snapshot"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.def.Name != tt.name {
				t.Errorf("tool name = %q, want %q", tt.def.Name, tt.name)
			}
			if _, ok := tt.def.InputSchema.Properties[snapshotArg]; !ok {
				t.Error("missing 'snapshot' parameter")
			}
		})
	}
}

func TestEvaluateTool(t *testing.T) {
	tool := &EvaluateTool{engine: analyzer.New()}
	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{"snapshot": page}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result: %s", resultText(result))
	}
	if !strings.HasPrefix(resultText(result), "17 rules") {
		t.Errorf("unexpected summary: %q", resultText(result))
	}

	var verdicts []map[string]any
	if err := json.Unmarshal([]byte(payload(t, result)), &verdicts); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	for _, v := range verdicts {
		if v["field"] == "robots" && v["status"] != "invalid" {
			t.Errorf("noindex robots should be invalid, got %v", v["status"])
		}
	}
}

func TestScoreTool(t *testing.T) {
	tool := &ScoreTool{engine: analyzer.New()}
	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{"snapshot": page}))
	if err != nil || result.IsError {
		t.Fatalf("unexpected failure: %v %s", err, resultText(result))
	}
	if !strings.HasPrefix(resultText(result), "Overall score: ") {
		t.Errorf("unexpected summary: %q", resultText(result))
	}
	var breakdown struct {
		Categories []any `json:"categories"`
	}
	if err := json.Unmarshal([]byte(payload(t, result)), &breakdown); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if len(breakdown.Categories) != 9 {
		t.Errorf("expected 9 categories, got %d", len(breakdown.Categories))
	}
}

func TestRecommendTool(t *testing.T) {
	tool := &RecommendTool{engine: analyzer.New()}
	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{"snapshot": page, "limit": float64(2)}))
	if err != nil || result.IsError {
		t.Fatalf("unexpected failure: %v %s", err, resultText(result))
	}
	var recs []recommend.Recommendation
	if err := json.Unmarshal([]byte(payload(t, result)), &recs); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 recommendations, got %d", len(recs))
	}
	if recs[0].Priority != recommend.High {
		t.Errorf("expected a high priority first, got %s", recs[0].Priority)
	}
}

func TestInvalidSnapshotArgument(t *testing.T) {
	tool := &ScoreTool{engine: analyzer.New()}
	for _, arg := range []interface{}{nil, "", "[1]", `{"title":"x"}`} {
		args := map[string]interface{}{}
		if arg != nil {
			args["snapshot"] = arg
		}
		result, err := tool.Handle(context.Background(), makeReq(args))
		if err != nil {
			t.Fatalf("protocol error for %v: %v", arg, err)
		}
		if !result.IsError {
			t.Errorf("expected error result for %v", arg)
		}
	}
}

func TestNewServer(t *testing.T) {
	s := NewServer(analyzer.New())
	msg := s.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("failed to encode response: %v", err)
	}
	for _, name := range []string{"evaluate_snapshot", "score_snapshot", "recommend_snapshot"} {
		if !strings.Contains(string(data), `"`+name+`"`) {
			t.Errorf("tool %s not listed in %s", name, data)
		}
	}
}
