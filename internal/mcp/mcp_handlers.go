package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/huangsam/hockeystick/core"
	"github.com/huangsam/hockeystick/core/algo"
	"github.com/huangsam/hockeystick/internal/contract"
	"github.com/huangsam/hockeystick/schema"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
}

// topicResult is the analyze_topic payload.
type topicResult struct {
	schema.TopicAnalysis
	Segments []schema.SegmentRow `json:"segments"`
}

func (h *toolHandler) handleDetectChangePoints(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	values, err := numberSlice(request.GetArguments(), "values")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid values: %v", err)), nil
	}

	opts := core.SelectOptionsFromConfig(h.baseCfg)
	opts.MaxBkps = request.GetInt("max_bkps", opts.MaxBkps)
	opts.Jump = request.GetInt("jump", opts.Jump)
	opts.MinSize = request.GetInt("min_size", opts.MinSize)
	if c := request.GetString("cost", ""); c != "" {
		opts.Cost = schema.CostModel(c)
	}
	if err := opts.Validate(); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid selection parameters: %v", err)), nil
	}

	seg, err := algo.SelectBreakpoints(values, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("change point detection failed: %v", err)), nil
	}

	jsonData, err := json.MarshalIndent(seg, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode segmentation: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleAnalyzeTopic(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	topic := request.GetString("topic", "")
	if topic == "" {
		return mcp.NewToolResultError("topic is required"), nil
	}
	cfg.Topics = []string{topic}

	if tf := request.GetString("timeframe", ""); tf != "" {
		if err := contract.RevalidateTimeframe(cfg, tf); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid timeframe: %v", err)), nil
		}
	}
	if k := request.GetInt("max_bkps", 0); k != 0 {
		if k < 1 || k > contract.MaxMaxBkps {
			return mcp.NewToolResultError(fmt.Sprintf("max_bkps must be between 1 and %d", contract.MaxMaxBkps)), nil
		}
		cfg.MaxBkps = k
	}
	cfg.SkipCharts = !request.GetBool("plot", false)

	source, err := core.NewSeriesSource(cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	analyses, err := core.RunAnalyze(ctx, cfg, source, h.mgr, nil)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}
	if len(analyses) == 0 {
		return mcp.NewToolResultError("analysis produced no result"), nil
	}

	result := topicResult{
		TopicAnalysis: analyses[0],
		Segments:      schema.BuildSegmentRows(analyses),
	}
	if result.Segments == nil {
		result.Segments = []schema.SegmentRow{}
	}
	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode analysis: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

// numberSlice reads a JSON number array argument.
func numberSlice(args map[string]any, key string) ([]float64, error) {
	raw, ok := args[key]
	if !ok {
		return nil, fmt.Errorf("%s is required", key)
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%s must be an array of numbers", key)
	}
	out := make([]float64, 0, len(items))
	for i, item := range items {
		switch v := item.(type) {
		case float64:
			out = append(out, v)
		case int:
			out = append(out, float64(v))
		default:
			return nil, fmt.Errorf("%s[%d] is not a number", key, i)
		}
	}
	return out, nil
}
