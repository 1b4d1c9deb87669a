// Package chart owns the [CHART]...[/CHART] 嵌入约定：从大模型回答中提取图表
// 配置、校验补全，并把纯文字部分分离出来。约定本身比较脆弱（哨兵字符串包
// JSON），所以所有解析与修复逻辑都集中在这一个包里，调用方只见到
// (text, option) 的结果。
package chart

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	chartmodel "github.com/wtwq666/smartdata/internal/model/chart"
)

const (
	beginMarker = "[CHART]"
	endMarker   = "[/CHART]"
)

// Instruction 是附加在每个用户问题后的固定提示，告诉模型图表的嵌入格式。
const Instruction = "\n\n若查询结果适合可视化（如对比、趋势、占比），请在回答末尾附带 [CHART]{...ECharts option JSON...}[/CHART] 格式的图表配置。"

// ErrParse reports a marker block whose payload is not a JSON object.
var ErrParse = errors.New("chart payload is not a JSON object")

// Split separates an agent answer into display text and an optional chart
// option. The first marker pair is used; the whole marker span is removed
// from the text even when the payload is malformed, so the user always gets
// the prose. A broken payload never escapes as an error.
func Split(full string) (string, chartmodel.Option) {
	start, end, ok := locate(full)
	if !ok {
		return strings.TrimSpace(full), nil
	}

	text := strings.TrimSpace(full[:start] + full[end:])
	payload := strings.TrimSpace(full[start+len(beginMarker) : end-len(endMarker)])

	opt, err := parsePayload(payload)
	if err != nil {
		log.Printf("[chart] dropping embedded chart: %v", err)
		return text, nil
	}

	return text, Normalize(opt)
}

// Strip removes the marker span from historical assistant content so that
// chart markup is never fed back into the model's context.
func Strip(content string) string {
	start, end, ok := locate(content)
	if !ok {
		return content
	}
	return strings.TrimSpace(content[:start] + content[end:])
}

// Normalize validates and repairs a chart option: inject an axis-triggered
// tooltip when absent and default every untyped series entry to "bar".
// Fields supplied by the model are never removed or overwritten, and running
// Normalize twice yields the same result.
func Normalize(opt chartmodel.Option) chartmodel.Option {
	if opt == nil {
		return nil
	}

	out := make(chartmodel.Option, len(opt)+1)
	for k, v := range opt {
		out[k] = v
	}

	if _, ok := out["tooltip"]; !ok {
		out["tooltip"] = map[string]any{
			"trigger":     "axis",
			"axisPointer": map[string]any{"type": "shadow"},
		}
	}

	for _, entry := range out.Series() {
		series, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if _, ok := series["type"]; !ok {
			series["type"] = "bar"
		}
	}

	return out
}

// locate finds the first begin/end marker pair and returns the span covering
// the whole block, markers included.
func locate(s string) (start, end int, ok bool) {
	start = strings.Index(s, beginMarker)
	if start < 0 {
		return 0, 0, false
	}
	rest := strings.Index(s[start+len(beginMarker):], endMarker)
	if rest < 0 {
		return 0, 0, false
	}
	end = start + len(beginMarker) + rest + len(endMarker)
	return start, end, true
}

func parsePayload(payload string) (chartmodel.Option, error) {
	var value any
	if err := json.Unmarshal([]byte(payload), &value); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	obj, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrParse, value)
	}
	return chartmodel.Option(obj), nil
}
