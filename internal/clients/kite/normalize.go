package kite

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// The upstream tool service has no fixed response schema across tool
// versions: results arrive as raw text, JSON-encoded text, maps, lists,
// or content-block envelopes. Each known encoding gets its own decoder,
// tried in a fixed priority order, so every supported shape stays
// enumerable and independently testable.

var (
	markedURLPattern = regexp.MustCompile(`URL:\s*(https?://[\w\-./?=&%:]+)`)
	bareURLPattern   = regexp.MustCompile(`https?://[\w\-./?=&%:]+`)
)

// urlCandidateKeys is the preference order for map-shaped results.
var urlCandidateKeys = []string{"text", "message", "url", "data", "content", "structured_content"}

// NormalizeToolResult reduces a tool-call result to a plain value.
// Content-block envelopes unwrap to their first text block; text that
// parses as JSON decodes to the embedded structure; anything else passes
// through unchanged. Normalization never fails and is idempotent.
func NormalizeToolResult(raw any) any {
	value := unwrapEnvelope(raw)

	if s, ok := asText(value); ok {
		var decoded any
		if err := json.Unmarshal([]byte(s), &decoded); err == nil {
			return decoded
		}
		return s
	}
	return value
}

// unwrapEnvelope strips one level of content-block wrapping, if present.
func unwrapEnvelope(raw any) any {
	switch v := raw.(type) {
	case *mcp.CallToolResult:
		if v == nil {
			return nil
		}
		for _, block := range v.Content {
			if tc, ok := block.(*mcp.TextContent); ok {
				return tc.Text
			}
		}
		if v.StructuredContent != nil {
			return v.StructuredContent
		}
		return nil
	case map[string]any:
		cont, ok := v["content"].([]any)
		if !ok || len(cont) == 0 {
			return raw
		}
		first := cont[0]
		if m, ok := first.(map[string]any); ok {
			if text, ok := m["text"]; ok {
				return text
			}
		}
		return first
	default:
		return raw
	}
}

// asText reports whether a value is textual and returns it as a string.
func asText(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case []byte:
		return string(s), true
	default:
		return "", false
	}
}

// ExtractURL finds the first HTTP(S) URL embedded in a tool result of
// any supported shape. An explicit "URL: https://..." marker wins over a
// bare token. Returns the empty string when no URL can be found; never
// fails.
func ExtractURL(raw any) string {
	if raw == nil {
		return ""
	}

	for _, c := range urlCandidates(raw) {
		switch c.(type) {
		case map[string]any, []any, *mcp.CallToolResult:
			if url := ExtractURL(c); url != "" {
				return url
			}
			continue
		}

		s, ok := asText(c)
		if !ok {
			s = fmt.Sprint(c)
		}
		if m := markedURLPattern.FindStringSubmatch(s); m != nil {
			return m[1]
		}
		if m := bareURLPattern.FindString(s); m != "" {
			return m
		}
	}
	return ""
}

// urlCandidates builds the ordered candidate list for one unwrap level.
func urlCandidates(raw any) []any {
	switch v := raw.(type) {
	case string, []byte:
		return []any{v}
	case map[string]any:
		var out []any
		for _, key := range urlCandidateKeys {
			if val, ok := v[key]; ok {
				out = append(out, val)
			}
		}
		return out
	case []any:
		return v
	case *mcp.CallToolResult:
		if v == nil {
			return nil
		}
		var out []any
		for _, block := range v.Content {
			if tc, ok := block.(*mcp.TextContent); ok {
				out = append(out, tc.Text)
			}
		}
		if v.StructuredContent != nil {
			out = append(out, v.StructuredContent)
		}
		return out
	case *mcp.TextContent:
		if v == nil {
			return nil
		}
		return []any{v.Text}
	default:
		return []any{fmt.Sprint(v)}
	}
}
