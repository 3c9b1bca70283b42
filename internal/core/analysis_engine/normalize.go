package analysis_engine

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/medscanlabs/mediscan/internal/models"
)

const maxFieldChars = 500

// parseModelOutput turns the raw model response into a JSON object.
// Strategy is strict parse first, then one retry after stripping a
// markdown code fence. Anything else is a typed failure; no speculative
// regex repair, which risks corrupting genuine values.
func parseModelOutput(raw string) (map[string]any, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("empty model response: %w", models.ErrInvalidModelOutput)
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(trimmed), &obj); err == nil {
		return obj, nil
	}

	stripped := stripCodeFence(trimmed)
	if err := json.Unmarshal([]byte(stripped), &obj); err != nil {
		return nil, fmt.Errorf("model response is not a JSON object: %w", models.ErrInvalidModelOutput)
	}
	return obj, nil
}

// stripCodeFence removes one surrounding markdown fence, with or without
// a language tag. Input without a fence is returned unchanged.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		// drop the language tag line (```json)
		first := strings.TrimSpace(s[:i])
		if first == "json" || first == "JSON" || first == "" {
			s = s[i+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// normalize coerces a parsed model object into the fixed result shape.
// Models drift: summaries arrive as lists, findings values as numbers,
// recommendations as a single string. Each field is coerced independently
// so one malformed field does not discard the rest.
func normalize(obj map[string]any) *models.AnalysisResult {
	return &models.AnalysisResult{
		Summary:         truncate(asString(obj["summary"]), maxFieldChars),
		KeyFindings:     asStringMap(obj["key_findings"]),
		Recommendations: asStringSlice(obj["recommendations"]),
		InsightsOneLine: truncate(asString(obj["insights"]), maxFieldChars),
	}
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := asString(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "; ")
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s: %s", k, asString(t[k])))
		}
		return strings.Join(parts, "; ")
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func asStringMap(v any) map[string]string {
	m, ok := v.(map[string]any)
	if !ok {
		return map[string]string{}
	}
	out := make(map[string]string, len(m))
	for k, item := range m {
		out[k] = truncate(asString(item), maxFieldChars)
	}
	return out
}

func asStringSlice(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := asString(item); s != "" {
				out = append(out, truncate(s, maxFieldChars))
			}
		}
		return out
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{truncate(s, maxFieldChars)}
		}
	}
	return []string{}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
