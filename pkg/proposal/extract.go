package proposal

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	fencedObjectPattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(\\{.*\\})\\s*```")
	bareObjectPattern   = regexp.MustCompile(`(?s)\{[\s\S]*\}`)
)

// ExtractJSON pulls a JSON object out of free-form model output. Code fences
// are unwrapped. Valid JSON is returned as is; otherwise trailing commas
// outside string literals are removed. It returns "" when no object is
// present.
func ExtractJSON(content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}
	raw := ""
	if matches := fencedObjectPattern.FindStringSubmatch(content); len(matches) > 1 {
		raw = matches[1]
	} else if match := bareObjectPattern.FindString(content); match != "" {
		raw = match
	}
	if raw == "" {
		return ""
	}
	if json.Valid([]byte(raw)) {
		return raw
	}
	return stripTrailingCommas(raw)
}

// stripTrailingCommas drops a comma when the next non-space byte closes an
// object or array. Bytes inside string literals are copied untouched.
func stripTrailingCommas(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))

	inString := false
	escaped := false
	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		if inString {
			b.WriteByte(ch)
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		if ch == '"' {
			inString = true
			b.WriteByte(ch)
			continue
		}
		if ch == ',' {
			j := i + 1
			for j < len(raw) && isJSONSpace(raw[j]) {
				j++
			}
			if j < len(raw) && (raw[j] == '}' || raw[j] == ']') {
				continue
			}
		}
		b.WriteByte(ch)
	}
	return b.String()
}

func isJSONSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

// ParseText extracts and validates a proposal from model text output.
func ParseText(content string) (Response, error) {
	return Parse([]byte(ExtractJSON(content)))
}
