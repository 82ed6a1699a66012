package classify

// extractJSONObject returns the first balanced JSON object substring found
// in s, tolerating surrounding commentary and code-fence markers. Returns
// "" when no balanced object exists. Braces inside JSON strings are ignored
// by tracking string/escape state, so `{"a": "}"}` extracts whole.
func extractJSONObject(s string) string {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if start >= 0 && inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '{':
			if start < 0 {
				start = i
			}
			depth++
		case '}':
			if start < 0 {
				continue
			}
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		case '"':
			if start >= 0 {
				inString = true
			}
		}
	}

	return ""
}
