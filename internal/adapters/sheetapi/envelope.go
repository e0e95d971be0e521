package sheetapi

// ExtractJSON returns the first balanced JSON object or array found in body.
// Leading framing (")]}'", HTML wrappers, BOMs) and trailing bytes are
// dropped. Brackets inside string literals are ignored.
// POST: ok is false when no balanced value exists
func ExtractJSON(body []byte) (value []byte, ok bool) {
	start := -1
	for i, b := range body {
		if b == '{' || b == '[' {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, false
	}

	var stack []byte
	inString := false
	escaped := false
	for i := start; i < len(body); i++ {
		b := body[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case b == '\\':
				escaped = true
			case b == '"':
				inString = false
			}
			continue
		}
		switch b {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != b {
				return nil, false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return body[start : i+1], true
			}
		}
	}
	return nil, false
}
