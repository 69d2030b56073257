package articulation

import "strings"

// Repair stage names. They double as warning strings so callers can see
// exactly what was done to a payload before trusting it.
const (
	repairCommas   = "normalized commas"
	repairLiteral  = "completed truncated literal"
	repairString   = "closed unterminated string"
	repairBrackets = "balanced brackets"
)

// normalizeCommas fixes the two comma mistakes that show up in generated
// JSON: a missing comma between a value and the next key, and a trailing
// comma before a closer.
func normalizeCommas(s string) (string, bool) {
	out := make([]byte, 0, len(s)+8)
	var inString, escape, changed bool
	lastSig := byte(0)
	lastSigIdx := -1

	for i := 0; i < len(s); i++ {
		b := s[i]

		if escape {
			escape = false
			out = append(out, b)
			continue
		}
		if inString {
			if b == '\\' {
				escape = true
			} else if b == '"' {
				inString = false
				lastSig = '"'
				lastSigIdx = len(out)
			}
			out = append(out, b)
			continue
		}

		switch b {
		case ' ', '\t', '\r', '\n':
			out = append(out, b)
			continue
		case '"':
			if missingCommaBefore(lastSig) {
				out = append(out, ',')
				changed = true
			}
			inString = true
		case '}', ']':
			if lastSig == ',' && lastSigIdx >= 0 {
				out = append(out[:lastSigIdx], out[lastSigIdx+1:]...)
				changed = true
			}
		}
		lastSig = b
		lastSigIdx = len(out)
		out = append(out, b)
	}

	if !changed {
		return s, false
	}
	return string(out), true
}

// missingCommaBefore reports whether a quote opening a new string directly
// after prev means the separating comma was dropped. Values end on a quote,
// a closer, a digit, or the last letter of true/false/null.
func missingCommaBefore(prev byte) bool {
	switch prev {
	case '"', '}', ']', 'e', 'l':
		return true
	}
	return prev >= '0' && prev <= '9'
}

// completeTruncatedLiteral finishes a bare literal cut off at the end of
// the payload, so "tru" becomes "true" and "fals" becomes "false". Only
// applies when the tail sits at a value position outside any string.
func completeTruncatedLiteral(s string) (string, bool) {
	if scanOpen(s).inString {
		return s, false
	}
	trimmed := strings.TrimRight(s, " \t\r\n")
	for _, lit := range []string{"true", "false", "null"} {
		for cut := 1; cut < len(lit); cut++ {
			prefix := lit[:cut]
			if strings.HasSuffix(trimmed, prefix) && endsAtValuePosition(trimmed, len(trimmed)-len(prefix)) {
				return trimmed + lit[cut:], true
			}
		}
	}
	return s, false
}

// endsAtValuePosition reports whether the byte before index i, skipping
// whitespace, introduces a value.
func endsAtValuePosition(s string, i int) bool {
	for j := i - 1; j >= 0; j-- {
		switch s[j] {
		case ' ', '\t', '\r', '\n':
			continue
		case ':', ',', '[':
			return true
		default:
			return false
		}
	}
	return false
}

// closeUnterminatedString appends the closing quote when the payload ends
// mid-string. A trailing odd-length backslash run would escape the new
// quote, so the dangling backslash is dropped first.
func closeUnterminatedString(s string) (string, bool) {
	if !scanOpen(s).inString {
		return s, false
	}
	n := 0
	for n < len(s) && s[len(s)-1-n] == '\\' {
		n++
	}
	if n%2 == 1 {
		s = s[:len(s)-1]
	}
	return s + `"`, true
}

// balanceBrackets appends closers for every bracket still open at the end
// of the payload, innermost first. A dangling separator is cleaned up so
// the repaired tail stays parseable.
func balanceBrackets(s string) (string, bool) {
	st := scanOpen(s)
	if st.inString || len(st.openStack) == 0 {
		return s, false
	}

	trimmed := strings.TrimRight(s, " \t\r\n")
	if strings.HasSuffix(trimmed, ":") {
		trimmed += " null"
	} else if strings.HasSuffix(trimmed, ",") {
		trimmed = trimmed[:len(trimmed)-1]
	}

	var b strings.Builder
	b.Grow(len(trimmed) + len(st.openStack))
	b.WriteString(trimmed)
	for i := len(st.openStack) - 1; i >= 0; i-- {
		if st.openStack[i] == '{' {
			b.WriteByte('}')
		} else {
			b.WriteByte(']')
		}
	}
	return b.String(), true
}

// stubSection replaces the value of a top-level key with stub. Used when a
// subsection is too mangled to salvage but the rest of the payload is fine.
func stubSection(s, key, stub string) (string, bool) {
	idx := findKeyOutsideStrings(s, key)
	if idx < 0 {
		return s, false
	}

	i := idx + len(key) + 2 // past the quoted key
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	if i >= len(s) || s[i] != ':' {
		return s, false
	}
	i++
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	if i >= len(s) {
		return s + stub, true
	}

	end := valueSpanEnd(s, i)
	return s[:i] + stub + s[end:], true
}

// findKeyOutsideStrings locates `"key"` followed by a colon, skipping over
// string values so a key mentioned inside prose is not mistaken for the
// real one.
func findKeyOutsideStrings(s, key string) int {
	quoted := `"` + key + `"`
	var inString, escape bool
	for i := 0; i < len(s); i++ {
		b := s[i]
		if escape {
			escape = false
			continue
		}
		if inString {
			if b == '\\' {
				escape = true
			} else if b == '"' {
				inString = false
			}
			continue
		}
		if b == '"' {
			if strings.HasPrefix(s[i:], quoted) && colonFollows(s, i+len(quoted)) {
				return i
			}
			inString = true
		}
	}
	return -1
}

func colonFollows(s string, i int) bool {
	for ; i < len(s); i++ {
		if isSpace(s[i]) {
			continue
		}
		return s[i] == ':'
	}
	return false
}

// valueSpanEnd returns the index one past the value starting at i. A
// truncated container or string runs to the end of the payload.
func valueSpanEnd(s string, i int) int {
	switch s[i] {
	case '{', '[':
		var depth int
		var inString, escape bool
		for j := i; j < len(s); j++ {
			b := s[j]
			if escape {
				escape = false
				continue
			}
			if inString {
				if b == '\\' {
					escape = true
				} else if b == '"' {
					inString = false
				}
				continue
			}
			switch b {
			case '"':
				inString = true
			case '{', '[':
				depth++
			case '}', ']':
				depth--
				if depth == 0 {
					return j + 1
				}
			}
		}
		return len(s)
	case '"':
		var escape bool
		for j := i + 1; j < len(s); j++ {
			if escape {
				escape = false
				continue
			}
			if s[j] == '\\' {
				escape = true
				continue
			}
			if s[j] == '"' {
				return j + 1
			}
		}
		return len(s)
	default:
		for j := i; j < len(s); j++ {
			switch s[j] {
			case ',', '}', ']':
				return j
			}
		}
		return len(s)
	}
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}
