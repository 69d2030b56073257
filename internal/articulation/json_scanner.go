package articulation

// findJSONCandidates scans the input string for top-level JSON object candidates.
// It returns a slice of strings, each representing a potential JSON object, in
// document order: callers try them in turn and the first parseable span wins,
// which is not necessarily the largest one.
// It handles nested braces and string escaping to correctly identify boundaries.
//
// This function uses a byte-level state machine to efficiently skip over
// strings and non-JSON content, which is significantly cheaper than
// regex-based extraction for large inputs.
//
// Note: It is safe to iterate bytes for ASCII delimiters ({, }, ", \) because
// UTF-8 encoding guarantees that ASCII bytes never appear as part of a multi-byte sequence.
func findJSONCandidates(s string) []string {
	var candidates []string
	var depth int
	var start int = -1
	var inString bool
	var escape bool

	for i := 0; i < len(s); i++ {
		b := s[i]

		// Handle escape sequences inside strings
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

		// Not in string
		if b == '"' {
			inString = true
			continue
		}

		if b == '{' {
			if depth == 0 {
				start = i
			}
			depth++
		} else if b == '}' {
			if depth > 0 {
				depth--
				if depth == 0 && start != -1 {
					// Found a complete top-level object
					candidates = append(candidates, s[start:i+1])
					start = -1
				}
			}
		}
	}

	return candidates
}

// longestCandidate picks the biggest span, the best base for textual repair.
func longestCandidate(candidates []string) string {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if len(c) > len(best) {
			best = c
		}
	}
	return best
}

// scanState captures where the state machine ended up after consuming s.
// Used by the repair pipeline to decide which closers a truncated payload
// still needs.
type scanState struct {
	inString  bool
	openStack []byte // unclosed '{' and '[' in opening order
}

// scanOpen runs the same state machine as findJSONCandidates but keeps the
// bracket stack instead of emitting candidates.
func scanOpen(s string) scanState {
	var st scanState
	var escape bool

	for i := 0; i < len(s); i++ {
		b := s[i]

		if escape {
			escape = false
			continue
		}

		if st.inString {
			if b == '\\' {
				escape = true
			} else if b == '"' {
				st.inString = false
			}
			continue
		}

		switch b {
		case '"':
			st.inString = true
		case '{', '[':
			st.openStack = append(st.openStack, b)
		case '}':
			if n := len(st.openStack); n > 0 && st.openStack[n-1] == '{' {
				st.openStack = st.openStack[:n-1]
			}
		case ']':
			if n := len(st.openStack); n > 0 && st.openStack[n-1] == '[' {
				st.openStack = st.openStack[:n-1]
			}
		}
	}

	return st
}

// firstUnbalancedSpan returns the largest prefix starting at the first '{'
// when no balanced candidate exists. The repair pipeline works on this span.
func firstUnbalancedSpan(s string) (string, bool) {
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
			inString = true
			continue
		}
		if b == '{' {
			return s[i:], true
		}
	}
	return "", false
}
