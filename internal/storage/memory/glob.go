package memory

// MatchPattern reports whether s matches a Redis glob pattern.
//
// Supported syntax:
//   - "*" matches any sequence, including the empty one
//   - "?" matches one byte
//   - "[abc]", "[a-z]", "[^a]" match a byte class
//   - "\x" matches x literally
//
// Unlike path.Match, "/" has no special meaning and a malformed class is
// matched literally instead of failing.
func MatchPattern(pattern, s string) bool {
	p, i := 0, 0
	// Backtrack point for the most recent '*'.
	starP, starI := -1, 0

	for i < len(s) {
		if p < len(pattern) {
			switch pattern[p] {
			case '*':
				for p < len(pattern) && pattern[p] == '*' {
					p++
				}
				if p == len(pattern) {
					return true
				}
				starP, starI = p, i
				continue
			case '?':
				p++
				i++
				continue
			case '[':
				if matched, next, ok := matchClass(pattern, p, s[i]); ok {
					if matched {
						p = next
						i++
						continue
					}
				} else if s[i] == '[' {
					p++
					i++
					continue
				}
			case '\\':
				if p+1 < len(pattern) && pattern[p+1] == s[i] {
					p += 2
					i++
					continue
				}
			default:
				if pattern[p] == s[i] {
					p++
					i++
					continue
				}
			}
		}
		if starP < 0 {
			return false
		}
		starI++
		p, i = starP, starI
	}

	for p < len(pattern) && pattern[p] == '*' {
		p++
	}
	return p == len(pattern)
}

// matchClass matches c against the class starting at pattern[start] ('[').
// ok is false when the class is not terminated.
func matchClass(pattern string, start int, c byte) (matched bool, next int, ok bool) {
	p := start + 1
	negate := false
	if p < len(pattern) && pattern[p] == '^' {
		negate = true
		p++
	}
	for first := true; p < len(pattern); first = false {
		if pattern[p] == ']' && !first {
			return matched != negate, p + 1, true
		}
		lo := pattern[p]
		if lo == '\\' && p+1 < len(pattern) {
			p++
			lo = pattern[p]
		}
		p++
		hi := lo
		if p+1 < len(pattern) && pattern[p] == '-' && pattern[p+1] != ']' {
			hi = pattern[p+1]
			if hi == '\\' && p+2 < len(pattern) {
				p++
				hi = pattern[p+1]
			}
			p += 2
		}
		if lo > hi {
			lo, hi = hi, lo
		}
		if c >= lo && c <= hi {
			matched = true
		}
	}
	return false, 0, false
}
