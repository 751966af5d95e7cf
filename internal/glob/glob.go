// Package glob implements shell-style glob matching equivalent to Python's
// fnmatch: "*", "?" and "[...]" are matched against the whole input string,
// with no special treatment of path separators (unlike path/filepath.Match).
package glob

import (
	"regexp"
	"strings"
)

// Match reports whether name matches pattern, both lowercased first so the
// comparison is case-insensitive, per the recovery driver's lowercase
// byte-compare rule.
func Match(pattern, name string) bool {
	re, err := Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(strings.ToLower(name))
}

// Compile translates a glob pattern into a compiled regular expression
// anchored to match the entire (lowercased) input string.
func Compile(pattern string) (*regexp.Regexp, error) {
	pattern = strings.ToLower(pattern)
	var sb strings.Builder
	sb.WriteString("^")

	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch c {
		case '*':
			sb.WriteString(".*")
		case '?':
			sb.WriteString(".")
		case '[':
			end := i + 1
			if end < len(runes) && (runes[end] == '!' || runes[end] == ']') {
				end++
			}
			for end < len(runes) && runes[end] != ']' {
				end++
			}
			if end >= len(runes) {
				// No closing bracket: treat '[' as a literal, matching fnmatch.
				sb.WriteString(regexp.QuoteMeta("["))
				continue
			}
			class := runes[i+1 : end]
			sb.WriteString("[")
			if len(class) > 0 && class[0] == '!' {
				sb.WriteString("^")
				class = class[1:]
			}
			sb.WriteString(regexp.QuoteMeta(string(class)))
			sb.WriteString("]")
			i = end
		default:
			sb.WriteString(regexp.QuoteMeta(string(c)))
		}
	}

	sb.WriteString("$")
	return regexp.Compile(sb.String())
}
