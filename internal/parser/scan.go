package parser

import (
	"regexp"
	"strings"

	"github.com/tordrt/schemaconv/internal/schema"
)

// block is a brace-delimited declaration found by findBlocks
type block struct {
	Name string
	Body string
}

// entry is one key/value pair of an object literal
type entry struct {
	Key   string
	Value string
}

// findBlocks returns every block whose header matches re. The first capture
// group of re is the block name; the match must end at or before the opening brace.
func findBlocks(text string, re *regexp.Regexp) []block {
	var blocks []block
	for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
		open := strings.IndexByte(text[loc[1]-1:], '{')
		if open < 0 {
			continue
		}
		open += loc[1] - 1
		end := matchClose(text, open)
		if end < 0 {
			continue
		}
		blocks = append(blocks, block{
			Name: text[loc[2]:loc[3]],
			Body: text[open+1 : end],
		})
	}
	return blocks
}

// callArgs returns the text between the parenthesis that opens at or after
// index start and its balanced closing parenthesis
func callArgs(text string, start int) (string, bool) {
	open := strings.IndexByte(text[start:], '(')
	if open < 0 {
		return "", false
	}
	open += start
	end := matchClose(text, open)
	if end < 0 {
		return "", false
	}
	return text[open+1 : end], true
}

// matchClose returns the index of the delimiter closing the one at open, or -1.
// Quoted strings and line comments are skipped.
func matchClose(text string, open int) int {
	var stack []byte
	var quote byte
	for i := open; i < len(text); i++ {
		c := text[i]
		if quote != 0 {
			if c == '\\' {
				i++
				continue
			}
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'', '`':
			quote = c
		case '/':
			if i+1 < len(text) && text[i+1] == '/' {
				nl := strings.IndexByte(text[i:], '\n')
				if nl < 0 {
					return -1
				}
				i += nl
			}
		case '(', '[', '{':
			stack = append(stack, closer(c))
		case ')', ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return -1
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i
			}
		}
	}
	return -1
}

func closer(c byte) byte {
	switch c {
	case '(':
		return ')'
	case '[':
		return ']'
	default:
		return '}'
	}
}

// splitTopLevel splits s on sep wherever it is not nested in brackets or quotes
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	var quote byte
	last := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == '\\' {
				i++
				continue
			}
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'', '`':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
		case sep:
			if depth == 0 {
				parts = append(parts, s[last:i])
				last = i + 1
			}
		}
	}
	parts = append(parts, s[last:])

	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// objectEntries parses the inside of a JavaScript object literal
func objectEntries(body string) []entry {
	var entries []entry
	for _, part := range splitTopLevel(stripLineComments(body), ',') {
		idx := topLevelIndex(part, ':')
		if idx < 0 {
			continue
		}
		key := unquote(strings.TrimSpace(part[:idx]))
		if !identRe.MatchString(key) {
			continue
		}
		entries = append(entries, entry{Key: key, Value: strings.TrimSpace(part[idx+1:])})
	}
	return entries
}

// topLevelIndex returns the first index of c outside brackets and quotes
func topLevelIndex(s string, c byte) int {
	depth := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if quote != 0 {
			if ch == '\\' {
				i++
				continue
			}
			if ch == quote {
				quote = 0
			}
			continue
		}
		switch ch {
		case '"', '\'', '`':
			quote = ch
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case c:
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// innerOf strips one pair of enclosing delimiters when s starts with open
func innerOf(s string, open, close byte) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != open || s[len(s)-1] != close {
		return "", false
	}
	return s[1 : len(s)-1], true
}

var identRe = regexp.MustCompile(`^[A-Za-z_$][\w$]*$`)

// unquote removes one layer of matching quotes
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'' || first == '`') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// stringList parses a bracketed or bare comma list of literals
func stringList(s string) []string {
	if inner, ok := innerOf(s, '[', ']'); ok {
		s = inner
	}
	var out []string
	for _, part := range splitTopLevel(s, ',') {
		out = append(out, unquote(part))
	}
	return out
}

// stripLineComments drops // comments that are not inside quotes
func stripLineComments(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if idx := commentIndex(line); idx >= 0 {
			lines[i] = line[:idx]
		}
	}
	return strings.Join(lines, "\n")
}

func commentIndex(line string) int {
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		if quote != 0 {
			if c == '\\' {
				i++
				continue
			}
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'', '`':
			quote = c
		case '/':
			if i+1 < len(line) && line[i+1] == '/' {
				return i
			}
		}
	}
	return -1
}

// bodyLines splits a block body into trimmed, non-empty, non-comment lines
func bodyLines(body string) []string {
	var lines []string
	for _, line := range strings.Split(stripLineComments(body), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// orPlaceholder substitutes the placeholder model list for an empty result
func orPlaceholder(models []schema.Model) []schema.Model {
	if len(models) == 0 {
		return schema.Placeholder()
	}
	return models
}
