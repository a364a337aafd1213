package analysis

import (
	"strings"
	"unicode/utf8"
)

// sourceLine is one line of a submission split into views used by the
// analyzers. Code drops comments; Bare also drops string contents, which
// leaves only structure (keywords, braces, identifiers).
type sourceLine struct {
	Num     int
	Raw     string
	Code    string
	Bare    string
	Indent  int
	Blank   bool
	Comment bool // comment text and no code
}

// scanState carries lexical context from one line to the next.
type scanState struct {
	block bool   // inside /* ... */
	quote string // open string delimiter, "" when outside a string
}

// splitSource splits code into lines and strips comments and string literals
// with a language-agnostic scanner. It understands //, # and /* */ comments,
// quoted strings with backslash escapes, and triple-quoted or backtick
// strings spanning lines.
func splitSource(code string) []sourceLine {
	text := normalizeNewlines(code)
	if text == "" {
		return nil
	}
	raw := strings.Split(strings.TrimSuffix(text, "\n"), "\n")

	var st scanState
	lines := make([]sourceLine, 0, len(raw))
	for i, r := range raw {
		l := st.scan(r)
		l.Num = i + 1
		l.Raw = r
		l.Indent = indentWidth(r)
		l.Blank = strings.TrimSpace(r) == ""
		lines = append(lines, l)
	}
	return lines
}

func (st *scanState) scan(text string) sourceLine {
	var code, bare strings.Builder
	comment := false

	i := 0
	for i < len(text) {
		c := text[i]
		switch {
		case st.block:
			comment = true
			if strings.HasPrefix(text[i:], "*/") {
				st.block = false
				i += 2
				continue
			}
			i++

		case st.quote != "":
			if c == '\\' && st.quote != "`" && i+1 < len(text) {
				code.WriteString(text[i : i+2])
				i += 2
				continue
			}
			if strings.HasPrefix(text[i:], st.quote) {
				code.WriteString(st.quote)
				bare.WriteString(st.quote)
				i += len(st.quote)
				st.quote = ""
				continue
			}
			code.WriteByte(c)
			i++

		case strings.HasPrefix(text[i:], "/*"):
			st.block = true
			comment = true
			i += 2

		case strings.HasPrefix(text[i:], "//"),
			c == '#' && (i == 0 || text[i-1] == ' ' || text[i-1] == '\t'):
			comment = true
			i = len(text)

		case strings.HasPrefix(text[i:], `"""`), strings.HasPrefix(text[i:], `'''`):
			st.quote = text[i : i+3]
			code.WriteString(st.quote)
			bare.WriteString(st.quote)
			i += 3

		case c == '"' || c == '\'' || c == '`':
			st.quote = string(c)
			code.WriteByte(c)
			bare.WriteByte(c)
			i++

		default:
			code.WriteByte(c)
			bare.WriteByte(c)
			i++
		}
	}

	// Single-quoted strings never span lines; recover from unbalanced quotes.
	if st.quote == `"` || st.quote == "'" {
		st.quote = ""
	}

	l := sourceLine{Code: code.String(), Bare: bare.String()}
	l.Comment = comment && strings.TrimSpace(l.Code) == ""
	return l
}

var newlines = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// normalizeNewlines converts CRLF and bare CR line endings to LF.
func normalizeNewlines(s string) string {
	return newlines.Replace(s)
}

// indentWidth counts leading whitespace, a tab as four columns.
func indentWidth(s string) int {
	n := 0
	for _, r := range s {
		switch r {
		case ' ':
			n++
		case '\t':
			n += 4
		default:
			return n
		}
	}
	return n
}

const maxSnippetRunes = 120

// snippet trims a source line for display in a finding.
func snippet(line string) string {
	s := strings.TrimSpace(line)
	if utf8.RuneCountInString(s) <= maxSnippetRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxSnippetRunes])
}

// lineStarts returns the byte offset at which each line of text begins.
func lineStarts(text string) []int {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// lineAt maps a byte offset to a 1-based line number.
func lineAt(starts []int, offset int) int {
	lo, hi := 0, len(starts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if starts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo + 1
}

// findingCap bounds how many findings each rule contributes.
type findingCap struct {
	max        int
	counts     map[string]int
	suppressed int
}

func newFindingCap(max int) *findingCap {
	return &findingCap{max: max, counts: make(map[string]int)}
}

// allow reports whether another finding for ruleID may be reported, and
// counts it as suppressed otherwise.
func (c *findingCap) allow(ruleID string) bool {
	if c.max > 0 && c.counts[ruleID] >= c.max {
		c.suppressed++
		return false
	}
	c.counts[ruleID]++
	return true
}
