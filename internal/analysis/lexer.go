package analysis

import (
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
)

// LexerFor resolves a chroma lexer from a language hint (lexer name, alias
// or filename), falling back to content analysis. Returns nil when nothing
// fits.
func LexerFor(language, code string) chroma.Lexer {
	var lexer chroma.Lexer
	if language != "" {
		lexer = lexers.Get(language)
		if lexer == nil {
			lexer = lexers.Match(language)
		}
		if lexer == nil {
			if ext := filepath.Ext(language); ext != "" {
				lexer = lexers.Match("file" + ext)
			}
		}
	}
	if lexer == nil && code != "" {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		return nil
	}
	if name := strings.ToLower(lexer.Config().Name); name == "plaintext" || name == "text" {
		return nil
	}
	return chroma.Coalesce(lexer)
}

// commentLines marks, per line, whether the line holds only comment or
// docstring tokens. ok is false when no lexer could be resolved or
// tokenising failed; callers then fall back to the lexical scanner.
func commentLines(language, code string, n int) (marks []bool, ok bool) {
	lexer := LexerFor(language, code)
	if lexer == nil {
		return nil, false
	}
	iterator, err := lexer.Tokenise(nil, normalizeNewlines(code))
	if err != nil {
		return nil, false
	}

	marks = make([]bool, n)
	hasCode := make([]bool, n)
	line := 0
	for _, token := range iterator.Tokens() {
		// Split tokens that span multiple lines
		parts := strings.Split(token.Value, "\n")
		for i, part := range parts {
			if i > 0 {
				line++
			}
			if line >= n {
				break
			}
			if strings.TrimSpace(part) == "" {
				continue
			}
			if isCommentToken(token.Type) {
				marks[line] = true
			} else {
				hasCode[line] = true
			}
		}
	}
	for i := range marks {
		if hasCode[i] {
			marks[i] = false
		}
	}
	return marks, true
}

func isCommentToken(tt chroma.TokenType) bool {
	if tt == chroma.CommentPreproc || tt == chroma.CommentPreprocFile {
		return false
	}
	return tt.InCategory(chroma.Comment) || tt == chroma.LiteralStringDoc
}
