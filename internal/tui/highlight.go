package tui

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/sprite-ai/crev/internal/analysis"
)

// highlightLines renders each source line with dracula token colors. Lines
// are returned unstyled when no lexer fits.
func highlightLines(language, code string) []string {
	if code == "" {
		return nil
	}
	code = strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(code)
	lines := strings.Split(strings.TrimSuffix(code, "\n"), "\n")

	lexer := analysis.LexerFor(language, code)
	if lexer == nil {
		return lines
	}
	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return lines
	}

	style := styles.Get("dracula")
	if style == nil {
		style = styles.Fallback
	}

	result := make([]string, 0, len(lines))
	var current strings.Builder
	for _, token := range iterator.Tokens() {
		// Split tokens that span multiple lines
		parts := strings.Split(token.Value, "\n")
		for i, part := range parts {
			if i > 0 {
				result = append(result, current.String())
				current.Reset()
			}
			if part != "" {
				current.WriteString(colorize(style, token.Type, part))
			}
		}
	}
	if current.Len() > 0 {
		result = append(result, current.String())
	}

	// Pad result if we have fewer lines than input
	for len(result) < len(lines) {
		result = append(result, "")
	}
	return result[:len(lines)]
}

func colorize(style *chroma.Style, tt chroma.TokenType, text string) string {
	entry := style.Get(tt)
	if !entry.Colour.IsSet() {
		return text
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(entry.Colour.String())).Render(text)
}
