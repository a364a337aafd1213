package narrative

import (
	"regexp"

	"github.com/sprite-ai/crev/internal/rules"
)

const placeholder = "[REDACTED]"

// secretRules are the security rules whose matches are secret material.
var secretRules = []string{"hardcoded-credential", "cloud-access-key", "private-key"}

var secretPatterns = func() []*regexp.Regexp {
	// Whole PEM blocks first, before the header rule consumes the marker
	patterns := []*regexp.Regexp{
		regexp.MustCompile(`(?s)-----BEGIN [A-Z ]*PRIVATE KEY[A-Z ]*-----.*?-----END [A-Z ]*PRIVATE KEY[A-Z ]*-----`),
	}
	for _, id := range secretRules {
		if r, ok := rules.ByID(id); ok {
			patterns = append(patterns, r.Pattern)
		}
	}
	return patterns
}()

// Redact replaces secret-like values in code before it leaves the process.
func Redact(code string) string {
	for _, re := range secretPatterns {
		code = re.ReplaceAllString(code, placeholder)
	}
	return code
}
