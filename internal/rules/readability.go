package rules

import (
	"regexp"

	"github.com/sprite-ai/crev/internal/model"
)

// FunctionDecls match a function declaration on a single line. Each pattern
// captures the function name in the "name" group; the C-like pattern also
// captures the token before the name in "type". Order matters: the first
// matching rule wins.
var FunctionDecls = []Rule{
	{
		ID:       "function-python",
		Category: model.CategoryReadability,
		Severity: model.SeverityLow,
		Kind:     MatchPresent,
		Pattern:  regexp.MustCompile(`^\s*(?:async\s+)?def\s+(?P<name>\w+)\s*\(`),
	},
	{
		ID:       "function-go",
		Category: model.CategoryReadability,
		Severity: model.SeverityLow,
		Kind:     MatchPresent,
		Pattern:  regexp.MustCompile(`^\s*func\s+(?:\([^)]*\)\s*)?(?P<name>\w+)\s*[\[(]`),
	},
	{
		ID:       "function-js",
		Category: model.CategoryReadability,
		Severity: model.SeverityLow,
		Kind:     MatchPresent,
		Pattern:  regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*(?P<name>\w+)\s*\(`),
	},
	{
		ID:       "function-arrow",
		Category: model.CategoryReadability,
		Severity: model.SeverityLow,
		Kind:     MatchPresent,
		Pattern:  regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+(?P<name>\w+)\s*=\s*(?:async\s*)?(?:\([^)]*\)|\w+)\s*=>`),
	},
	{
		ID:       "function-c-like",
		Category: model.CategoryReadability,
		Severity: model.SeverityLow,
		Kind:     MatchPresent,
		Pattern: regexp.MustCompile(
			`^\s*(?:(?:public|private|protected|internal|static|final|virtual|override|abstract|synchronized|async|inline|extern)\s+)*` +
				`(?P<type>[\w<>\[\],.?*&]+)\s+(?P<name>\w+)\s*\([^;]*\)\s*(?:const\s*)?(?:throws\s+[\w.,\s]+)?\{?\s*$`,
		),
	},
}

// Marker rules evaluated by the quality assessor.
var (
	ErrorHandling = Rule{
		ID:          "error-handling",
		Category:    model.CategoryReadability,
		Severity:    model.SeverityLow,
		Description: "Error handling construct",
		Kind:        MatchPresent,
		Pattern: regexp.MustCompile(
			`(?m)\btry\s*(?:[:{]|$)|\bexcept\b|\bcatch\s*[({]|\.catch\s*\(|\bif\s+err\s*!=\s*nil\b|\brescue\b|\bResult<|\bfinally\s*[:{]`,
		),
	}

	Documentation = Rule{
		ID:          "documentation",
		Category:    model.CategoryReadability,
		Severity:    model.SeverityLow,
		Description: "Documentation comment",
		Kind:        MatchPresent,
		Pattern:     regexp.MustCompile(`(?m)"""|'''|^\s*///|/\*\*`),
	}

	BroadException = Rule{
		ID:          "broad-exception",
		Category:    model.CategoryReadability,
		Severity:    model.SeverityMedium,
		Description: "Broad exception handler hides unrelated failures",
		Kind:        MatchPresent,
		Pattern: regexp.MustCompile(
			`(?m)(?i:\bexcept\s*:|\bexcept\s+(?:Base)?Exception\s*(?:as\s+\w+\s*)?:)` +
				`|\bcatch\s*\(\s*(?:Exception|Throwable|Error)(?:\s+\w+)?\s*\)` +
				`|\bcatch\s*\{` +
				`|\brescue\s*$` +
				`|\brescue\s+(?:StandardError|Exception)\b` +
				`|\.catch\(\s*(?:_|\(\s*\))\s*=>`,
		),
	}

	TodoMarker = Rule{
		ID:          "todo-marker",
		Category:    model.CategoryReadability,
		Severity:    model.SeverityLow,
		Description: "Leftover work marker",
		Kind:        MatchPresent,
		Pattern:     regexp.MustCompile(`\b(?:TODO|FIXME|HACK|XXX)\b`),
	}
)

// Structural rules raised from computed quality metrics.
var (
	LongFunction = Rule{
		ID:          "long-function",
		Category:    model.CategoryReadability,
		Severity:    model.SeverityMedium,
		Description: "Function body is longer than the configured limit",
		Kind:        MatchStructural,
	}

	NamingViolation = Rule{
		ID:          "naming-convention",
		Category:    model.CategoryReadability,
		Severity:    model.SeverityLow,
		Description: "Function name does not follow a consistent naming convention",
		Kind:        MatchStructural,
	}
)

// Readability is the readability rule set.
var Readability = func() []Rule {
	set := append([]Rule{}, FunctionDecls...)
	return append(set, ErrorHandling, Documentation, BroadException, TodoMarker, LongFunction, NamingViolation)
}()
