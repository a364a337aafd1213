package rules

import (
	"regexp"

	"github.com/sprite-ai/crev/internal/model"
)

// Marker rules. The complexity analyzer evaluates these per line.
var (
	Loop = Rule{
		ID:          "loop",
		Category:    model.CategoryPerformance,
		Severity:    model.SeverityLow,
		Description: "Loop construct",
		Kind:        MatchPresent,
		Pattern:     regexp.MustCompile(`^\s*(?:for|while|foreach|do|loop|until)\b|\.(?:forEach|each|times)\s*(?:\(|\{|do\b)`),
	}

	DatabaseCall = Rule{
		ID:          "database-call",
		Category:    model.CategoryPerformance,
		Severity:    model.SeverityLow,
		Description: "Database call",
		Kind:        MatchPresent,
		Pattern: regexp.MustCompile(
			`(?i)\.(?:query|exec|raw|find|aggregate|fetchall|fetchone|fetchmany)\w*\s*\(` +
				`|\b(?:select\s.+\bfrom|insert\s+into|update\s+\w+\s+set|delete\s+from)\b`,
		),
	}

	BlockingCall = Rule{
		ID:          "blocking-call",
		Category:    model.CategoryPerformance,
		Severity:    model.SeverityMedium,
		Description: "Blocking operation; it stalls the calling thread",
		Kind:        MatchPresent,
		Pattern: regexp.MustCompile(
			`(?i:\b(?:time\.)?sleep\s*\(|\bthread\.sleep\b|\busleep\s*\(|\.(?:lock|acquire|join|wait|result)\s*\(\s*\))` +
				`|\b[a-z]\w*Sync\s*\(`,
		),
	}

	AsyncOperation = Rule{
		ID:          "async-operation",
		Category:    model.CategoryPerformance,
		Severity:    model.SeverityLow,
		Description: "Asynchronous operation",
		Kind:        MatchPresent,
		Pattern:     regexp.MustCompile(`\b(?:async|await)\b|\bPromise\b|\bgo\s+(?:func\b|\w+\()`),
	}
)

// Structural rules raised from computed complexity metrics.
var (
	DeepNesting = Rule{
		ID:          "deep-nesting",
		Category:    model.CategoryPerformance,
		Severity:    model.SeverityMedium,
		Description: "Block nesting exceeds the configured depth",
		Kind:        MatchStructural,
	}

	NestedLoop = Rule{
		ID:          "nested-loop",
		Category:    model.CategoryPerformance,
		Severity:    model.SeverityMedium,
		Description: "Loop nested inside another loop; cost grows multiplicatively",
		Kind:        MatchStructural,
	}

	QueryInLoop = Rule{
		ID:          "query-in-loop",
		Category:    model.CategoryPerformance,
		Severity:    model.SeverityHigh,
		Description: "Database call inside a loop (N+1 query pattern)",
		Kind:        MatchStructural,
	}
)

// Performance is the performance rule set.
var Performance = []Rule{Loop, DatabaseCall, BlockingCall, AsyncOperation, DeepNesting, NestedLoop, QueryInLoop}
