package analysis

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sprite-ai/crev/internal/model"
	"github.com/sprite-ai/crev/internal/rules"
)

var (
	snakeCase  = regexp.MustCompile(`^_*[a-z][a-z0-9]*(?:_[a-z0-9]+)*_*$`)
	camelCase  = regexp.MustCompile(`^_?[a-z][a-z0-9]*(?:[A-Z0-9]+[a-z0-9]*)*$`)
	pascalCase = regexp.MustCompile(`^[A-Z][a-z0-9]*(?:[A-Z0-9]+[a-z0-9]*)*$`)
)

// placeholderNames are names that say nothing about what a function does.
var placeholderNames = map[string]bool{
	"foo": true, "bar": true, "baz": true, "qux": true, "tmp": true, "temp": true,
	"doit": true, "stuff": true, "thing": true, "asdf": true, "xxx": true, "func1": true,
}

// notFunctionNames are tokens the C-like declaration pattern can pick up from
// control flow or expressions.
var notFunctionNames = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true, "return": true,
	"new": true, "else": true, "throw": true, "await": true, "case": true, "yield": true,
	"delete": true, "go": true, "defer": true, "sizeof": true, "elif": true, "using": true,
}

// validFunctionName reports whether name follows snake_case, camelCase or
// PascalCase, is at least three characters, and is not a placeholder.
func validFunctionName(name string) bool {
	if len(name) < 3 || placeholderNames[strings.ToLower(name)] {
		return false
	}
	return snakeCase.MatchString(name) || camelCase.MatchString(name) || pascalCase.MatchString(name)
}

type function struct {
	name   string
	line   int // 1-based declaration line
	length int // body lines
}

// declName returns the function name declared on a line of code.
func declName(code string) (string, bool) {
	for _, r := range rules.FunctionDecls {
		m := r.Pattern.FindStringSubmatch(code)
		if m == nil {
			continue
		}
		name := m[r.Pattern.SubexpIndex("name")]
		if i := r.Pattern.SubexpIndex("type"); i >= 0 && notFunctionNames[m[i]] {
			return "", false
		}
		if notFunctionNames[name] {
			return "", false
		}
		return name, true
	}
	return "", false
}

// findFunctions locates function declarations and measures their bodies.
// Brace bodies run to the matching '}', indentation bodies to the last line
// indented deeper than the declaration.
func findFunctions(lines []sourceLine) []function {
	var fns []function
	for i, l := range lines {
		name, ok := declName(l.Code)
		if !ok {
			continue
		}
		length, ok := bodyLength(lines, i)
		if !ok {
			continue
		}
		fns = append(fns, function{name: name, line: l.Num, length: length})
	}
	return fns
}

func bodyLength(lines []sourceLine, decl int) (int, bool) {
	head := strings.TrimSpace(lines[decl].Bare)

	start := -1
	switch {
	case strings.Contains(head, "{"):
		start = decl
	case strings.HasSuffix(head, ":"):
		return indentBody(lines, decl), true
	default:
		for j := decl + 1; j < len(lines); j++ {
			next := strings.TrimSpace(lines[j].Bare)
			if next == "" {
				continue
			}
			if strings.HasPrefix(next, "{") {
				start = j
			}
			break
		}
	}
	if start < 0 {
		return 0, false
	}

	depth, end := 0, len(lines)-1
	for j := start; j < len(lines); j++ {
		depth += strings.Count(lines[j].Bare, "{") - strings.Count(lines[j].Bare, "}")
		if depth <= 0 {
			end = j
			break
		}
	}
	return max(end-start-1, 1), true
}

func indentBody(lines []sourceLine, decl int) int {
	indent := lines[decl].Indent
	last := decl
	for j := decl + 1; j < len(lines); j++ {
		if strings.TrimSpace(lines[j].Bare) == "" {
			continue
		}
		if lines[j].Indent <= indent {
			break
		}
		last = j
	}
	return max(last-decl, 1)
}

// QualityAssessor measures maintainability: comments, function size,
// naming, error handling and line length.
type QualityAssessor struct {
	Policy Policy
}

// NewQualityAssessor returns an assessor scoring against p.
func NewQualityAssessor(p Policy) *QualityAssessor {
	return &QualityAssessor{Policy: p}
}

func (q *QualityAssessor) Category() model.Category { return model.CategoryReadability }

func (q *QualityAssessor) Analyze(sub model.Submission) ([]model.Finding, model.MetricSet) {
	p := q.Policy.Quality
	lines := splitSource(sub.Code)
	limit := newFindingCap(q.Policy.MaxFindingsPerRule)
	findings := []model.Finding{}

	marks, lexed := commentLines(sub.Language, sub.Code, len(lines))

	var total, comments, longLines, broad, todos int
	var code strings.Builder
	for i, l := range lines {
		if l.Blank {
			continue
		}
		total++
		if (lexed && marks[i]) || (!lexed && l.Comment) {
			comments++
		}
		if utf8.RuneCountInString(l.Raw) > p.MaxLineLength {
			longLines++
		}
		code.WriteString(l.Code)
		code.WriteByte('\n')

		if rules.BroadException.Matches(l.Code) {
			broad++
			if limit.allow(rules.BroadException.ID) {
				findings = append(findings, rules.BroadException.Finding(l.Num, snippet(l.Raw)))
			}
		}
		if rules.TodoMarker.Matches(l.Raw) {
			todos++
			if limit.allow(rules.TodoMarker.ID) {
				findings = append(findings, rules.TodoMarker.Finding(l.Num, snippet(l.Raw)))
			}
		}
	}

	fns := findFunctions(lines)
	var sumLen, maxLen, longFns, badNames int
	for _, fn := range fns {
		sumLen += fn.length
		maxLen = max(maxLen, fn.length)
		if fn.length > p.MaxFunctionLines {
			longFns++
			if limit.allow(rules.LongFunction.ID) {
				f := rules.LongFunction.Finding(fn.line, snippet(lines[fn.line-1].Raw))
				f.Message = fmt.Sprintf("Function %s is %d lines long (limit %d)", fn.name, fn.length, p.MaxFunctionLines)
				findings = append(findings, f)
			}
		}
		if !validFunctionName(fn.name) {
			badNames++
			if limit.allow(rules.NamingViolation.ID) {
				f := rules.NamingViolation.Finding(fn.line, snippet(lines[fn.line-1].Raw))
				f.Message = fmt.Sprintf("Function name %q does not follow a consistent naming convention", fn.name)
				findings = append(findings, f)
			}
		}
	}

	ratio := 0.0
	if total > 0 {
		ratio = float64(comments) / float64(total)
	}
	hasErrors := rules.ErrorHandling.Matches(code.String())
	hasDocs := rules.Documentation.Matches(sub.Code)

	metrics := []model.Metric{
		model.Count("total_lines", total),
		model.Count("comment_lines", comments),
		model.Number("comment_ratio", math.Round(ratio*1000)/1000),
		model.Count("function_count", len(fns)),
	}
	var avg float64
	if len(fns) > 0 {
		avg = float64(sumLen) / float64(len(fns))
		metrics = append(metrics,
			model.Number("avg_function_length", math.Round(avg*10)/10),
			model.Count("max_function_length", maxLen),
			model.Count("long_functions", longFns),
			model.Count("naming_violations", badNames),
		)
	} else {
		metrics = append(metrics,
			model.NotApplicable("avg_function_length"),
			model.NotApplicable("max_function_length"),
			model.NotApplicable("long_functions"),
			model.NotApplicable("naming_violations"),
		)
	}
	metrics = append(metrics,
		model.Flag("has_error_handling", hasErrors),
		model.Count("broad_exception_handlers", broad),
		model.Count("todo_markers", todos),
		model.Flag("has_documentation", hasDocs),
		model.Count("long_lines", longLines),
	)

	score := 100
	if total > 0 {
		score = q.score(ratio, avg, len(fns), badNames, hasErrors, longLines, total)
	}
	return findings, model.MetricSet{
		Category: model.CategoryReadability,
		Metrics:  metrics,
		Score:    model.ClampScore(score),
	}
}

// score combines the weighted components. Components that do not apply
// (no functions) are left out and the remaining weights renormalized.
func (q *QualityAssessor) score(ratio, avg float64, fns, badNames int, hasErrors bool, longLines, total int) int {
	p := q.Policy.Quality
	w := p.Weights

	var sum, weights float64
	add := func(weight int, v float64) {
		sum += float64(weight) * math.Max(0, math.Min(1, v))
		weights += float64(weight)
	}

	if p.TargetCommentRatio > 0 {
		add(w.Comments, ratio/p.TargetCommentRatio)
	} else {
		add(w.Comments, 1)
	}
	if fns > 0 {
		switch {
		case avg <= float64(p.IdealFunctionLength):
			add(w.FunctionLength, 1)
		case avg >= float64(p.WorstFunctionLength):
			add(w.FunctionLength, 0)
		default:
			span := float64(p.WorstFunctionLength - p.IdealFunctionLength)
			add(w.FunctionLength, 1-(avg-float64(p.IdealFunctionLength))/span)
		}
		add(w.Naming, 1-float64(badNames)/float64(fns))
	}
	if hasErrors {
		add(w.ErrorHandling, 1)
	} else {
		add(w.ErrorHandling, 0)
	}
	if float64(longLines)/float64(total) < p.LongLineShare {
		add(w.LineLength, 1)
	} else {
		add(w.LineLength, 1.0/3)
	}

	if weights == 0 {
		return 100
	}
	return int(math.Round(sum / weights * 100))
}
