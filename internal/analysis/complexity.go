package analysis

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sprite-ai/crev/internal/model"
	"github.com/sprite-ai/crev/internal/rules"
)

// blockHeader matches a line that opens an indentation block.
var blockHeader = regexp.MustCompile(
	`^\s*(?:if|elif|else|for|while|def|class|try|except|finally|with|async\s+(?:def|for|with))\b.*:\s*$`,
)

// frame is one open block. Brace frames close on '}', indentation frames
// close when a later line is indented at or left of the header.
type frame struct {
	brace  bool
	indent int
	loop   bool
}

type blockStack []frame

func (s blockStack) loops() int {
	n := 0
	for _, f := range s {
		if f.loop {
			n++
		}
	}
	return n
}

// closeBrace pops up to and including the innermost brace frame.
func (s blockStack) closeBrace() blockStack {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].brace {
			return s[:i]
		}
	}
	return s
}

// dedent pops indentation frames that a line at indent has left.
func (s blockStack) dedent(indent int) blockStack {
	for len(s) > 0 {
		top := s[len(s)-1]
		if top.brace || indent > top.indent {
			break
		}
		s = s[:len(s)-1]
	}
	return s
}

// ComplexityAnalyzer measures performance-relevant structure: nesting,
// loops, database calls and blocking operations.
type ComplexityAnalyzer struct {
	Policy Policy
}

// NewComplexityAnalyzer returns an analyzer scoring against p.
func NewComplexityAnalyzer(p Policy) *ComplexityAnalyzer {
	return &ComplexityAnalyzer{Policy: p}
}

func (a *ComplexityAnalyzer) Category() model.Category { return model.CategoryPerformance }

type complexityStats struct {
	maxDepth      int
	loops         int
	nestedLoops   int
	maxLoopDepth  int
	queries       int
	queriesInLoop int
	blocking      int
	async         int
	lines         int
}

func (a *ComplexityAnalyzer) Analyze(sub model.Submission) ([]model.Finding, model.MetricSet) {
	p := a.Policy.Complexity
	limit := newFindingCap(a.Policy.MaxFindingsPerRule)
	findings := []model.Finding{}

	var (
		st          complexityStats
		stack       blockStack
		pendingLoop bool
		deepFlagged bool
	)

	for _, l := range splitSource(sub.Code) {
		if !l.Blank {
			st.lines++
		}
		if strings.TrimSpace(l.Bare) == "" {
			continue
		}

		stack = stack.dedent(l.Indent)
		enclosing := stack.loops()
		bare := strings.TrimSpace(l.Bare)

		isLoop := rules.Loop.Matches(l.Bare)
		if isLoop {
			st.loops++
			if enclosing > 0 {
				st.nestedLoops++
				if limit.allow(rules.NestedLoop.ID) {
					findings = append(findings, rules.NestedLoop.Finding(l.Num, snippet(l.Raw)))
				}
			}
			if enclosing+1 > st.maxLoopDepth {
				st.maxLoopDepth = enclosing + 1
			}
		}

		if rules.DatabaseCall.Matches(l.Code) {
			st.queries++
			if enclosing > 0 {
				st.queriesInLoop++
				if limit.allow(rules.QueryInLoop.ID) {
					findings = append(findings, rules.QueryInLoop.Finding(l.Num, snippet(l.Raw)))
				}
			}
		}

		if n := len(rules.BlockingCall.Hits(l.Bare)); n > 0 {
			st.blocking += n
			if limit.allow(rules.BlockingCall.ID) {
				findings = append(findings, rules.BlockingCall.Finding(l.Num, snippet(l.Raw)))
			}
		}
		st.async += len(rules.AsyncOperation.Hits(l.Bare))

		// A loop header without a brace hands its loop flag to a brace that
		// opens the next line (Allman style).
		loopBody := isLoop || (pendingLoop && strings.HasPrefix(bare, "{"))
		pendingLoop = false

		// first is the outermost frame opened on this line that is still open.
		first := -1
		for _, c := range l.Bare {
			switch c {
			case '{':
				stack = append(stack, frame{brace: true})
				if first < 0 {
					first = len(stack) - 1
				}
				if len(stack) > st.maxDepth {
					st.maxDepth = len(stack)
				}
			case '}':
				if len(stack) > 0 {
					stack = stack.closeBrace()
				}
				if first >= len(stack) {
					first = -1
				}
			}
		}
		opened := first >= 0

		switch {
		case opened && loopBody:
			stack[first].loop = true
		case blockHeader.MatchString(l.Bare):
			stack = append(stack, frame{indent: l.Indent, loop: isLoop})
			if len(stack) > st.maxDepth {
				st.maxDepth = len(stack)
			}
		case isLoop && !strings.HasSuffix(bare, ";") && !strings.HasSuffix(bare, "}"):
			pendingLoop = true
		}

		if !deepFlagged && st.maxDepth > p.MaxNestingDepth {
			deepFlagged = true
			f := rules.DeepNesting.Finding(l.Num, snippet(l.Raw))
			f.Message = fmt.Sprintf("%s (depth %d, limit %d)", f.Message, st.maxDepth, p.MaxNestingDepth)
			findings = append(findings, f)
		}
	}

	score := 100
	score -= penalty(st.maxDepth-p.MaxNestingDepth, p.NestingPenalty, p.MaxNestingPenalty)
	score -= penalty(st.nestedLoops, p.NestedLoopPenalty, p.MaxNestedLoopPenalty)
	score -= penalty(st.queries-p.MaxQueries, p.QueryPenalty, p.MaxQueryPenalty)
	score -= penalty(st.queriesInLoop, p.QueryInLoopPenalty, p.MaxQueryInLoopPenalty)
	score -= penalty(st.blocking, p.BlockingPenalty, p.MaxBlockingPenalty)

	return findings, model.MetricSet{
		Category: model.CategoryPerformance,
		Metrics: []model.Metric{
			model.Count("max_nesting_depth", st.maxDepth),
			model.Count("loop_count", st.loops),
			model.Count("nested_loop_count", st.nestedLoops),
			model.Count("max_loop_depth", st.maxLoopDepth),
			model.Count("db_query_count", st.queries),
			model.Count("queries_in_loops", st.queriesInLoop),
			model.Count("blocking_operations", st.blocking),
			model.Count("async_operations", st.async),
			model.Count("total_lines", st.lines),
		},
		Score: model.ClampScore(score),
	}
}
