package analysis

import "github.com/sprite-ai/crev/internal/model"

// Policy holds every threshold and weight the analyzers score against. The
// zero value is not useful; start from DefaultPolicy.
type Policy struct {
	// MaxFindingsPerRule bounds how many findings one rule reports. Further
	// matches are only counted.
	MaxFindingsPerRule int              `yaml:"max_findings_per_rule"`
	SeverityWeights    SeverityWeights  `yaml:"severity_weights"`
	Complexity         ComplexityPolicy `yaml:"complexity"`
	Quality            QualityPolicy    `yaml:"quality"`
}

// SeverityWeights is the score penalty per triggered security rule.
type SeverityWeights struct {
	Critical int `yaml:"critical"`
	High     int `yaml:"high"`
	Medium   int `yaml:"medium"`
	Low      int `yaml:"low"`
}

// Weight returns the penalty for a severity.
func (w SeverityWeights) Weight(s model.Severity) int {
	switch s {
	case model.SeverityCritical:
		return w.Critical
	case model.SeverityHigh:
		return w.High
	case model.SeverityMedium:
		return w.Medium
	case model.SeverityLow:
		return w.Low
	default:
		return 0
	}
}

// ComplexityPolicy configures the performance score. Each penalty is applied
// per unit over its threshold and capped by the matching Max value.
type ComplexityPolicy struct {
	MaxNestingDepth       int `yaml:"max_nesting_depth"`
	NestingPenalty        int `yaml:"nesting_penalty"`
	MaxNestingPenalty     int `yaml:"max_nesting_penalty"`
	NestedLoopPenalty     int `yaml:"nested_loop_penalty"`
	MaxNestedLoopPenalty  int `yaml:"max_nested_loop_penalty"`
	MaxQueries            int `yaml:"max_queries"`
	QueryPenalty          int `yaml:"query_penalty"`
	MaxQueryPenalty       int `yaml:"max_query_penalty"`
	QueryInLoopPenalty    int `yaml:"query_in_loop_penalty"`
	MaxQueryInLoopPenalty int `yaml:"max_query_in_loop_penalty"`
	BlockingPenalty       int `yaml:"blocking_penalty"`
	MaxBlockingPenalty    int `yaml:"max_blocking_penalty"`
}

// QualityPolicy configures the readability score.
type QualityPolicy struct {
	MaxFunctionLines int `yaml:"max_function_lines"`
	MaxLineLength    int `yaml:"max_line_length"`
	// TargetCommentRatio is the comment ratio that earns the full comment
	// component.
	TargetCommentRatio float64 `yaml:"target_comment_ratio"`
	// Average function length at or below IdealFunctionLength scores fully;
	// at or above WorstFunctionLength it scores nothing.
	IdealFunctionLength int `yaml:"ideal_function_length"`
	WorstFunctionLength int `yaml:"worst_function_length"`
	// LongLineShare is the fraction of long lines tolerated before the line
	// length component drops.
	LongLineShare float64        `yaml:"long_line_share"`
	Weights       QualityWeights `yaml:"weights"`
}

// QualityWeights are the relative weights of the readability components.
type QualityWeights struct {
	Comments       int `yaml:"comments"`
	FunctionLength int `yaml:"function_length"`
	Naming         int `yaml:"naming"`
	ErrorHandling  int `yaml:"error_handling"`
	LineLength     int `yaml:"line_length"`
}

// DefaultPolicy returns the built-in thresholds.
func DefaultPolicy() Policy {
	return Policy{
		MaxFindingsPerRule: 5,
		SeverityWeights: SeverityWeights{
			Critical: 40,
			High:     25,
			Medium:   10,
			Low:      5,
		},
		Complexity: ComplexityPolicy{
			MaxNestingDepth:       3,
			NestingPenalty:        8,
			MaxNestingPenalty:     30,
			NestedLoopPenalty:     10,
			MaxNestedLoopPenalty:  30,
			MaxQueries:            3,
			QueryPenalty:          5,
			MaxQueryPenalty:       20,
			QueryInLoopPenalty:    15,
			MaxQueryInLoopPenalty: 30,
			BlockingPenalty:       5,
			MaxBlockingPenalty:    20,
		},
		Quality: QualityPolicy{
			MaxFunctionLines:    50,
			MaxLineLength:       100,
			TargetCommentRatio:  0.15,
			IdealFunctionLength: 30,
			WorstFunctionLength: 100,
			LongLineShare:       0.10,
			Weights: QualityWeights{
				Comments:       25,
				FunctionLength: 25,
				Naming:         20,
				ErrorHandling:  20,
				LineLength:     10,
			},
		},
	}
}

func penalty(over, per, max int) int {
	if over <= 0 {
		return 0
	}
	p := over * per
	if max > 0 && p > max {
		return max
	}
	return p
}
