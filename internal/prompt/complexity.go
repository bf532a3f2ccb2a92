package prompt

import (
	"log"
	"strings"

	"github.com/vibe-assistant/backend/internal/config"
	"github.com/vibe-assistant/backend/internal/graph"
)

// Complexity classifies a constructed prompt by size.
type Complexity string

const (
	ComplexityLow     Complexity = "low"
	ComplexityMedium  Complexity = "medium"
	ComplexityHigh    Complexity = "high"
	ComplexityUnknown Complexity = "unknown"
)

// ArchComplexity classifies the attached architecture context.
type ArchComplexity string

const (
	ArchNone     ArchComplexity = "none"
	ArchSimple   ArchComplexity = "simple"
	ArchModerate ArchComplexity = "moderate"
	ArchComplex  ArchComplexity = "complex"
)

// tokensPerWord is a rough estimate, not a guarantee.
const tokensPerWord = 1.3

// Analysis is advisory output attached to a response. It never feeds back
// into prompt construction.
type Analysis struct {
	Complexity             Complexity     `json:"complexity"`
	WordCount              int            `json:"word_count"`
	EstimatedTokens        int            `json:"estimated_tokens"`
	ArchitectureComplexity ArchComplexity `json:"architecture_complexity"`
	Recommendations        []string       `json:"recommendations"`
}

// Analyzer derives a coarse size classification from a constructed prompt.
// Word-count thresholds come from the injected configuration; the defaults
// (low below 150 words, medium below 300) are the externally configured
// constants, which this implementation treats as the single authoritative
// threshold source.
type Analyzer struct {
	cfg *config.Config
}

// NewAnalyzer creates a complexity analyzer.
func NewAnalyzer(cfg *config.Config) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// Analyze classifies promptText and the optional architecture layers.
// It never fails: any internal panic degrades to an unknown classification
// with an explanatory recommendation, since this output is advisory only.
func (a *Analyzer) Analyze(promptText string, layers []graph.Layer) (analysis Analysis) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf(`{"level":"error","message":"Complexity analysis failed","panic":"%v"}`, r)
			analysis = Analysis{
				Complexity:             ComplexityUnknown,
				ArchitectureComplexity: ArchNone,
				Recommendations:        []string{"Complexity analysis was unavailable for this prompt; results omitted."},
			}
		}
	}()

	words := len(strings.Fields(promptText))

	analysis = Analysis{
		WordCount:              words,
		EstimatedTokens:        int(float64(words) * tokensPerWord),
		Complexity:             a.classify(words),
		ArchitectureComplexity: classifyArchitecture(layers),
	}
	analysis.Recommendations = a.recommend(promptText, analysis)
	return analysis
}

func (a *Analyzer) classify(words int) Complexity {
	switch {
	case words < a.cfg.ComplexityLowThreshold:
		return ComplexityLow
	case words < a.cfg.ComplexityMediumThreshold:
		return ComplexityMedium
	default:
		return ComplexityHigh
	}
}

func classifyArchitecture(layers []graph.Layer) ArchComplexity {
	if len(layers) == 0 {
		return ArchNone
	}
	switch total := graph.TotalNodes(layers); {
	case total <= 10:
		return ArchSimple
	case total <= 50:
		return ArchModerate
	default:
		return ArchComplex
	}
}

// recommend applies a small rule table. It always returns at least one
// recommendation.
func (a *Analyzer) recommend(promptText string, analysis Analysis) []string {
	var recs []string
	lower := strings.ToLower(promptText)

	if analysis.WordCount < 20 {
		recs = append(recs, "Prompt is very sparse. Consider adding more detail about what you want to achieve.")
	}
	if analysis.Complexity == ComplexityHigh {
		recs = append(recs, "Prompt is large. Consider breaking it down into smaller, focused requests.")
	}
	if analysis.ArchitectureComplexity == ArchComplex {
		recs = append(recs, "Architecture context is complex. Consider narrowing the scope to the layers that matter for this change.")
	}
	if strings.Contains(lower, "test") || strings.Contains(lower, "debug") {
		recs = append(recs, "Consider including specific error messages or failing test cases.")
	}
	if strings.Contains(lower, "refactor") {
		recs = append(recs, "Consider specifying the current issues with the code being refactored.")
	}

	if len(recs) == 0 {
		recs = append(recs, "Prompt looks well-scoped. No changes recommended.")
	}
	return recs
}
