package analyzer

import "sort"

// GradeBand maps a minimum score to a label
type GradeBand struct {
	Min   float64 `yaml:"min" json:"min"`
	Label string  `yaml:"label" json:"label"`
}

// GradeScale is a table of bands; the first band whose Min is reached wins
type GradeScale struct {
	Bands    []GradeBand
	Fallback string
}

// Lookup returns the label for score
func (g GradeScale) Lookup(score float64) string {
	for _, b := range g.Bands {
		if score >= b.Min {
			return b.Label
		}
	}
	return g.Fallback
}

// LetterGrades is the letter grade table shared by every analyzer and the overall score
var LetterGrades = GradeScale{
	Bands: []GradeBand{
		{90, "A+"}, {85, "A"}, {80, "A-"},
		{75, "B+"}, {70, "B"}, {65, "B-"},
		{60, "C+"}, {55, "C"}, {50, "C-"},
		{45, "D+"}, {40, "D"},
	},
	Fallback: "F",
}

// StatusScale maps the overall score to a status word
var StatusScale = GradeScale{
	Bands: []GradeBand{
		{85, "Excellent"}, {75, "Good"}, {65, "Fair"}, {50, "Poor"},
	},
	Fallback: "Critical",
}

// Scorer turns named sub-scores into a clamped weighted score and a grade
type Scorer struct {
	Weights map[string]float64
	Grades  GradeScale
}

// NewScorer builds a scorer over the given weights using letter grades
func NewScorer(weights map[string]float64) Scorer {
	return Scorer{Weights: weights, Grades: LetterGrades}
}

// Weighted sums sub-score × weight. Sub-scores without a weight contribute nothing.
func (s Scorer) Weighted(subScores map[string]float64) float64 {
	// Sorted keys keep float summation order stable between runs
	keys := make([]string, 0, len(s.Weights))
	for k := range s.Weights {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	total := 0.0
	for _, k := range keys {
		if v, ok := subScores[k]; ok {
			total += Clamp(v) * s.Weights[k]
		}
	}
	return total
}

// Finalize clamps and rounds sub-scores, computes the weighted score when
// weights are configured, and derives the grade.
func (s Scorer) Finalize(r *ScoreResult) {
	for k, v := range r.SubScores {
		r.SubScores[k] = round(Clamp(v))
	}
	if len(s.Weights) > 0 {
		r.Score = s.Weighted(r.SubScores)
	}
	r.Score = round(Clamp(r.Score))
	r.Grade = s.Grades.Lookup(r.Score)
}
