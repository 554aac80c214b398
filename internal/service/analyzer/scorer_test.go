package analyzer

import "testing"

func TestLetterGrades(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{100, "A+"},
		{90, "A+"},
		{89.99, "A"},
		{80, "A-"},
		{72, "B"},
		{60, "C+"},
		{50, "C-"},
		{40, "D"},
		{39.99, "F"},
		{0, "F"},
	}
	for _, tt := range tests {
		if got := LetterGrades.Lookup(tt.score); got != tt.want {
			t.Errorf("LetterGrades.Lookup(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestStatusScale(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{95, "Excellent"},
		{85, "Excellent"},
		{80, "Good"},
		{65, "Fair"},
		{50, "Poor"},
		{49, "Critical"},
	}
	for _, tt := range tests {
		if got := StatusScale.Lookup(tt.score); got != tt.want {
			t.Errorf("StatusScale.Lookup(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestScorerFinalize(t *testing.T) {
	s := NewScorer(map[string]float64{"a": 0.5, "b": 0.5})
	r := newScoreResult()
	r.SubScores["a"] = 140
	r.SubScores["b"] = 60.456
	r.SubScores["extra"] = -20

	s.Finalize(&r)

	if r.SubScores["a"] != 100 || r.SubScores["b"] != 60.46 || r.SubScores["extra"] != 0 {
		t.Errorf("sub-scores not clamped and rounded: %v", r.SubScores)
	}
	if r.Score != 80.23 {
		t.Errorf("Score = %v, want 80.23", r.Score)
	}
	if r.Grade != "A-" {
		t.Errorf("Grade = %s, want A-", r.Grade)
	}
}

func TestScorerWithoutWeights(t *testing.T) {
	r := newScoreResult()
	r.Score = 123

	NewScorer(nil).Finalize(&r)

	if r.Score != 100 || r.Grade != "A+" {
		t.Errorf("Score = %v, Grade = %s", r.Score, r.Grade)
	}
}
