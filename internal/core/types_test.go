package core

import (
	"testing"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Category
		wantErr error
	}{
		{name: "health", input: "health", want: CategoryHealth},
		{name: "work", input: "work", want: CategoryWork},
		{name: "learning", input: "learning", want: CategoryLearning},
		{name: "explicit uncategorized", input: "uncategorized", want: CategoryUncategorized},
		{name: "empty maps to uncategorized", input: "", want: CategoryUncategorized},
		{name: "unknown rejected", input: "gardening", wantErr: ErrInvalidCategory},
		{name: "case sensitive", input: "Work", wantErr: ErrInvalidCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCategory(tt.input)
			if err != tt.wantErr {
				t.Fatalf("ParseCategory(%q) error = %v, want %v", tt.input, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseCategory(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseSentiment(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Sentiment
		wantErr error
	}{
		{name: "positive", input: "positive", want: SentimentPositive},
		{name: "mixed", input: "mixed", want: SentimentMixed},
		{name: "empty maps to neutral", input: "", want: SentimentNeutral},
		{name: "unknown rejected", input: "ecstatic", wantErr: ErrInvalidSentiment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSentiment(tt.input)
			if err != tt.wantErr {
				t.Fatalf("ParseSentiment(%q) error = %v, want %v", tt.input, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseSentiment(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSentimentBreakdownTotal(t *testing.T) {
	b := SentimentBreakdown{Positive: 8, Negative: 1, Neutral: 1, Mixed: 0}
	if got := b.Total(); got != 10 {
		t.Errorf("Total() = %d, want 10", got)
	}

	var zero SentimentBreakdown
	if got := zero.Total(); got != 0 {
		t.Errorf("Total() on zero value = %d, want 0", got)
	}
}
