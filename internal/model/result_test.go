package model

import (
	"errors"
	"fmt"
	"testing"
)

func TestSimilarityPair_Counterpart(t *testing.T) {
	p := SimilarityPair{Method1ID: "A#run", Method2ID: "B#run", Similarity: 0.834}
	if got := p.Counterpart("A#run"); got != "B#run" {
		t.Errorf("Counterpart(A#run) = %q, want B#run", got)
	}
	if got := p.Counterpart("B#run"); got != "A#run" {
		t.Errorf("Counterpart(B#run) = %q, want A#run", got)
	}
	if got := p.Percent(); got != 83 {
		t.Errorf("Percent() = %d, want 83", got)
	}
}

func TestParseIssueType(t *testing.T) {
	for _, tc := range []struct {
		raw  string
		want IssueType
	}{
		{"LONG_METHOD", IssueLongMethod},
		{"LARGE_CLASS", IssueLargeClass},
		{"TOO_MANY_PARAMETERS", IssueTooManyParameters},
		{"MISSING_JAVADOC", IssueMissingJavadoc},
		{"INCONSISTENT_NAMING", IssueInconsistentNaming},
		{"DEAD_CODE", IssueOther},
		{"", IssueOther},
	} {
		if got := ParseIssueType(tc.raw); got != tc.want {
			t.Errorf("ParseIssueType(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestCountSeverities(t *testing.T) {
	got := CountSeverities([]QualityIssue{
		{Severity: SeverityError},
		{Severity: SeverityWarning},
		{Severity: SeverityWarning},
		{Severity: SeverityInfo},
		{Severity: Severity("FATAL")},
	})
	want := SeverityCounts{Errors: 1, Warnings: 2, Infos: 1}
	if got != want {
		t.Errorf("CountSeverities() = %+v, want %+v", got, want)
	}
}

func TestValidationError(t *testing.T) {
	var ve ValidationError
	if ve.OrNil() != nil {
		t.Fatal("empty ValidationError.OrNil() should be nil")
	}
	ve.Add("method_id", CodeMissingParameter, "is required")
	ve.Add("text", CodeMalformedRelationQuery, "must have the form TYPE:target")

	err := fmt.Errorf("building request: %w", ve.OrNil())
	if !IsValidation(err, CodeMissingParameter) {
		t.Error("IsValidation(missing_parameter) = false, want true")
	}
	if IsValidation(err, CodeInvalidArchive) {
		t.Error("IsValidation(invalid_archive) = true, want false")
	}
	if IsValidation(errors.New("boom"), CodeMissingParameter) {
		t.Error("IsValidation on plain error = true, want false")
	}
	want := "validation failed: method_id: is required; text: must have the form TYPE:target"
	if ve.Error() != want {
		t.Errorf("Error() = %q, want %q", ve.Error(), want)
	}
}
