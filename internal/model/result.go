package model

// ResultKind tags the shape of a normalized analysis result.
type ResultKind string

const (
	ResultSearch     ResultKind = "search"
	ResultCallGraph  ResultKind = "call_graph"
	ResultDataFlow   ResultKind = "data_flow"
	ResultSimilarity ResultKind = "similarity"
	ResultConcept    ResultKind = "concept"
	ResultQuality    ResultKind = "quality"
)

// SearchHit is one entity returned by any of the search endpoints.
type SearchHit struct {
	ID         string         `json:"id,omitempty" yaml:"id,omitempty"`
	Name       string         `json:"name" yaml:"name"`
	Path       string         `json:"path" yaml:"path"`
	Type       string         `json:"type" yaml:"type"`
	Score      float64        `json:"score,omitempty" yaml:"score,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// NamedType is one entry of a data flow input or output mapping.
type NamedType struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

// DataFlow describes what a method consumes, produces and connects to.
// Inputs and Outputs are ordered by name.
type DataFlow struct {
	MethodID    string      `json:"methodId" yaml:"method_id"`
	Inputs      []NamedType `json:"inputs" yaml:"inputs"`
	Outputs     []NamedType `json:"outputs" yaml:"outputs"`
	Connections []string    `json:"connections" yaml:"connections"`
}

// SimilarityPair is a pair of methods and their similarity in [0,1].
type SimilarityPair struct {
	Method1ID  string  `json:"method1Id" yaml:"method1_id"`
	Method2ID  string  `json:"method2Id" yaml:"method2_id"`
	Similarity float64 `json:"similarity" yaml:"similarity"`
}

// Counterpart returns the member of the pair that is not methodID.
func (p SimilarityPair) Counterpart(methodID string) string {
	if p.Method1ID == methodID {
		return p.Method2ID
	}
	return p.Method1ID
}

// Percent returns the similarity as a whole percentage.
func (p SimilarityPair) Percent() int {
	return int(p.Similarity*100 + 0.5)
}

// ConceptSource is where a concept occurrence was found.
type ConceptSource string

const (
	SourceJavadoc    ConceptSource = "JAVADOC"
	SourceIdentifier ConceptSource = "IDENTIFIER"
	SourceCode       ConceptSource = "CODE"
)

// ConceptMatch is one entity associated with a concept.
type ConceptMatch struct {
	EntityID string        `json:"entityId" yaml:"entity_id"`
	Concept  string        `json:"concept" yaml:"concept"`
	Source   ConceptSource `json:"source" yaml:"source"`
}

// IssueType classifies a quality issue.
type IssueType string

const (
	IssueLongMethod         IssueType = "LONG_METHOD"
	IssueLargeClass         IssueType = "LARGE_CLASS"
	IssueTooManyParameters  IssueType = "TOO_MANY_PARAMETERS"
	IssueMissingJavadoc     IssueType = "MISSING_JAVADOC"
	IssueInconsistentNaming IssueType = "INCONSISTENT_NAMING"
	IssueOther              IssueType = "OTHER"
)

// ParseIssueType maps a raw issue type to a known IssueType; anything
// unrecognized is IssueOther.
func ParseIssueType(raw string) IssueType {
	switch t := IssueType(raw); t {
	case IssueLongMethod, IssueLargeClass, IssueTooManyParameters, IssueMissingJavadoc, IssueInconsistentNaming:
		return t
	}
	return IssueOther
}

// Severity is the severity of a quality issue.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
	SeverityInfo    Severity = "INFO"
)

// IsValid reports whether s is a known severity.
func (s Severity) IsValid() bool {
	return s == SeverityError || s == SeverityWarning || s == SeverityInfo
}

// QualityIssue is a read-only finding produced by the analysis service.
// RawType keeps the service's own type name when Type is IssueOther.
type QualityIssue struct {
	EntityID string    `json:"entityId" yaml:"entity_id"`
	Type     IssueType `json:"type" yaml:"type"`
	RawType  string    `json:"rawType,omitempty" yaml:"raw_type,omitempty"`
	Severity Severity  `json:"severity" yaml:"severity"`
	Message  string    `json:"message" yaml:"message"`
}

// Grade is a letter grade derived from a quality score.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// QualityScore is derived from an issue set and never persisted.
type QualityScore struct {
	Value int   `json:"value" yaml:"value"`
	Grade Grade `json:"grade" yaml:"grade"`
}

// SeverityCounts tallies issues per severity.
type SeverityCounts struct {
	Errors   int `json:"errors" yaml:"errors"`
	Warnings int `json:"warnings" yaml:"warnings"`
	Infos    int `json:"infos" yaml:"infos"`
}

// CountSeverities tallies issues by severity; unknown severities are not counted.
func CountSeverities(issues []QualityIssue) SeverityCounts {
	var c SeverityCounts
	for _, is := range issues {
		switch is.Severity {
		case SeverityError:
			c.Errors++
		case SeverityWarning:
			c.Warnings++
		case SeverityInfo:
			c.Infos++
		}
	}
	return c
}
