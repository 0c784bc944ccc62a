package model

// SearchModality selects the search strategy.
type SearchModality string

const (
	ModalityLexical  SearchModality = "lexical"
	ModalitySemantic SearchModality = "semantic"
	ModalityRelation SearchModality = "relation"
)

// IsValid reports whether m is a known modality.
func (m SearchModality) IsValid() bool {
	switch m {
	case ModalityLexical, ModalitySemantic, ModalityRelation:
		return true
	}
	return false
}

// IndexLevel restricts a lexical search to one granularity of the index.
type IndexLevel string

const (
	LevelAll     IndexLevel = "ALL"
	LevelFile    IndexLevel = "FILE"
	LevelClass   IndexLevel = "CLASS"
	LevelMethod  IndexLevel = "METHOD"
	LevelField   IndexLevel = "FIELD"
	LevelSnippet IndexLevel = "SNIPPET"
)

// IsValid reports whether l is a known level.
func (l IndexLevel) IsValid() bool {
	switch l {
	case LevelAll, LevelFile, LevelClass, LevelMethod, LevelField, LevelSnippet:
		return true
	}
	return false
}

// SearchQuery is a user search against the project index.
//
// Level applies to ModalityLexical only. For ModalityRelation either set
// RelationType and RelationTarget, or leave them empty and give Text in the
// form "TYPE:target" to be split when the request is built.
type SearchQuery struct {
	Modality       SearchModality `json:"modality"`
	Text           string         `json:"text"`
	Level          IndexLevel     `json:"level,omitempty"`
	RelationType   string         `json:"relation_type,omitempty"`
	RelationTarget string         `json:"relation_target,omitempty"`
	Limit          int            `json:"limit,omitempty"`
}

// SemanticKind selects the semantic analysis to run.
type SemanticKind string

const (
	SemanticCallGraph  SemanticKind = "call_graph"
	SemanticDataFlow   SemanticKind = "data_flow"
	SemanticSimilarity SemanticKind = "similarity"
	SemanticConcept    SemanticKind = "concept"
)

// IsValid reports whether k is a known semantic kind.
func (k SemanticKind) IsValid() bool {
	switch k {
	case SemanticCallGraph, SemanticDataFlow, SemanticSimilarity, SemanticConcept:
		return true
	}
	return false
}

// NeedsMethod reports whether the analysis is anchored on a method.
func (k SemanticKind) NeedsMethod() bool {
	return k == SemanticCallGraph || k == SemanticDataFlow || k == SemanticSimilarity
}

// Direction is the traversal direction of a call graph query.
type Direction string

const (
	DirectionCallees Direction = "callees"
	DirectionCallers Direction = "callers"
)

// IsValid reports whether d is a known direction.
func (d Direction) IsValid() bool {
	return d == DirectionCallees || d == DirectionCallers
}

// DefaultMinSimilarity is the similarity threshold used when none is given.
const DefaultMinSimilarity = 0.7

// SemanticRequest is a user request for one semantic analysis.
// MinSimilarity is a pointer so an explicit 0 is distinguishable from unset.
type SemanticRequest struct {
	Kind          SemanticKind `json:"kind"`
	MethodID      string       `json:"method_id,omitempty"`
	Direction     Direction    `json:"direction,omitempty"`
	Concept       string       `json:"concept,omitempty"`
	MinSimilarity *float64     `json:"min_similarity,omitempty"`
}

// Threshold returns the effective similarity threshold.
func (r SemanticRequest) Threshold() float64 {
	if r.MinSimilarity == nil {
		return DefaultMinSimilarity
	}
	return *r.MinSimilarity
}

// QualityQuery requests quality issues for the whole project or, when
// EntityID is set, for a single entity.
type QualityQuery struct {
	EntityID string `json:"entity_id,omitempty"`
}
