// Package normalize maps raw analysis service payloads into canonical view
// models, one decoder per result kind, and derives the quality score.
package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/alfredjeanlab/codescope/internal/model"
)

// Result is a normalized analysis result. The concrete type is determined by
// Kind; the set of implementations is closed.
type Result interface {
	Kind() model.ResultKind
	// Len is the number of items in the result.
	Len() int
	// Empty reports a successful response that matched nothing.
	Empty() bool
	sealed()
}

// SearchResult holds entities returned by lexical, semantic and relation search.
type SearchResult struct {
	Hits []model.SearchHit `json:"hits" yaml:"hits"`
}

// CallGraphResult holds the callers or callees of a method.
type CallGraphResult struct {
	Methods []string `json:"methods" yaml:"methods"`
}

// DataFlowResult holds the data flow record of a method.
type DataFlowResult struct {
	Flow model.DataFlow `json:"flow" yaml:"flow"`
}

// SimilarityResult holds methods similar to Anchor.
type SimilarityResult struct {
	Anchor string                 `json:"anchor" yaml:"anchor"`
	Pairs  []model.SimilarityPair `json:"pairs" yaml:"pairs"`
}

// ConceptResult holds entities associated with a concept.
type ConceptResult struct {
	Matches []model.ConceptMatch `json:"matches" yaml:"matches"`
}

// QualityResult holds quality issues and the score derived from them.
type QualityResult struct {
	Issues []model.QualityIssue `json:"issues" yaml:"issues"`
	Counts model.SeverityCounts `json:"counts" yaml:"counts"`
	Score  model.QualityScore   `json:"score" yaml:"score"`
}

func (SearchResult) Kind() model.ResultKind     { return model.ResultSearch }
func (CallGraphResult) Kind() model.ResultKind  { return model.ResultCallGraph }
func (DataFlowResult) Kind() model.ResultKind   { return model.ResultDataFlow }
func (SimilarityResult) Kind() model.ResultKind { return model.ResultSimilarity }
func (ConceptResult) Kind() model.ResultKind    { return model.ResultConcept }
func (QualityResult) Kind() model.ResultKind    { return model.ResultQuality }

func (r SearchResult) Len() int     { return len(r.Hits) }
func (r CallGraphResult) Len() int  { return len(r.Methods) }
func (r SimilarityResult) Len() int { return len(r.Pairs) }
func (r ConceptResult) Len() int    { return len(r.Matches) }
func (r QualityResult) Len() int    { return len(r.Issues) }

func (r DataFlowResult) Len() int {
	return len(r.Flow.Inputs) + len(r.Flow.Outputs) + len(r.Flow.Connections)
}

func (r SearchResult) Empty() bool     { return r.Len() == 0 }
func (r CallGraphResult) Empty() bool  { return r.Len() == 0 }
func (r DataFlowResult) Empty() bool   { return r.Len() == 0 }
func (r SimilarityResult) Empty() bool { return r.Len() == 0 }
func (r ConceptResult) Empty() bool    { return r.Len() == 0 }

// Empty is always false for quality results: an issue-free project is a
// meaningful answer (score 100, grade A), not a missing one.
func (r QualityResult) Empty() bool { return false }

// Clean reports whether no issues were found.
func (r QualityResult) Clean() bool { return len(r.Issues) == 0 }

func (SearchResult) sealed()     {}
func (CallGraphResult) sealed()  {}
func (DataFlowResult) sealed()   {}
func (SimilarityResult) sealed() {}
func (ConceptResult) sealed()    {}
func (QualityResult) sealed()    {}

// Normalize decodes body as the payload for kind. anchor is the method id
// the request was centred on and is only used for similarity results.
func Normalize(kind model.ResultKind, anchor string, body []byte) (Result, error) {
	switch kind {
	case model.ResultSearch:
		return Search(body)
	case model.ResultCallGraph:
		return CallGraph(body)
	case model.ResultDataFlow:
		return DataFlow(body)
	case model.ResultSimilarity:
		return Similarity(anchor, body)
	case model.ResultConcept:
		return Concepts(body)
	case model.ResultQuality:
		return Quality(body)
	}
	return nil, fmt.Errorf("unknown result kind %q", kind)
}

// decode unmarshals body into v. An empty body or JSON null leaves v untouched.
func decode(kind model.ResultKind, body []byte, v any) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return fmt.Errorf("decoding %s response: %w", kind, err)
	}
	return nil
}

// Search normalizes a search response.
func Search(body []byte) (SearchResult, error) {
	var hits []model.SearchHit
	if err := decode(model.ResultSearch, body, &hits); err != nil {
		return SearchResult{}, err
	}
	if hits == nil {
		hits = []model.SearchHit{}
	}
	return SearchResult{Hits: hits}, nil
}

// CallGraph normalizes a call graph response.
func CallGraph(body []byte) (CallGraphResult, error) {
	var methods []string
	if err := decode(model.ResultCallGraph, body, &methods); err != nil {
		return CallGraphResult{}, err
	}
	if methods == nil {
		methods = []string{}
	}
	return CallGraphResult{Methods: methods}, nil
}

type wireDataFlow struct {
	MethodID    string            `json:"methodId"`
	Inputs      map[string]string `json:"inputs"`
	Outputs     map[string]string `json:"outputs"`
	Connections []string          `json:"connections"`
}

func namedTypes(m map[string]string) []model.NamedType {
	out := make([]model.NamedType, 0, len(m))
	for name, typ := range m {
		out = append(out, model.NamedType{Name: name, Type: typ})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DataFlow normalizes a data flow response. Input and output mappings are
// ordered by name.
func DataFlow(body []byte) (DataFlowResult, error) {
	var w wireDataFlow
	if err := decode(model.ResultDataFlow, body, &w); err != nil {
		return DataFlowResult{}, err
	}
	conns := w.Connections
	if conns == nil {
		conns = []string{}
	}
	return DataFlowResult{Flow: model.DataFlow{
		MethodID:    w.MethodID,
		Inputs:      namedTypes(w.Inputs),
		Outputs:     namedTypes(w.Outputs),
		Connections: conns,
	}}, nil
}

// Similarity normalizes a similarity response. Similarities outside [0,1]
// are clamped.
func Similarity(anchor string, body []byte) (SimilarityResult, error) {
	var pairs []model.SimilarityPair
	if err := decode(model.ResultSimilarity, body, &pairs); err != nil {
		return SimilarityResult{}, err
	}
	if pairs == nil {
		pairs = []model.SimilarityPair{}
	}
	for i := range pairs {
		pairs[i].Similarity = clamp(pairs[i].Similarity, 0, 1)
	}
	return SimilarityResult{Anchor: anchor, Pairs: pairs}, nil
}

// Concepts normalizes a concept search response.
func Concepts(body []byte) (ConceptResult, error) {
	var matches []model.ConceptMatch
	if err := decode(model.ResultConcept, body, &matches); err != nil {
		return ConceptResult{}, err
	}
	if matches == nil {
		matches = []model.ConceptMatch{}
	}
	return ConceptResult{Matches: matches}, nil
}

type wireIssue struct {
	EntityID string `json:"entityId"`
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// Quality normalizes a quality response and scores it.
func Quality(body []byte) (QualityResult, error) {
	var wire []wireIssue
	if err := decode(model.ResultQuality, body, &wire); err != nil {
		return QualityResult{}, err
	}
	issues := make([]model.QualityIssue, len(wire))
	for i, w := range wire {
		issues[i] = model.QualityIssue{
			EntityID: w.EntityID,
			Type:     model.ParseIssueType(w.Type),
			Severity: model.Severity(w.Severity),
			Message:  w.Message,
		}
		if issues[i].Type == model.IssueOther && w.Type != string(model.IssueOther) {
			issues[i].RawType = w.Type
		}
	}
	counts := model.CountSeverities(issues)
	return QualityResult{Issues: issues, Counts: counts, Score: Score(counts)}, nil
}
