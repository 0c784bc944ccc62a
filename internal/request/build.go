package request

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alfredjeanlab/codescope/internal/model"
)

// Path templates of the analysis service.
const (
	PathProjects       = "/projects"
	PathProject        = "/projects/{id}"
	PathSearch         = "/projects/{id}/search"
	PathSemanticSearch = "/projects/{id}/search/semantic"
	PathRelationSearch = "/projects/{id}/search/relation"
	PathCalls          = "/projects/{id}/semantic/calls"
	PathDataFlow       = "/projects/{id}/semantic/dataflow"
	PathSimilar        = "/projects/{id}/semantic/similar"
	PathConcepts       = "/projects/{id}/semantic/concepts"
	PathQuality        = "/projects/{id}/semantic/quality"
)

func blank(s string) bool { return strings.TrimSpace(s) == "" }

// ParseRelation splits a relation query of the form "TYPE:target" on the
// first colon. Both halves are trimmed and must be non-empty.
func ParseRelation(text string) (relationType, target string, err error) {
	head, tail, found := strings.Cut(text, ":")
	relationType = strings.TrimSpace(head)
	target = strings.TrimSpace(tail)
	if !found || relationType == "" || target == "" {
		var ve model.ValidationError
		ve.Add("text", model.CodeMalformedRelationQuery,
			fmt.Sprintf("relation query %q must have the form TYPE:target (e.g. IMPLEMENTS:Serializable)", text))
		return "", "", &ve
	}
	return relationType, target, nil
}

// BuildSearch validates q and returns the descriptor for its modality.
func BuildSearch(q model.SearchQuery) (Descriptor, error) {
	var ve model.ValidationError
	requireText := func() {
		if blank(q.Text) {
			ve.Add("text", model.CodeMissingParameter, "is required")
		}
	}
	if q.Limit < 0 {
		ve.Add("limit", model.CodeInvalidValue, fmt.Sprintf("must not be negative, got %d", q.Limit))
	}

	var d Descriptor
	switch q.Modality {
	case model.ModalityLexical, "":
		requireText()
		level := q.Level
		if level == "" {
			level = model.LevelAll
		}
		if !level.IsValid() {
			ve.Add("level", model.CodeInvalidValue, fmt.Sprintf("invalid value %q", q.Level))
		}
		d = newDescriptor(model.ViewSearch, model.ResultSearch, PathSearch,
			Param{"query", strings.TrimSpace(q.Text)},
			Param{"level", string(level)})
	case model.ModalitySemantic:
		requireText()
		d = newDescriptor(model.ViewSearch, model.ResultSearch, PathSemanticSearch,
			Param{"query", strings.TrimSpace(q.Text)})
	case model.ModalityRelation:
		// Explicit RelationType and RelationTarget win over Text.
		relType, target := strings.TrimSpace(q.RelationType), strings.TrimSpace(q.RelationTarget)
		if relType == "" && target == "" {
			requireText()
		}
		if relType == "" && target == "" && !blank(q.Text) {
			var err error
			relType, target, err = ParseRelation(q.Text)
			if err != nil {
				return Descriptor{}, err
			}
		}
		if relType == "" {
			ve.Add("relation_type", model.CodeMissingParameter, "is required")
		}
		if target == "" {
			ve.Add("relation_target", model.CodeMissingParameter, "is required")
		}
		d = newDescriptor(model.ViewSearch, model.ResultSearch, PathRelationSearch,
			Param{"relationType", relType},
			Param{"target", target})
	default:
		ve.Add("modality", model.CodeInvalidValue, fmt.Sprintf("invalid value %q", q.Modality))
	}

	if err := ve.OrNil(); err != nil {
		return Descriptor{}, err
	}
	if q.Limit > 0 {
		d.params = append(d.params, Param{"maxResults", strconv.Itoa(q.Limit)})
	}
	return d, nil
}

// BuildSemantic validates r and returns the descriptor for its kind.
func BuildSemantic(r model.SemanticRequest) (Descriptor, error) {
	var ve model.ValidationError
	methodID := strings.TrimSpace(r.MethodID)
	if r.Kind.NeedsMethod() && methodID == "" {
		ve.Add("method_id", model.CodeMissingParameter, "is required")
	}

	var d Descriptor
	switch r.Kind {
	case model.SemanticCallGraph:
		dir := r.Direction
		if dir == "" {
			dir = model.DirectionCallees
		}
		if !dir.IsValid() {
			ve.Add("direction", model.CodeInvalidValue, fmt.Sprintf("invalid value %q", r.Direction))
		}
		d = newDescriptor(model.ViewSemantic, model.ResultCallGraph, PathCalls,
			Param{"methodId", methodID},
			Param{"direction", string(dir)})
	case model.SemanticDataFlow:
		d = newDescriptor(model.ViewSemantic, model.ResultDataFlow, PathDataFlow,
			Param{"methodId", methodID})
	case model.SemanticSimilarity:
		threshold := r.Threshold()
		if threshold < 0 || threshold > 1 {
			ve.Add("min_similarity", model.CodeInvalidValue, fmt.Sprintf("must be within [0,1], got %g", threshold))
		}
		d = newDescriptor(model.ViewSemantic, model.ResultSimilarity, PathSimilar,
			Param{"methodId", methodID},
			Param{"minSimilarity", strconv.FormatFloat(threshold, 'f', -1, 64)})
	case model.SemanticConcept:
		concept := strings.TrimSpace(r.Concept)
		if concept == "" {
			ve.Add("concept", model.CodeMissingParameter, "is required")
		}
		d = newDescriptor(model.ViewSemantic, model.ResultConcept, PathConcepts,
			Param{"concept", concept})
	default:
		ve.Add("kind", model.CodeInvalidValue, fmt.Sprintf("invalid value %q", r.Kind))
	}

	if err := ve.OrNil(); err != nil {
		return Descriptor{}, err
	}
	d.anchor = methodID
	return d, nil
}

// BuildQuality returns the descriptor for a quality query. An empty entity
// id requests issues for the whole project.
func BuildQuality(q model.QualityQuery) (Descriptor, error) {
	d := newDescriptor(model.ViewQuality, model.ResultQuality, PathQuality)
	if id := strings.TrimSpace(q.EntityID); id != "" {
		d.params = []Param{{"entityId", id}}
	}
	return d, nil
}
