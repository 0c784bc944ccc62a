package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alfredjeanlab/codescope/internal/model"
)

func TestNormalize_Search(t *testing.T) {
	body := `[
		{"id": "e1", "name": "Widget", "path": "src/Widget.java", "type": "CLASS", "score": 2.5, "attributes": {"modifiers": "public"}},
		{"name": "render", "path": "src/Widget.java", "type": "METHOD"}
	]`
	res, err := Normalize(model.ResultSearch, "", []byte(body))
	require.NoError(t, err)
	sr, ok := res.(SearchResult)
	require.True(t, ok, "got %T", res)
	require.Len(t, sr.Hits, 2)
	assert.Equal(t, "Widget", sr.Hits[0].Name)
	assert.Equal(t, "e1", sr.Hits[0].ID)
	assert.Equal(t, 2.5, sr.Hits[0].Score)
	assert.Equal(t, "public", sr.Hits[0].Attributes["modifiers"])
	assert.Equal(t, "render", sr.Hits[1].Name)
	assert.False(t, res.Empty())
	assert.Equal(t, model.ResultSearch, res.Kind())
}

func TestNormalize_EmptyBodies(t *testing.T) {
	for _, kind := range []model.ResultKind{
		model.ResultSearch, model.ResultCallGraph, model.ResultDataFlow,
		model.ResultSimilarity, model.ResultConcept,
	} {
		for _, body := range []string{"", "null", "[]"} {
			if kind == model.ResultDataFlow && body == "[]" {
				continue
			}
			res, err := Normalize(kind, "", []byte(body))
			require.NoError(t, err, "kind %s body %q", kind, body)
			assert.True(t, res.Empty(), "kind %s body %q should be empty", kind, body)
			assert.Equal(t, 0, res.Len())
		}
	}
}

func TestNormalize_CallGraphKeepsOrder(t *testing.T) {
	res, err := CallGraph([]byte(`["B#b", "A#a", "C#c"]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"B#b", "A#a", "C#c"}, res.Methods)
}

func TestNormalize_DataFlow(t *testing.T) {
	body := `{
		"methodId": "Repo#save",
		"inputs": {"entity": "User", "flush": "boolean"},
		"outputs": {"return": "User"},
		"connections": ["Db#insert", "Cache#evict"]
	}`
	res, err := DataFlow([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, "Repo#save", res.Flow.MethodID)
	assert.Equal(t, []model.NamedType{{Name: "entity", Type: "User"}, {Name: "flush", Type: "boolean"}}, res.Flow.Inputs)
	assert.Equal(t, []model.NamedType{{Name: "return", Type: "User"}}, res.Flow.Outputs)
	assert.Equal(t, []string{"Db#insert", "Cache#evict"}, res.Flow.Connections)
	assert.Equal(t, 5, res.Len())
	assert.False(t, res.Empty())
}

func TestNormalize_DataFlowEmptyRecord(t *testing.T) {
	res, err := DataFlow([]byte(`{"methodId": "Repo#save", "inputs": {}, "outputs": {}, "connections": []}`))
	require.NoError(t, err)
	assert.True(t, res.Empty())
	assert.Equal(t, "Repo#save", res.Flow.MethodID)
}

func TestNormalize_SimilarityClamps(t *testing.T) {
	body := `[
		{"method1Id": "A#x", "method2Id": "B#y", "similarity": 0.91},
		{"method1Id": "C#z", "method2Id": "A#x", "similarity": 1.2},
		{"method1Id": "A#x", "method2Id": "D#w", "similarity": -0.1}
	]`
	res, err := Normalize(model.ResultSimilarity, "A#x", []byte(body))
	require.NoError(t, err)
	sr := res.(SimilarityResult)
	assert.Equal(t, "A#x", sr.Anchor)
	require.Len(t, sr.Pairs, 3)
	assert.Equal(t, 0.91, sr.Pairs[0].Similarity)
	assert.Equal(t, 1.0, sr.Pairs[1].Similarity)
	assert.Equal(t, 0.0, sr.Pairs[2].Similarity)
	assert.Equal(t, "C#z", sr.Pairs[1].Counterpart(sr.Anchor))
}

func TestNormalize_Concepts(t *testing.T) {
	body := `[{"entityId": "Pool", "concept": "connection pool", "source": "JAVADOC"}]`
	res, err := Concepts([]byte(body))
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, model.SourceJavadoc, res.Matches[0].Source)
}

func TestNormalize_Quality(t *testing.T) {
	body := `[
		{"entityId": "A", "type": "LONG_METHOD", "severity": "ERROR", "message": "method too long"},
		{"entityId": "B", "type": "DEAD_CODE", "severity": "WARNING", "message": "unused"},
		{"entityId": "C", "type": "MISSING_JAVADOC", "severity": "WARNING", "message": "no javadoc"}
	]`
	res, err := Quality([]byte(body))
	require.NoError(t, err)
	require.Len(t, res.Issues, 3)
	assert.Equal(t, model.IssueLongMethod, res.Issues[0].Type)
	assert.Equal(t, model.IssueOther, res.Issues[1].Type)
	assert.Equal(t, "DEAD_CODE", res.Issues[1].RawType)
	assert.Empty(t, res.Issues[2].RawType)
	assert.Equal(t, model.SeverityCounts{Errors: 1, Warnings: 2}, res.Counts)
	assert.Equal(t, model.QualityScore{Value: 86, Grade: model.GradeB}, res.Score)
}

func TestNormalize_QualityEmptyIsNotNoMatches(t *testing.T) {
	res, err := Normalize(model.ResultQuality, "", []byte(`[]`))
	require.NoError(t, err)
	qr := res.(QualityResult)
	assert.False(t, qr.Empty())
	assert.True(t, qr.Clean())
	assert.Equal(t, model.QualityScore{Value: 100, Grade: model.GradeA}, qr.Score)
}

func TestNormalize_Errors(t *testing.T) {
	_, err := Normalize(model.ResultSearch, "", []byte(`{"not": "a list"}`))
	assert.Error(t, err)

	_, err = Normalize(model.ResultKind("histogram"), "", []byte(`[]`))
	assert.Error(t, err)
}
