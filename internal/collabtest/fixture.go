package collabtest

import "github.com/alfredjeanlab/codescope/internal/model"

// Fixture is the analysis data every project of a Server answers with.
type Fixture struct {
	Hits     []model.SearchHit
	Callees  map[string][]string
	Callers  map[string][]string
	DataFlow map[string]DataFlow
	Similar  []model.SimilarityPair
	Concepts []model.ConceptMatch
	Issues   []Issue
}

// DataFlow is the wire form of a data flow record.
type DataFlow struct {
	MethodID    string            `json:"methodId"`
	Inputs      map[string]string `json:"inputs"`
	Outputs     map[string]string `json:"outputs"`
	Connections []string          `json:"connections"`
}

// Issue is the wire form of a quality issue. Type is free-form so fixtures
// can use types the client does not know.
type Issue struct {
	EntityID string `json:"entityId"`
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// DefaultFixture describes a small order-processing project.
func DefaultFixture() Fixture {
	return Fixture{
		Hits: []model.SearchHit{
			{ID: "c1", Name: "OrderService", Path: "src/shop/OrderService.java", Type: "CLASS", Score: 3.2,
				Attributes: map[string]any{"relation:IMPLEMENTS": "Serializable"}},
			{ID: "m1", Name: "placeOrder", Path: "src/shop/OrderService.java", Type: "METHOD", Score: 2.7},
			{ID: "c2", Name: "PaymentGateway", Path: "src/shop/PaymentGateway.java", Type: "CLASS", Score: 2.1},
			{ID: "m2", Name: "charge", Path: "src/shop/PaymentGateway.java", Type: "METHOD", Score: 1.9},
			{ID: "f1", Name: "OrderRepository.java", Path: "src/shop/OrderRepository.java", Type: "FILE", Score: 1.2},
		},
		Callees: map[string][]string{
			"OrderService#placeOrder": {"PaymentGateway#charge", "OrderRepository#save"},
		},
		Callers: map[string][]string{
			"PaymentGateway#charge": {"OrderService#placeOrder"},
		},
		DataFlow: map[string]DataFlow{
			"OrderService#placeOrder": {
				MethodID:    "OrderService#placeOrder",
				Inputs:      map[string]string{"order": "Order", "customer": "Customer"},
				Outputs:     map[string]string{"return": "Receipt"},
				Connections: []string{"PaymentGateway#charge", "OrderRepository#save"},
			},
		},
		Similar: []model.SimilarityPair{
			{Method1ID: "OrderService#placeOrder", Method2ID: "OrderService#placeBulkOrder", Similarity: 0.92},
			{Method1ID: "RefundService#refund", Method2ID: "OrderService#placeOrder", Similarity: 0.71},
			{Method1ID: "OrderService#placeOrder", Method2ID: "Util#format", Similarity: 0.31},
		},
		Concepts: []model.ConceptMatch{
			{EntityID: "PaymentGateway", Concept: "payment", Source: model.SourceJavadoc},
			{EntityID: "PaymentGateway#charge", Concept: "payment", Source: model.SourceIdentifier},
		},
		Issues: []Issue{
			{EntityID: "OrderService#placeOrder", Type: "LONG_METHOD", Severity: "ERROR", Message: "Method has 112 lines"},
			{EntityID: "OrderService", Type: "MISSING_JAVADOC", Severity: "WARNING", Message: "Class has no Javadoc"},
			{EntityID: "PaymentGateway#charge", Type: "TOO_MANY_PARAMETERS", Severity: "WARNING", Message: "Method has 7 parameters"},
			{EntityID: "Util", Type: "DEAD_CODE", Severity: "INFO", Message: "Class is never used"},
		},
	}
}
