// Package idgen generates the correlation IDs attached to requests sent to
// the analysis service, backed by nanoid.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Alphabet defines the character set used for the random portion of an ID.
const Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Generator produces prefixed random IDs.
type Generator struct {
	Prefix string
	Length int
}

// Requests generates X-Request-ID values.
var Requests = Generator{Prefix: "req-", Length: 12}

// New returns a fresh ID.
func (g Generator) New() (string, error) {
	n := g.Length
	if n <= 0 {
		n = 12
	}
	id, err := nanoid.Generate(Alphabet, n)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return g.Prefix + id, nil
}

// RequestID returns a new request correlation ID, or "" if the random
// source failed. Callers omit the header in that case.
func RequestID() string {
	id, err := Requests.New()
	if err != nil {
		return ""
	}
	return id
}
