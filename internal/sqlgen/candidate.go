package sqlgen

import "github.com/chainsight/chainsight/internal/nlu"

// Source tags how a candidate was produced. Downstream validation treats
// both sources identically; the tag exists for diagnostics and formatting,
// never for trust decisions.
type Source string

const (
	SourceTemplate Source = "TEMPLATE"
	SourceModel    Source = "MODEL"
)

// Candidate is one parameterized SQL statement proposed for execution.
// Entity values live in Params in placeholder order; they are never
// concatenated into SQL.
type Candidate struct {
	Intent     nlu.Intent
	Entities   nlu.Entities
	SQL        string
	Params     []interface{}
	Source     Source
	Confidence float64
}
