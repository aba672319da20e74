package schema

import "strings"

// ColumnType is the declared storage type of a catalogue column.
type ColumnType string

const (
	TypeText    ColumnType = "TEXT"
	TypeInteger ColumnType = "INTEGER"
	TypeReal    ColumnType = "REAL"
)

type Column struct {
	Name     string
	Type     ColumnType
	Nullable bool
}

type ForeignKey struct {
	Columns    []string
	RefTable   string
	RefColumns []string
}

// Table describes one queryable table or view, including which of its
// columns may appear in WHERE clauses and which may be selected.
type Table struct {
	Name          string
	Columns       []Column
	PrimaryKey    []string
	ForeignKeys   []ForeignKey
	FilterColumns []string
	OutputColumns []string
}

// Descriptor is the immutable catalogue of queryable tables plus the set of
// known chain identifiers. It is built once at startup and shared read-only.
type Descriptor struct {
	tables      []Table
	byName      map[string]*Table
	identifiers map[string]bool
	chains      []string
	chainSet    map[string]bool
}

// New builds a Descriptor from the given tables and known chain IDs.
func New(tables []Table, chainIDs []string) *Descriptor {
	d := &Descriptor{
		tables:      tables,
		byName:      make(map[string]*Table, len(tables)),
		identifiers: make(map[string]bool),
		chainSet:    make(map[string]bool, len(chainIDs)),
	}
	for i := range d.tables {
		t := &d.tables[i]
		d.byName[strings.ToUpper(t.Name)] = t
		d.identifiers[strings.ToUpper(t.Name)] = true
		for _, c := range t.Columns {
			d.identifiers[strings.ToUpper(c.Name)] = true
		}
	}
	for _, id := range chainIDs {
		id = strings.ToUpper(strings.TrimSpace(id))
		if id == "" || d.chainSet[id] {
			continue
		}
		d.chainSet[id] = true
		d.chains = append(d.chains, id)
	}
	return d
}

func (d *Descriptor) Tables() []Table {
	out := make([]Table, len(d.tables))
	copy(out, d.tables)
	return out
}

func (d *Descriptor) Table(name string) (*Table, bool) {
	t, ok := d.byName[strings.ToUpper(name)]
	return t, ok
}

// KnownIdentifier reports whether a bare SQL identifier resolves to a
// catalogue table or column. Matching is case-insensitive.
func (d *Descriptor) KnownIdentifier(token string) bool {
	return d.identifiers[strings.ToUpper(token)]
}

// FilterAllowed reports whether a column may be used as a filter on the table.
func (d *Descriptor) FilterAllowed(table, column string) bool {
	t, ok := d.Table(table)
	if !ok {
		return false
	}
	for _, c := range t.FilterColumns {
		if strings.EqualFold(c, column) {
			return true
		}
	}
	return false
}

// KnownChains returns the chain identifiers in registration order.
func (d *Descriptor) KnownChains() []string {
	out := make([]string, len(d.chains))
	copy(out, d.chains)
	return out
}

// ResolveChain maps a candidate chain identifier to a registered one.
// Resolution order: exact, unique prefix, then fuzzy (edit distance <= 2).
// It never invents an identifier: a miss returns ("", false).
func (d *Descriptor) ResolveChain(candidate string) (string, bool) {
	c := strings.ToUpper(strings.TrimSpace(candidate))
	if c == "" {
		return "", false
	}
	if d.chainSet[c] {
		return c, true
	}

	var prefixMatch string
	prefixHits := 0
	for _, id := range d.chains {
		if strings.HasPrefix(id, c) {
			prefixMatch = id
			prefixHits++
		}
	}
	if prefixHits == 1 {
		return prefixMatch, true
	}

	best := ""
	bestDist := 3 // distances >= 3 are not accepted
	for _, id := range d.chains {
		if dist := editDistance(c, id, bestDist); dist < bestDist {
			best, bestDist = id, dist
		}
	}
	if best != "" {
		return best, true
	}
	return "", false
}

// editDistance is Levenshtein with an early cutoff: any result >= max is
// reported as max.
func editDistance(a, b string, max int) int {
	if diff := len(a) - len(b); diff > max || -diff > max {
		return max
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		rowMin := curr[0]
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
			if curr[j] < rowMin {
				rowMin = curr[j]
			}
		}
		if rowMin >= max {
			return max
		}
		prev, curr = curr, prev
	}
	if prev[len(b)] > max {
		return max
	}
	return prev[len(b)]
}
