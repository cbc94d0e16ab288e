package brackets

import (
	"fmt"
	"sort"
	"strings"
)

// ThirdPlaceCrossRuleProvider maps the set of groups whose third-placed team
// qualifies onto the bracket. The key is the sorted concatenation of the qualifying
// group letters; the row maps each position-3 rule label to a concrete group.
type ThirdPlaceCrossRuleProvider interface {
	Name() string
	Lookup(key string) (map[string]string, bool)
}

// CrossRuleTable is an immutable ThirdPlaceCrossRuleProvider backed by a map.
type CrossRuleTable struct {
	name string
	rows map[string]map[string]string
}

// NewCrossRuleTable builds a table from labels (in column order) and rows of
// concrete group letters, one letter per label.
func NewCrossRuleTable(name string, labels []string, rows map[string]string) *CrossRuleTable {
	table := &CrossRuleTable{name: name, rows: make(map[string]map[string]string, len(rows))}
	for key, letters := range rows {
		if len(letters) != len(labels) {
			panic(fmt.Sprintf("brackets: cross rule row %s of %s has %d letters, want %d", key, name, len(letters), len(labels)))
		}
		row := make(map[string]string, len(labels))
		for i, label := range labels {
			row[label] = string(letters[i])
		}
		table.rows[key] = row
	}
	return table
}

func (t *CrossRuleTable) Name() string { return t.name }

// Lookup returns a copy of the row for key.
func (t *CrossRuleTable) Lookup(key string) (map[string]string, bool) {
	row, ok := t.rows[key]
	if !ok {
		return nil, false
	}
	out := make(map[string]string, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out, true
}

// Keys lists the combinations present in the table, sorted.
func (t *CrossRuleTable) Keys() []string {
	keys := make([]string, 0, len(t.rows))
	for k := range t.rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Euro24Table is the 24-team, 6-group table where the winners of groups B, C, E and
// F face the four best third-placed teams (EURO 2020 and 2024).
var Euro24Table = NewCrossRuleTable("euro24", []string{"ADEF", "DEF", "ABCD", "ABC"}, map[string]string{
	"ABCD": "ADBC",
	"ABCE": "AEBC",
	"ABCF": "AFBC",
	"ABDE": "DEAB",
	"ABDF": "DFAB",
	"ABEF": "EFBA",
	"ACDE": "EDCA",
	"ACDF": "FDCA",
	"ACEF": "EFCA",
	"ADEF": "EFDA",
	"BCDE": "EDBC",
	"BCDF": "FDCB",
	"BCEF": "FECB",
	"BDEF": "FEDB",
	"CDEF": "FEDC",
})

// Euro16Table is the 24-team, 6-group table where the winners of groups A, B, C and
// D face the four best third-placed teams (EURO 2016).
var Euro16Table = NewCrossRuleTable("euro16", []string{"CDE", "ACD", "ABF", "BEF"}, map[string]string{
	"ABCD": "CDAB",
	"ABCE": "CABE",
	"ABCF": "CABF",
	"ABDE": "DABE",
	"ABDF": "DABF",
	"ABEF": "EABF",
	"ACDE": "CDAE",
	"ACDF": "CDAF",
	"ACEF": "CAFE",
	"ADEF": "DAFE",
	"BCDE": "CDBE",
	"BCDF": "CDBF",
	"BCEF": "ECBF",
	"BDEF": "EDBF",
	"CDEF": "CDFE",
})

// CrossRuleTableByName returns a built-in table. An empty name means no table:
// position-3 rules then name their group literally.
func CrossRuleTableByName(name string) (ThirdPlaceCrossRuleProvider, error) {
	switch strings.ToLower(name) {
	case "":
		return nil, nil
	case Euro24Table.Name():
		return Euro24Table, nil
	case Euro16Table.Name():
		return Euro16Table, nil
	}
	return nil, fmt.Errorf("%w: unknown third place table %q", ErrInvalidConfiguration, name)
}

func sortedLetters(letters []string) string {
	sorted := append([]string(nil), letters...)
	sort.Strings(sorted)
	return strings.Join(sorted, "")
}
