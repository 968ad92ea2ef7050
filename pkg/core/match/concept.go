package match

// Concept is a canonical line item addressed by the labels different providers
// and reporting standards use for it.
type Concept struct {
	Key       string
	Synonyms  []string
	Magnitude bool // resolve as an absolute value (costs, expenses)
}

// Cost declares a concept resolved as a magnitude.
func Cost(key string, synonyms ...string) Concept {
	return Concept{Key: key, Synonyms: synonyms, Magnitude: true}
}

// Item declares a concept that keeps its reported sign.
func Item(key string, synonyms ...string) Concept {
	return Concept{Key: key, Synonyms: synonyms}
}

// Values is the read-only result of resolving a concept table.
// Unknown keys read as 0, the same as an unmatched line item.
type Values struct {
	byKey   map[string]int64
	matches []Match
}

func newValues(matches []Match) Values {
	v := Values{byKey: make(map[string]int64, len(matches)), matches: matches}
	for _, m := range matches {
		v.byKey[m.Key] = m.Value
	}
	return v
}

// Get returns the resolved value of key.
func (v Values) Get(key string) int64 {
	return v.byKey[key]
}

// Has reports whether key was part of the concept table.
func (v Values) Has(key string) bool {
	_, ok := v.byKey[key]
	return ok
}

// Found reports whether key resolved to a table row.
func (v Values) Found(key string) bool {
	for _, m := range v.matches {
		if m.Key == key {
			return m.Row >= 0
		}
	}
	return false
}

// Matches lists the resolutions in concept-table order.
func (v Values) Matches() []Match {
	return append([]Match(nil), v.matches...)
}

// Keys lists the concept keys in concept-table order.
func (v Values) Keys() []string {
	keys := make([]string, len(v.matches))
	for i, m := range v.matches {
		keys[i] = m.Key
	}
	return keys
}
