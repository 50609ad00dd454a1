package domain

import "strings"

// Matcher resolves free-text queries onto a closed, ordered set of keys.
type Matcher struct {
	keys       []string
	normalized []string
}

// NewMatcher creates a Matcher over keys. Key order is the tie-break order.
// Keys that normalize to the empty string are ignored.
func NewMatcher(keys []string) *Matcher {
	m := &Matcher{}
	for _, k := range keys {
		n := normalizeLocation(k)
		if n == "" {
			continue
		}
		m.keys = append(m.keys, k)
		m.normalized = append(m.normalized, n)
	}
	return m
}

// Match returns the first key whose normalized form is contained in the
// normalized query.
func (m *Matcher) Match(query string) (string, bool) {
	q := normalizeLocation(query)
	if q == "" {
		return "", false
	}
	for i, k := range m.normalized {
		if strings.Contains(q, k) {
			return m.keys[i], true
		}
	}
	return "", false
}

// Keys returns the matchable keys in tie-break order.
func (m *Matcher) Keys() []string {
	return append([]string(nil), m.keys...)
}

// normalizeLocation lowercases s and collapses whitespace runs to one space.
func normalizeLocation(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
