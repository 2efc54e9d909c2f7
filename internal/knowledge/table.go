// Package knowledge serves canned answers for the simulated advisory
// endpoints. Lookups are exact string matches on the full question; there is
// no normalisation of case, whitespace or punctuation.
package knowledge

// Fallback is returned for any question a table does not know.
const Fallback = "I'm sorry, I don't have an answer for that."

// Table maps a question to its canned answer.
type Table map[string]string

// Lookup returns the answer for query, or Fallback.
func (t Table) Lookup(query string) string {
	if answer, ok := t[query]; ok {
		return answer
	}
	return Fallback
}
