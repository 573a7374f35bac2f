package searchindex

import (
	"fmt"
	"regexp"
	"strings"
)

// MaxTerms is the maximum number of terms in a query.
const MaxTerms = 32

// tokenStart finds "key:" at the start of the index or after a separating space.
var tokenStart = regexp.MustCompile(`(?:^| )([^\s:]+):`)

// Query is a parsed search expression over index strings.
// Terms sharing a key are OR'd, distinct keys are AND'd, and bare terms must all match.
type Query struct {
	keys   []string
	groups map[string][]*regexp.Regexp
	bare   []*regexp.Regexp
}

// ParseQuery splits q on whitespace into "key:value" terms.
// A keyed term matches a substring of that key's value only; a bare term
// matches anywhere in the index. Matching is case-insensitive and regex
// metacharacters are literal.
func ParseQuery(q string) (Query, error) {
	terms := strings.Fields(q)
	if len(terms) > MaxTerms {
		return Query{}, fmt.Errorf("too many query terms (max %d)", MaxTerms)
	}

	out := Query{groups: make(map[string][]*regexp.Regexp)}
	for _, term := range terms {
		key, val, ok := strings.Cut(term, ":")
		if !ok || key == "" {
			out.bare = append(out.bare, literal(term))
			continue
		}
		key = Key(key)
		if _, seen := out.groups[key]; !seen {
			out.keys = append(out.keys, key)
		}
		out.groups[key] = append(out.groups[key], literal(val))
	}
	return out, nil
}

func literal(s string) *regexp.Regexp {
	return regexp.MustCompile("(?i)" + regexp.QuoteMeta(s))
}

// IsEmpty reports whether the query has no terms. An empty query matches everything.
func (q Query) IsEmpty() bool {
	return len(q.keys) == 0 && len(q.bare) == 0
}

// Keys returns the distinct keys in first-seen order.
func (q Query) Keys() []string { return q.keys }

// Matches tests an index string against the query.
func (q Query) Matches(index string) bool {
	for _, re := range q.bare {
		if !re.MatchString(index) {
			return false
		}
	}
	if len(q.keys) == 0 {
		return true
	}

	values := Tokens(index)
	for _, key := range q.keys {
		if !anyMatch(q.groups[key], values[key]) {
			return false
		}
	}
	return true
}

// Tokens splits an index string into the values recorded under each key.
// A value runs until the next space-separated "key:" token, so values may hold spaces.
func Tokens(index string) map[string][]string {
	locs := tokenStart.FindAllStringSubmatchIndex(index, -1)
	out := make(map[string][]string, len(locs))
	for i, loc := range locs {
		end := len(index)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		key := strings.ToLower(index[loc[2]:loc[3]])
		out[key] = append(out[key], index[loc[1]:end])
	}
	return out
}

func anyMatch(res []*regexp.Regexp, values []string) bool {
	for _, re := range res {
		for _, v := range values {
			if re.MatchString(v) {
				return true
			}
		}
	}
	return false
}
