// Package sqlxrepos implements the core repositories on PostgreSQL via sqlx.
// All queries are parameterized; uniqueness invariants live in the schema and
// violations are translated to the core error taxonomy here.
package sqlxrepos

import (
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

const pgUniqueViolation = "23505"

// isUniqueViolation reports whether err is a unique-constraint violation,
// optionally on one of the named constraints.
func isUniqueViolation(err error, constraints ...string) bool {
	pqErr, ok := errors.Cause(err).(*pq.Error)
	if !ok || pqErr.Code != pgUniqueViolation {
		return false
	}
	if len(constraints) == 0 {
		return true
	}
	for _, c := range constraints {
		if pqErr.Constraint == c {
			return true
		}
	}
	return false
}

// orderBy renders an ORDER BY clause from client-provided orderings, keeping
// only whitelisted fields, falling back to def.
func orderBy(orderings []core.DBOrdering, allowed map[string]string, def string) string {
	var terms []string
	for _, ord := range orderings {
		col, ok := allowed[ord.Field]
		if !ok {
			continue
		}
		terms = append(terms, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
	}
	if len(terms) == 0 {
		return " ORDER BY " + def
	}
	return " ORDER BY " + strings.Join(terms, ", ")
}
