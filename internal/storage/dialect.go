package storage

import (
	"strconv"
	"strings"
)

// Dialect captures the differences between the supported SQL engines.
type Dialect struct {
	Name   string // migration directory and migrate driver name
	Driver string // database/sql driver name
	// Numbered is true when placeholders are $1, $2, ... instead of ?.
	Numbered bool
}

var (
	DialectSQLite   = Dialect{Name: "sqlite", Driver: "sqlite"}
	DialectPostgres = Dialect{Name: "postgres", Driver: "postgres", Numbered: true}
)

// Rebind rewrites ? placeholders for dialects that number them.
// Queries in this package never contain a literal question mark.
func (d Dialect) Rebind(query string) string {
	if !d.Numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
