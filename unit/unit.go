// Package unit defines the migration unit contract and the registry
// that maps derived unit names to their implementations.
package unit

import (
	"context"
	"database/sql"
	"strings"
	"unicode"
)

// Executor is the slice of a database handle a unit runs against.
// Both *sql.DB and *sql.Tx satisfy it.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Unit is a single forward/backward schema change step.
type Unit interface {
	Up(ctx context.Context, ex Executor) error
	Down(ctx context.Context, ex Executor) error
}

// Factory produces a ready to use Unit.
type Factory func() Unit

// identifier prefix: year, month, day, HHMMSS
const versionSegments = 4

// DeriveName converts a unit identifier into the name its implementation
// is registered under: the first four underscore delimited segments are
// dropped and every remaining segment is capitalized.
//
//	2020_01_01_000000_create_users_table -> CreateUsersTable
//
// An identifier with no segments past the version prefix yields "".
func DeriveName(id string) string {
	segments := strings.Split(id, "_")
	if len(segments) <= versionSegments {
		return ""
	}

	var b strings.Builder
	for _, s := range segments[versionSegments:] {
		b.WriteString(ucFirst(s))
	}

	return b.String()
}

func ucFirst(s string) string {
	r := []rune(s)

	if len(r) == 0 {
		return ""
	}

	f := string(unicode.ToUpper(r[0]))

	return f + string(r[1:])
}
