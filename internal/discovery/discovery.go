package discovery

import (
	"context"
	"regexp"
)

const DefaultUnitsFolder = "./migrations"

// unit identifiers carry a YYYY_MM_DD_HHMMSS prefix followed by a name
var unitIDRegexp = regexp.MustCompile(`^\d{4}_\d{2}_\d{2}_\d{6}_[a-zA-Z][a-zA-Z0-9_]*$`)

// Discovery lists available unit identifiers sorted ascending, which by
// the timestamp prefix convention equals chronological order.
type Discovery interface {
	ListUnits(ctx context.Context) ([]string, error)
}

// IsUnitID reports whether s is a well formed unit identifier.
func IsUnitID(s string) bool {
	return unitIDRegexp.MatchString(s)
}
