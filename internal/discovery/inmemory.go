package discovery

import (
	"context"
	"sort"
)

// InMemoryDiscovery serves a fixed identifier list, mainly for tests
// and for programs that register units without a migrations folder.
type InMemoryDiscovery struct {
	ids []string
}

var _ Discovery = (*InMemoryDiscovery)(nil)

func NewInMemoryDiscovery(ids ...string) *InMemoryDiscovery {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)

	return &InMemoryDiscovery{ids: sorted}
}

func (d *InMemoryDiscovery) ListUnits(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]string, len(d.ids))
	copy(out, d.ids)

	return out, nil
}
