// Package rank converts aggregated probe results and mined phrases into
// ordered, deduplicated candidate shortlists.
package rank

import (
	"sort"

	"github.com/sells-group/rivalscan/internal/serp"
)

const (
	probeCountWeight = 100
	avgPositionCost  = 6
)

// Competitor is a domain with its aggregate probe signal.
type Competitor struct {
	Domain      string  `json:"domain"`
	ProbeCount  int     `json:"probe_count"`
	AvgPosition float64 `json:"avg_position"`
	Score       float64 `json:"score"`
}

// Competitors groups rows by domain and ranks them. Breadth beats depth: a
// domain surfacing under many distinct probes outranks a single high
// placement. Ordering is deterministic for identical input rows.
func Competitors(rows []serp.Row) []Competitor {
	type acc struct {
		probes    map[string]struct{}
		positions int
		hits      int
	}
	byDomain := make(map[string]*acc)
	for _, r := range rows {
		a := byDomain[r.Domain]
		if a == nil {
			a = &acc{probes: make(map[string]struct{})}
			byDomain[r.Domain] = a
		}
		a.probes[r.Probe] = struct{}{}
		a.positions += r.Position
		a.hits++
	}

	out := make([]Competitor, 0, len(byDomain))
	for domain, a := range byDomain {
		avg := float64(a.positions) / float64(a.hits)
		out = append(out, Competitor{
			Domain:      domain,
			ProbeCount:  len(a.probes),
			AvgPosition: avg,
			Score:       float64(len(a.probes))*probeCountWeight - avg*avgPositionCost,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Domain < out[j].Domain
	})
	return out
}

// Domains projects ranked competitors onto their domain names.
func Domains(cs []Competitor) []string {
	ds := make([]string, 0, len(cs))
	for _, c := range cs {
		ds = append(ds, c.Domain)
	}
	return ds
}
