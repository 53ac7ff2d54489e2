package clustering

import (
	"sort"

	"github.com/Ramsey-B/sage/pkg/blocking"
	"github.com/Ramsey-B/sage/pkg/models"
)

// Clusterer turns definite pairs into a partition of the record set.
type Clusterer struct{}

// NewClusterer creates a Clusterer.
func NewClusterer() *Clusterer {
	return &Clusterer{}
}

// Cluster unions every definite pair and returns the connected
// components as index groups. Every index 0..n-1 appears in exactly
// one group; singletons are included. Groups and their members are
// sorted so output does not depend on union order.
func (c *Clusterer) Cluster(n int, definite []blocking.Pair) [][]int {
	uf := NewUnionFind(n)
	for _, p := range definite {
		uf.Union(p.A, p.B)
	}

	byRoot := make(map[int][]int)
	for i := 0; i < n; i++ {
		root := uf.Find(i)
		byRoot[root] = append(byRoot[root], i)
	}

	groups := make([][]int, 0, len(byRoot))
	for _, members := range byRoot {
		sort.Ints(members)
		groups = append(groups, members)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i][0] < groups[j][0]
	})

	return groups
}

// CanonicalIDs maps every record to its cluster id: the
// lexicographically smallest provider_id among cluster members, which
// is the record's own provider_id for singletons. The result slice is
// parallel to records.
func CanonicalIDs(records []models.ProviderRecord, groups [][]int) []string {
	ids := make([]string, len(records))
	for _, members := range groups {
		canonical := records[members[0]].ProviderID
		for _, m := range members[1:] {
			if records[m].ProviderID < canonical {
				canonical = records[m].ProviderID
			}
		}
		for _, m := range members {
			ids[m] = canonical
		}
	}
	return ids
}

// Clusters converts multi-member index groups into the reportable
// cluster list. Singletons are omitted; members are provider ids
// sorted ascending with the canonical id first by construction.
func Clusters(records []models.ProviderRecord, groups [][]int) []models.Cluster {
	clusters := make([]models.Cluster, 0)
	for _, members := range groups {
		if len(members) < 2 {
			continue
		}
		memberIDs := make([]string, 0, len(members))
		for _, m := range members {
			memberIDs = append(memberIDs, records[m].ProviderID)
		}
		sort.Strings(memberIDs)
		clusters = append(clusters, models.Cluster{
			CanonicalID: memberIDs[0],
			MemberIDs:   memberIDs,
			Size:        len(memberIDs),
		})
	}
	return clusters
}
