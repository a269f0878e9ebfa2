package cache

import "sort"

// NoMaxDist disables the distance gate of a nearest-site lookup.
const NoMaxDist int64 = -1

type siteKey struct {
	chrom    string
	strand   Strand
	siteType SiteType
}

// SiteIndex answers nearest-site queries with a binary search over sites
// sorted by (Position, ID) per (chromosome, strand, type).
// Sites are loaded once and never modified after build.
type SiteIndex struct {
	sites map[siteKey][]*JunctionSite
	size  int
}

// BuildSiteIndex creates a site index from a slice of junction sites.
func BuildSiteIndex(sites []*JunctionSite) *SiteIndex {
	idx := &SiteIndex{sites: make(map[siteKey][]*JunctionSite)}
	for _, s := range sites {
		k := siteKey{chrom: s.Chrom, strand: s.Strand, siteType: s.Type}
		idx.sites[k] = append(idx.sites[k], s)
	}
	for _, list := range idx.sites {
		sort.Slice(list, func(i, j int) bool {
			if list[i].Position != list[j].Position {
				return list[i].Position < list[j].Position
			}
			return list[i].ID < list[j].ID
		})
	}
	idx.size = len(sites)
	return idx
}

// Len returns the number of indexed sites.
func (x *SiteIndex) Len() int {
	return x.size
}

// Nearest returns the site of type t on chrom closest to pos, or nil.
// StrandUnknown searches both strands. Among the nearest site at or above
// pos (lowest ID on equal positions) and the nearest site at or below pos
// (highest ID on equal positions) the closer one wins, the upper one on a
// tie. The result is dropped when it lies more than maxDist away; a
// negative maxDist disables that check.
func (x *SiteIndex) Nearest(t SiteType, chrom string, pos int64, strand Strand, maxDist int64) *JunctionSite {
	var up, down *JunctionSite
	for _, s := range x.strands(strand) {
		u, d := x.bracket(siteKey{chrom: chrom, strand: s, siteType: t}, pos)
		if u != nil && (up == nil || before(u, up)) {
			up = u
		}
		if d != nil && (down == nil || before(down, d)) {
			down = d
		}
	}
	return WithinDist(PickNearest(up, down, pos), pos, maxDist)
}

// Exact returns the site of type t at exactly pos, or nil.
func (x *SiteIndex) Exact(t SiteType, chrom string, pos int64, strand Strand) *JunctionSite {
	return x.Nearest(t, chrom, pos, strand, 0)
}

func (x *SiteIndex) strands(s Strand) []Strand {
	if s == StrandUnknown {
		return []Strand{StrandForward, StrandReverse}
	}
	return []Strand{s}
}

// bracket returns the first site with Position >= pos and the last site with
// Position <= pos for one key.
func (x *SiteIndex) bracket(k siteKey, pos int64) (up, down *JunctionSite) {
	list := x.sites[k]
	if len(list) == 0 {
		return nil, nil
	}

	lo := sort.Search(len(list), func(i int) bool {
		return list[i].Position >= pos
	})
	if lo < len(list) {
		up = list[lo]
	}

	hi := sort.Search(len(list), func(i int) bool {
		return list[i].Position > pos
	})
	if hi > 0 {
		down = list[hi-1]
	}
	return up, down
}

// before orders sites by (Position, ID).
func before(a, b *JunctionSite) bool {
	if a.Position != b.Position {
		return a.Position < b.Position
	}
	return a.ID < b.ID
}

// PickNearest chooses between the upper and lower candidate of a lookup at
// pos. Either may be nil. The upper candidate wins a distance tie.
func PickNearest(up, down *JunctionSite, pos int64) *JunctionSite {
	switch {
	case up != nil && down != nil:
		if up.Distance(pos) <= down.Distance(pos) {
			return up
		}
		return down
	case up != nil:
		return up
	default:
		return down
	}
}

// WithinDist returns s unless it lies more than maxDist from pos. A negative
// maxDist accepts any distance.
func WithinDist(s *JunctionSite, pos, maxDist int64) *JunctionSite {
	if s == nil {
		return nil
	}
	if maxDist >= 0 && s.Distance(pos) > maxDist {
		return nil
	}
	return s
}
