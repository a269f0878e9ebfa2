package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func donor(id int64, chrom string, strand Strand, pos int64) *JunctionSite {
	return &JunctionSite{ID: id, Type: Donor, Chrom: chrom, Strand: strand, Position: pos}
}

func acceptor(id int64, chrom string, strand Strand, pos int64) *JunctionSite {
	return &JunctionSite{ID: id, Type: Acceptor, Chrom: chrom, Strand: strand, Position: pos}
}

func TestBuildSiteIndex_Empty(t *testing.T) {
	idx := BuildSiteIndex(nil)
	assert.Equal(t, 0, idx.Len())
	assert.Nil(t, idx.Nearest(Donor, "chr1", 100, StrandForward, NoMaxDist))
	assert.Nil(t, idx.Exact(Donor, "chr1", 100, StrandForward))
}

func TestSiteIndex_NearestPicksCloser(t *testing.T) {
	idx := BuildSiteIndex([]*JunctionSite{
		donor(1, "chr1", StrandForward, 100),
		donor(2, "chr1", StrandForward, 200),
		donor(3, "chr1", StrandForward, 300),
	})

	assert.Equal(t, int64(200), idx.Nearest(Donor, "chr1", 190, StrandForward, NoMaxDist).Position)
	assert.Equal(t, int64(200), idx.Nearest(Donor, "chr1", 240, StrandForward, NoMaxDist).Position)
	assert.Equal(t, int64(300), idx.Nearest(Donor, "chr1", 260, StrandForward, NoMaxDist).Position)
	assert.Equal(t, int64(100), idx.Nearest(Donor, "chr1", 1, StrandForward, NoMaxDist).Position, "only upper candidate")
	assert.Equal(t, int64(300), idx.Nearest(Donor, "chr1", 5000, StrandForward, NoMaxDist).Position, "only lower candidate")
}

func TestSiteIndex_TieGoesUp(t *testing.T) {
	idx := BuildSiteIndex([]*JunctionSite{
		donor(1, "chr1", StrandForward, 100),
		donor(2, "chr1", StrandForward, 110),
	})

	got := idx.Nearest(Donor, "chr1", 105, StrandForward, NoMaxDist)
	require.NotNil(t, got)
	assert.Equal(t, int64(110), got.Position)
	assert.Equal(t, int64(2), got.ID)
}

func TestSiteIndex_EqualPositionsBreakByID(t *testing.T) {
	idx := BuildSiteIndex([]*JunctionSite{
		donor(7, "chr1", StrandForward, 100),
		donor(3, "chr1", StrandForward, 100),
		donor(5, "chr1", StrandForward, 100),
		donor(9, "chr1", StrandForward, 50),
		donor(4, "chr1", StrandForward, 50),
	})

	// Upper candidate: lowest ID at the smallest qualifying position.
	assert.Equal(t, int64(3), idx.Nearest(Donor, "chr1", 99, StrandForward, NoMaxDist).ID)
	// Lower candidate: highest ID at the largest qualifying position.
	assert.Equal(t, int64(9), idx.Nearest(Donor, "chr1", 51, StrandForward, NoMaxDist).ID)
	// Exact hit: both candidates at distance 0, the upper one wins.
	assert.Equal(t, int64(3), idx.Exact(Donor, "chr1", 100, StrandForward).ID)
}

func TestSiteIndex_FiltersByKey(t *testing.T) {
	idx := BuildSiteIndex([]*JunctionSite{
		donor(1, "chr1", StrandForward, 100),
		donor(2, "chr1", StrandReverse, 150),
		acceptor(3, "chr1", StrandForward, 151),
		donor(4, "chr2", StrandForward, 152),
	})

	got := idx.Nearest(Donor, "chr1", 152, StrandForward, NoMaxDist)
	require.NotNil(t, got)
	assert.Equal(t, int64(1), got.ID, "other strand, type and chromosome ignored")

	assert.Nil(t, idx.Nearest(Donor, "chr3", 152, StrandForward, NoMaxDist))
	assert.Nil(t, idx.Nearest(Acceptor, "chr1", 152, StrandReverse, NoMaxDist))
}

func TestSiteIndex_UnknownStrandSearchesBoth(t *testing.T) {
	idx := BuildSiteIndex([]*JunctionSite{
		donor(1, "chr1", StrandForward, 100),
		donor(2, "chr1", StrandReverse, 150),
	})

	assert.Equal(t, int64(2), idx.Nearest(Donor, "chr1", 140, StrandUnknown, NoMaxDist).ID)
	assert.Equal(t, int64(1), idx.Nearest(Donor, "chr1", 110, StrandUnknown, NoMaxDist).ID)
	assert.Equal(t, int64(2), idx.Nearest(Donor, "chr1", 125, StrandUnknown, NoMaxDist).ID, "tie across strands goes up")
}

func TestSiteIndex_MaxDistInclusive(t *testing.T) {
	idx := BuildSiteIndex([]*JunctionSite{donor(1, "chr1", StrandForward, 105)})

	assert.NotNil(t, idx.Nearest(Donor, "chr1", 100, StrandForward, 5), "distance equal to maxDist accepted")
	assert.Nil(t, idx.Nearest(Donor, "chr1", 100, StrandForward, 4), "distance above maxDist rejected")
	assert.NotNil(t, idx.Nearest(Donor, "chr1", 0, StrandForward, NoMaxDist), "no cutoff")
	assert.Nil(t, idx.Exact(Donor, "chr1", 104, StrandForward))
	assert.NotNil(t, idx.Exact(Donor, "chr1", 105, StrandForward))
}

func TestSiteIndex_GateAppliesAfterSelection(t *testing.T) {
	// The closer site is chosen first; the gate never falls back to the
	// other candidate.
	idx := BuildSiteIndex([]*JunctionSite{
		donor(1, "chr1", StrandForward, 90),
		donor(2, "chr1", StrandForward, 103),
	})
	got := idx.Nearest(Donor, "chr1", 100, StrandForward, 2)
	assert.Nil(t, got)
}

func TestSiteIndex_MatchesLinearScan(t *testing.T) {
	var sites []*JunctionSite
	positions := []int64{1000, 1000, 1500, 2200, 2210, 2220, 4000, 4000, 9000}
	for i, p := range positions {
		sites = append(sites, donor(int64(i+1), "chr1", StrandForward, p))
	}
	idx := BuildSiteIndex(sites)

	for pos := int64(0); pos <= 10000; pos += 37 {
		var up, down *JunctionSite
		for _, s := range sites {
			if s.Position >= pos && (up == nil || s.Position < up.Position) {
				up = s
			}
			if s.Position <= pos && (down == nil || s.Position > down.Position || (s.Position == down.Position && s.ID > down.ID)) {
				down = s
			}
		}
		want := PickNearest(up, down, pos)
		got := idx.Nearest(Donor, "chr1", pos, StrandForward, NoMaxDist)
		assert.Equal(t, want, got, "pos=%d", pos)
	}
}

func TestPickNearest(t *testing.T) {
	up := donor(1, "chr1", StrandForward, 110)
	down := donor(2, "chr1", StrandForward, 95)

	assert.Same(t, down, PickNearest(up, down, 100))
	assert.Same(t, up, PickNearest(up, nil, 100))
	assert.Same(t, down, PickNearest(nil, down, 100))
	assert.Nil(t, PickNearest(nil, nil, 100))
}

func TestWithinDist(t *testing.T) {
	s := donor(1, "chr1", StrandForward, 100)

	assert.Same(t, s, WithinDist(s, 94, 6))
	assert.Nil(t, WithinDist(s, 93, 6))
	assert.Same(t, s, WithinDist(s, 1, NoMaxDist))
	assert.Nil(t, WithinDist(nil, 1, NoMaxDist))
}
