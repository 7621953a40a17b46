package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRegionSetOnlyTracksGroupsWithPolyphonyLimits(t *testing.T) {
	withLimit := FullRegion(1)
	withLimit.Group = 1
	withLimit.GroupPolyphony = 4

	noLimit := FullRegion(2)
	noLimit.Group = 2

	rs := NewRegionSet([]*Region{withLimit, noLimit})

	assert.NotNil(t, rs.GroupFor(1))
	assert.Nil(t, rs.GroupFor(2))
}

func TestNewRegionSetTracksSetLimitFromFirstRegionDeclaringOne(t *testing.T) {
	a := FullRegion(1)
	a.SetPolyphony = 8

	b := FullRegion(2)

	rs := NewRegionSet([]*Region{a, b})

	assert.NotNil(t, rs.SetLimit())
	assert.Equal(t, 8, rs.SetLimit().Limit)
}

func TestPolyphonyGroupCanActivateRespectsLimit(t *testing.T) {
	g := NewPolyphonyGroup(1, 2)

	assert.True(t, g.CanActivate())
	g.Enter()
	assert.True(t, g.CanActivate())
	g.Enter()
	assert.False(t, g.CanActivate())

	g.Leave()
	assert.True(t, g.CanActivate())
}

func TestPolyphonyGroupUnlimitedWhenLimitIsZero(t *testing.T) {
	g := NewPolyphonyGroup(1, 0)

	for i := 0; i < 100; i++ {
		g.Enter()
	}

	assert.True(t, g.CanActivate())
}

func TestPolyphonyGroupLeaveNeverGoesNegative(t *testing.T) {
	g := NewPolyphonyGroup(1, 1)

	g.Leave()
	g.Leave()

	assert.Equal(t, 0, g.Active())
}

func TestRegionSetOffByGroupsCollectsDistinctValues(t *testing.T) {
	a := FullRegion(1)
	a.OffByGroup = 1

	b := FullRegion(2)
	b.OffByGroup = 2

	c := FullRegion(3) // OffByGroup left at 0, not a real off_by group

	rs := NewRegionSet([]*Region{a, b, c})
	groups := rs.OffByGroups()

	assert.True(t, groups[1])
	assert.True(t, groups[2])
	assert.False(t, groups[0])
	assert.Len(t, groups, 2)
}
