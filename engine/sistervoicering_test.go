package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLinkSistersWithNilAnchorStartsSingletonRing(t *testing.T) {
	r := testRegion()
	v := newSineVoice(t, r, 60, 0.8)

	linkSisters(nil, v)

	assert.Same(t, v, v.ring.next)
	assert.Same(t, v, v.ring.prev)
}

func TestLinkSistersJoinsExistingRing(t *testing.T) {
	r := testRegion()
	a := newSineVoice(t, r, 60, 0.8)
	b := newSineVoice(t, r, 60, 0.8)
	c := newSineVoice(t, r, 60, 0.8)

	linkSisters(nil, a)
	linkSisters(a, b)
	linkSisters(a, c)

	var seen []*Voice
	forEachSister(a, func(v *Voice) { seen = append(seen, v) })

	assert.ElementsMatch(t, []*Voice{a, b, c}, seen)
	assert.Len(t, seen, 3)
}

func TestUnlinkSisterRemovesOnlyThatVoice(t *testing.T) {
	r := testRegion()
	a := newSineVoice(t, r, 60, 0.8)
	b := newSineVoice(t, r, 60, 0.8)

	linkSisters(nil, a)
	linkSisters(a, b)

	unlinkSister(b)

	assert.Nil(t, b.ring.next)
	assert.Nil(t, b.ring.prev)

	var seen []*Voice
	forEachSister(a, func(v *Voice) { seen = append(seen, v) })
	assert.Equal(t, []*Voice{a}, seen)
}

func TestUnlinkSisterOnSoleMemberIsSafe(t *testing.T) {
	r := testRegion()
	v := newSineVoice(t, r, 60, 0.8)

	linkSisters(nil, v)
	unlinkSister(v)

	assert.Nil(t, v.ring.next)
	assert.Nil(t, v.ring.prev)
}

func TestForEachSisterOnUnlinkedVoiceVisitsOnlyItself(t *testing.T) {
	r := testRegion()
	v := newSineVoice(t, r, 60, 0.8)

	var count int
	forEachSister(v, func(*Voice) { count++ })

	assert.Equal(t, 1, count)
}
