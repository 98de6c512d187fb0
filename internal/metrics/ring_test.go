package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func epochs(snaps []Snapshot) []int {
	out := make([]int, len(snaps))
	for i, s := range snaps {
		out[i] = s.Epoch
	}
	return out
}

func TestRingEvictsOldest(t *testing.T) {
	r := NewRing(3)
	for e := 0; e < 5; e++ {
		r.Append(Snapshot{Epoch: e * 21})
	}
	require.Equal(t, 3, r.Len())
	assert.Equal(t, []int{42, 63, 84}, epochs(r.Snapshots()))
}

func TestRingPartial(t *testing.T) {
	r := NewRing(4)
	r.Append(Snapshot{Epoch: 0})
	r.Append(Snapshot{Epoch: 21})
	assert.Equal(t, []int{0, 21}, epochs(r.Snapshots()))
	assert.Equal(t, 4, r.Cap())
}

func TestRingReset(t *testing.T) {
	r := NewRing(2)
	r.Append(Snapshot{Epoch: 1})
	r.Append(Snapshot{Epoch: 2})
	r.Append(Snapshot{Epoch: 3})
	r.Reset()
	assert.Zero(t, r.Len())
	assert.Empty(t, r.Snapshots())
	r.Append(Snapshot{Epoch: 4})
	assert.Equal(t, []int{4}, epochs(r.Snapshots()))
}

func TestNewRingDefaultCap(t *testing.T) {
	assert.Equal(t, DefaultRingCap, NewRing(0).Cap())
}
