package ringbuffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushAndShiftPreservesOrder(t *testing.T) {
	b := New[int](4)
	b.Push(1)
	b.Push(2)
	b.Push(3)

	v, ok := b.Shift()
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, b.Len())
}

func TestPeekDoesNotRemove(t *testing.T) {
	b := New[int](4)
	b.Push(1)
	v, ok := b.Peek()
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 1, b.Len())
}

func TestShiftOnEmptyReturnsFalse(t *testing.T) {
	b := New[int](4)
	_, ok := b.Shift()
	assert.False(t, ok)
}

func TestOverflowDropsOldestAndCountsIt(t *testing.T) {
	b := New[int](3)
	b.Push(1)
	b.Push(2)
	b.Push(3)
	b.Push(4) // drops 1

	assert.Equal(t, 3, b.Len())
	assert.Equal(t, 1, b.Stats().Dropped)
	assert.Equal(t, []int{2, 3, 4}, b.Snapshot())
}

func TestBoundedBufferOf500Dropping100(t *testing.T) {
	b := New[int](500)
	for i := 0; i < 600; i++ {
		b.Push(i)
	}
	stats := b.Stats()
	assert.Equal(t, 500, stats.Size)
	assert.Equal(t, 100, stats.Dropped)

	got := b.Snapshot()
	require.Len(t, got, 500)
	for i, v := range got {
		assert.Equal(t, 100+i, v)
	}
}

func TestEachStopsEarly(t *testing.T) {
	b := New[int](5)
	for i := 0; i < 5; i++ {
		b.Push(i)
	}
	var seen []int
	b.Each(func(v int) bool {
		seen = append(seen, v)
		return v < 2
	})
	assert.Equal(t, []int{0, 1, 2}, seen)
}

func TestShiftNReturnsOldestFirst(t *testing.T) {
	b := New[int](5)
	for i := 0; i < 5; i++ {
		b.Push(i)
	}
	batch := b.ShiftN(3)
	assert.Equal(t, []int{0, 1, 2}, batch)
	assert.Equal(t, 2, b.Len())
}

func TestPushFrontRequeuesPreservingOrder(t *testing.T) {
	b := New[int](5)
	b.Push(10)
	batch := b.ShiftN(1)
	require.Equal(t, []int{10}, batch)

	b.Push(20)
	b.Push(30)
	b.PushFront(batch) // requeue the failed batch ahead of 20, 30

	assert.Equal(t, []int{10, 20, 30}, b.Snapshot())
}

func TestPushFrontDropsExcessOnOverflow(t *testing.T) {
	b := New[int](3)
	b.Push(1)
	b.Push(2)
	b.Push(3)
	b.PushFront([]int{97, 98, 99})

	stats := b.Stats()
	assert.Equal(t, 3, stats.Size)
	assert.Equal(t, 3, stats.Dropped, "no room left, so all of the requeued batch is dropped")
}

func TestUtilizationReflectsOccupancy(t *testing.T) {
	b := New[int](4)
	b.Push(1)
	b.Push(2)
	assert.InDelta(t, 0.5, b.Stats().Utilization, 0.0001)
}
