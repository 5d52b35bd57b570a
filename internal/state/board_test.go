package state

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RoomBoard/internal/shape"
)

func TestBoardAppendDedupesByID(t *testing.T) {
	b := NewBoard()
	r := shape.Rect{Width: 1, Height: 1}

	assert.True(t, b.Append("a", r))
	assert.False(t, b.Append("a", shape.Line{ToX: 3}))
	assert.True(t, b.Append("", r))
	assert.True(t, b.Append("", r))

	require.Equal(t, 3, b.Len())
	assert.Equal(t, []shape.Shape{r, r, r}, b.Shapes())
}

func TestBoardKeepsInsertionOrder(t *testing.T) {
	b := NewBoard()
	b.Append("1", shape.Rect{X: 1})
	b.Append("2", shape.Ellipse{CenterX: 2})
	b.Append("3", shape.Line{FromX: 3})

	ids := []string{}
	for _, e := range b.Entries() {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"1", "2", "3"}, ids)
}

func TestBoardReplace(t *testing.T) {
	b := NewBoard()
	b.Append("a", shape.Rect{X: 1})

	assert.True(t, b.Replace(0, shape.Rect{X: 9}))
	assert.False(t, b.Replace(1, shape.Rect{}))
	assert.False(t, b.Replace(-1, shape.Rect{}))

	entries := b.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, Entry{ID: "a", Shape: shape.Rect{X: 9}}, entries[0])
}

func TestBoardLoadReplacesContents(t *testing.T) {
	b := NewBoard()
	b.Append("old", shape.Rect{})

	b.Load([]Entry{
		{ID: "x", Shape: shape.Rect{X: 1}},
		{ID: "x", Shape: shape.Rect{X: 2}},
		{ID: "y", Shape: shape.Rect{X: 3}},
	})
	assert.Equal(t, []shape.Shape{shape.Rect{X: 1}, shape.Rect{X: 3}}, b.Shapes())
	assert.True(t, b.Append("old", shape.Rect{}))
}

func TestBoardEntriesIsACopy(t *testing.T) {
	b := NewBoard()
	b.Append("a", shape.Rect{X: 1})
	entries := b.Entries()
	entries[0].Shape = shape.Rect{X: 100}
	assert.Equal(t, shape.Rect{X: 1}, b.Shapes()[0])
}

func TestBoardConcurrentAppend(t *testing.T) {
	b := NewBoard()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Append(NewID(), shape.Rect{})
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, b.Len())
}
