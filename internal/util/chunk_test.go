package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunks(t *testing.T) {
	items := make([]int, 95)
	for i := range items {
		items[i] = i + 1
	}

	chunks := ChunkSlice(items, 20)
	require.Len(t, chunks, 5)

	lengths := make([]int, len(chunks))
	for i, c := range chunks {
		lengths[i] = len(c)
	}
	assert.Equal(t, []int{20, 20, 20, 20, 15}, lengths)

	// Order preserved, no element duplicated across chunks.
	var flat []int
	for _, c := range chunks {
		flat = append(flat, c...)
	}
	assert.Equal(t, items, flat)
}

func TestChunks_Empty(t *testing.T) {
	assert.Nil(t, ChunkSlice([]string{}, 10))
}

func TestChunks_ExactMultiple(t *testing.T) {
	chunks := ChunkSlice([]int{1, 2, 3, 4}, 2)
	require.Len(t, chunks, 2)
	assert.Equal(t, []int{1, 2}, chunks[0])
	assert.Equal(t, []int{3, 4}, chunks[1])
}

func TestChunks_SizeLargerThanInput(t *testing.T) {
	chunks := ChunkSlice([]int{1, 2}, 50)
	require.Len(t, chunks, 1)
	assert.Equal(t, []int{1, 2}, chunks[0])
}

func TestChunks_InvalidSize(t *testing.T) {
	assert.Nil(t, ChunkSlice([]int{1, 2, 3}, 0))
}

func TestChunks_StopsEarly(t *testing.T) {
	count := 0
	for range Chunks(make([]int, 100), 10) {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)
}

func TestCleanName(t *testing.T) {
	assert.Equal(t, "Industry", CleanName("  Industry "))
	assert.Equal(t, "", CleanName("   "))
}
