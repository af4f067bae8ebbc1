// Package util provides small shared helpers for slicing and name normalization.
package util

import (
	"iter"
	"strings"
)

// Chunks returns an iterator over contiguous sub-slices of items, each of
// length size except possibly the last. Input order is preserved and no
// element appears in more than one chunk. Yielded slices alias the input.
//
// Both the document store's "field in set" queries and the search-volume
// provider's batch endpoint cap input cardinality, so callers split large
// inputs before issuing requests.
func Chunks[T any](items []T, size int) iter.Seq[[]T] {
	return func(yield func([]T) bool) {
		if size <= 0 {
			return
		}
		for start := 0; start < len(items); start += size {
			end := min(start+size, len(items))
			if !yield(items[start:end]) {
				return
			}
		}
	}
}

// ChunkSlice is like Chunks but collects the chunks into a slice.
// Returns nil for empty input.
func ChunkSlice[T any](items []T, size int) [][]T {
	var chunks [][]T
	for chunk := range Chunks(items, size) {
		chunks = append(chunks, chunk)
	}
	return chunks
}

// CleanName trims surrounding whitespace from a user-supplied entity name.
// Dedup keys for dashboards, tag categories, tags, and keywords are always
// compared in cleaned form.
func CleanName(name string) string {
	return strings.TrimSpace(name)
}
