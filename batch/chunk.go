/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package batch

// Chunk splits items into ceil(len(items)/size) consecutive chunks of at most
// size elements, preserving order. The chunks share items' backing array.
func Chunk[E any](items []E, size int) [][]E {
	if size < 1 {
		size = 1
	}
	chunks := make([][]E, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end:end])
	}
	return chunks
}
