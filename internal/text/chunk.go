package text

// ChunkLines partitions lines into at most n contiguous chunks.
//
// The chunk size is max(1, len(lines)/n) with integer division. The first
// n-1 chunks hold exactly size lines and the last one absorbs the rest, so
// it can be much larger than the others. With fewer lines than workers
// there is one chunk per line. A non-positive n is treated as 1.
func ChunkLines(lines []string, n int) [][]string {
	if n < 1 {
		n = 1
	}
	size := max(1, len(lines)/n)

	chunks := make([][]string, 0, min(n, len(lines)))
	for start := 0; start < len(lines); start += size {
		if len(chunks) == n-1 {
			chunks = append(chunks, lines[start:])
			break
		}
		chunks = append(chunks, lines[start:min(start+size, len(lines))])
	}
	return chunks
}
