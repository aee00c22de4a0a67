package indexer

const (
	// DefaultChunkSize is the maximum chunk length in runes.
	DefaultChunkSize = 1000
	// DefaultChunkOverlap is the number of runes repeated at the start of the next chunk.
	DefaultChunkOverlap = 200
)

// isSentenceTerminator reports whether r ends a sentence (ASCII and full-width CJK forms).
func isSentenceTerminator(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？':
		return true
	}
	return false
}

// SplitText splits text into overlapping chunks of at most size runes.
//
// Text that fits in one chunk is returned unchanged as a single chunk. Otherwise each window
// [start, start+size) is cut after the last sentence terminator it contains, or hard cut at
// start+size when it has none, and the next window starts overlap runes before the cut.
// When the overlap would not move the window forward, the next window starts at the cut.
// The final chunk is the remaining tail.
func SplitText(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}

	runes := []rune(text)
	n := len(runes)
	if n <= size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < n {
		end := start + size
		if end >= n {
			chunks = append(chunks, string(runes[start:]))
			break
		}

		cut := end
		for i := end - 1; i >= start; i-- {
			if isSentenceTerminator(runes[i]) {
				cut = i + 1
				break
			}
		}
		chunks = append(chunks, string(runes[start:cut]))

		next := cut - overlap
		if next <= start {
			next = cut
		}
		start = next
	}

	return chunks
}
