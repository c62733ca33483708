package audio

import "sync"

// Buffer is an ordered sequence of recorded chunks. It is safe for concurrent use.
type Buffer struct {
	mu     sync.Mutex
	chunks [][]byte
	size   int
}

// NewBuffer creates an empty Buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Append copies chunk onto the end of the buffer. Empty chunks are ignored.
func (b *Buffer) Append(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	c := make([]byte, len(chunk))
	copy(c, chunk)

	b.mu.Lock()
	b.chunks = append(b.chunks, c)
	b.size += len(c)
	b.mu.Unlock()
}

// Len returns the number of buffered chunks.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.chunks)
}

// Size returns the total number of buffered bytes.
func (b *Buffer) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// Drain concatenates all chunks in arrival order, clears the buffer and
// returns the bytes.
func (b *Buffer) Drain() []byte {
	b.mu.Lock()
	chunks, size := b.chunks, b.size
	b.chunks, b.size = nil, 0
	b.mu.Unlock()

	out := make([]byte, 0, size)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

// Reset discards all chunks.
func (b *Buffer) Reset() {
	b.mu.Lock()
	b.chunks, b.size = nil, 0
	b.mu.Unlock()
}
