package docqa

import "strings"

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 20
)

// Chunker splits text on word boundaries into chunks of at most Size bytes.
// Overlap is the percentage of words carried into the next chunk.
type Chunker struct {
	Size    int
	Overlap int
}

func NewChunker(size int, overlap int) Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= 100 {
		overlap = DefaultChunkOverlap
	}

	return Chunker{Size: size, Overlap: overlap}
}

func (c Chunker) Split(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var (
		chunks  []string
		current []string
		size    int
	)

	for _, word := range words {
		wordSize := len(word) + 1
		if size+wordSize > c.Size && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))

			keep := len(current) * c.Overlap / 100
			if keep > 0 && keep < len(current) {
				current = current[len(current)-keep:]
				size = len(strings.Join(current, " ")) + 1
			} else {
				current = nil
				size = 0
			}

			if size+wordSize > c.Size {
				current = nil
				size = 0
			}
		}

		current = append(current, word)
		size += wordSize
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}

	return chunks
}
