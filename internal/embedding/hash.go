package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

const defaultHashDimension = 256

// HashProvider embeds text by feature hashing its tokens onto a fixed-size
// vector. The vectors are deterministic and need no model server, which is
// enough for recalling past plans by destination and style overlap.
type HashProvider struct {
	dimension int
}

// NewHashProvider creates a HashProvider. A non-positive dimension uses the
// default.
func NewHashProvider(dimension int) *HashProvider {
	if dimension <= 0 {
		dimension = defaultHashDimension
	}
	return &HashProvider{dimension: dimension}
}

// Embed hashes each text into an L2-normalized vector.
func (p *HashProvider) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = p.vectorize(text)
	}
	return vectors, nil
}

// Dimension returns the fixed vector size.
func (p *HashProvider) Dimension() int {
	return p.dimension
}

func (p *HashProvider) vectorize(text string) []float32 {
	vec := make([]float32, p.dimension)
	for _, token := range tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(token))
		sum := h.Sum32()
		slot := int(sum % uint32(p.dimension))
		// The second-lowest hash bit picks the sign so collisions
		// partially cancel instead of always accumulating.
		if sum&0x2 == 0 {
			vec[slot]++
		} else {
			vec[slot]--
		}
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec
}

// tokenize splits on non-letter runes and additionally emits each CJK rune
// as its own token, since destination names carry no spaces.
func tokenize(text string) []string {
	var tokens []string
	var word strings.Builder
	flush := func() {
		if word.Len() > 0 {
			tokens = append(tokens, strings.ToLower(word.String()))
			word.Reset()
		}
	}
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r):
			flush()
			tokens = append(tokens, string(r))
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			word.WriteRune(r)
		default:
			flush()
		}
	}
	flush()
	return tokens
}
