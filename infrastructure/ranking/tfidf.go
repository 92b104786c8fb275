package ranking

import (
	"math"
	"slices"
)

// vectorSpace holds L2-normalized TF-IDF vectors for a set of token lists
// over a lexicographically sorted vocabulary. Dense vectors and a fixed
// term order make every dot product bit-identical across runs.
type vectorSpace struct {
	vocab   []string
	vectors [][]float64
}

// vectorize fits IDF weights on docs and returns one vector per doc.
// IDF is smoothed: ln((1+n)/(1+df)) + 1, with n the number of docs.
func vectorize(docs [][]string) vectorSpace {
	df := make(map[string]int)
	for _, tokens := range docs {
		seen := make(map[string]struct{}, len(tokens))
		for _, t := range tokens {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			df[t]++
		}
	}

	vocab := make([]string, 0, len(df))
	for t := range df {
		vocab = append(vocab, t)
	}
	slices.Sort(vocab)

	index := make(map[string]int, len(vocab))
	idf := make([]float64, len(vocab))
	n := float64(len(docs))
	for i, t := range vocab {
		index[t] = i
		idf[i] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}

	vectors := make([][]float64, len(docs))
	for d, tokens := range docs {
		vec := make([]float64, len(vocab))
		for _, t := range tokens {
			vec[index[t]]++
		}
		for i := range vec {
			vec[i] *= idf[i]
		}
		normalize(vec)
		vectors[d] = vec
	}

	return vectorSpace{vocab: vocab, vectors: vectors}
}

// normalize scales vec to unit length in place. Zero vectors are left alone.
func normalize(vec []float64) {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range vec {
		vec[i] /= norm
	}
}

// cosine returns the cosine similarity of two unit vectors. A zero vector
// on either side yields 0.
func cosine(a, b []float64) float64 {
	var dot float64
	for i := range a {
		dot += a[i] * b[i]
	}
	return dot
}
