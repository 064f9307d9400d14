package legal

import (
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// Dimensions of the hashed bag-of-words vectors.
const Dimensions = 64

const keywordBoost = 0.15

type Document struct {
	Name     string   `json:"name"`
	Article  string   `json:"article"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Keywords []string `json:"keywords"`
}

type Match struct {
	Document
	Score float64 `json:"score"`
}

// Index ranks a small corpus of legal references against free text. Each word
// is hashed into a fixed size vector, vectors are L2 normalised and compared by
// cosine similarity; declared keywords found in the query add a flat boost.
type Index struct {
	mu      sync.RWMutex
	docs    []Document
	vectors [][]float64
	kws     [][]string
}

// NewIndex builds an index over docs, falling back to the built-in corpus
// when docs is empty.
func NewIndex(docs []Document) *Index {
	idx := &Index{}
	idx.Reload(docs)
	return idx
}

// Reload swaps the indexed corpus.
func (i *Index) Reload(docs []Document) {
	if len(docs) == 0 {
		docs = BuiltinDocuments()
	}

	vectors := make([][]float64, len(docs))
	kws := make([][]string, len(docs))
	for n, doc := range docs {
		vectors[n] = Embed(doc.Title + " " + doc.Content + " " + strings.Join(doc.Keywords, " "))
		for _, kw := range doc.Keywords {
			kws[n] = append(kws[n], normalize(kw))
		}
	}

	i.mu.Lock()
	i.docs, i.vectors, i.kws = docs, vectors, kws
	i.mu.Unlock()
}

func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.docs)
}

// Search returns at most k documents, best first. Ties keep corpus order.
func (i *Index) Search(query string, k int) []Match {
	if k <= 0 {
		return nil
	}

	q := Embed(query)
	normQuery := " " + strings.Join(tokenize(query), " ") + " "

	i.mu.RLock()
	matches := make([]Match, len(i.docs))
	for n, doc := range i.docs {
		score := cosine(q, i.vectors[n])
		for _, kw := range i.kws[n] {
			if strings.Contains(normQuery, " "+kw+" ") {
				score += keywordBoost
			}
		}
		matches[n] = Match{Document: doc, Score: score}
	}
	i.mu.RUnlock()

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Score > matches[b].Score
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

// Embed maps text to a deterministic, L2 normalised vector.
func Embed(text string) []float64 {
	vec := make([]float64, Dimensions)
	for _, word := range tokenize(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(word))
		vec[h.Sum32()%Dimensions]++
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}

	norm = math.Sqrt(norm)
	for n := range vec {
		vec[n] /= norm
	}
	return vec
}

func cosine(a, b []float64) float64 {
	var dot float64
	for n := range a {
		dot += a[n] * b[n]
	}
	return dot
}

// tokenize lower-cases, strips Spanish diacritics and drops words shorter than
// three letters.
func tokenize(text string) []string {
	words := strings.FieldsFunc(normalize(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	out := words[:0]
	for _, w := range words {
		if len([]rune(w)) >= 3 {
			out = append(out, w)
		}
	}
	return out
}

var diacritics = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n",
)

func normalize(s string) string {
	return diacritics.Replace(strings.ToLower(s))
}
