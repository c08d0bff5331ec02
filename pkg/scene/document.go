package scene

import "strings"

// Universal part-of-speech tags consumed by the extractors
const (
	POSNoun  = "NOUN"
	POSPropn = "PROPN"
	POSAdj   = "ADJ"
	POSVerb  = "VERB"
	POSAux   = "AUX"
	POSAdp   = "ADP"
	POSDet   = "DET"
	POSPron  = "PRON"
	POSNum   = "NUM"
	POSAdv   = "ADV"
	POSCconj = "CCONJ"
	POSPart  = "PART"
	POSPunct = "PUNCT"
	POSOther = "X"
)

// HeadOf returns the head token of s.Tokens[i]
func (s *Sentence) HeadOf(i int) (Token, bool) {
	if i < 0 || i >= len(s.Tokens) {
		return Token{}, false
	}
	h := s.Tokens[i].Head
	if h < 0 || h >= len(s.Tokens) || h == i {
		return Token{}, false
	}
	return s.Tokens[h], true
}

// Children returns the indices of tokens whose head is i, in sentence order
func (s *Sentence) Children(i int) []int {
	var children []int
	for j, tok := range s.Tokens {
		if j != i && tok.Head == i {
			children = append(children, j)
		}
	}
	return children
}

// ChunkTokens returns the tokens covered by c
func (s *Sentence) ChunkTokens(c NounChunk) []Token {
	start, end := c.Start, c.End
	if start < 0 {
		start = 0
	}
	if end > len(s.Tokens) {
		end = len(s.Tokens)
	}
	if start >= end {
		return nil
	}
	return s.Tokens[start:end]
}

// InChunk reports whether token index i falls inside any noun chunk
func (s *Sentence) InChunk(i int) bool {
	for _, c := range s.Chunks {
		if i >= c.Start && i < c.End {
			return true
		}
	}
	return false
}

// Lemmas returns the lowercased lemma of every token, in document order
func (d *Document) Lemmas() []string {
	var lemmas []string
	for _, s := range d.Sentences {
		for _, tok := range s.Tokens {
			lemmas = append(lemmas, strings.ToLower(tok.Lemma))
		}
	}
	return lemmas
}

// FullText returns the document text, reassembling it from sentences when
// the parser left Text empty
func (d *Document) FullText() string {
	if d.Text != "" {
		return d.Text
	}
	parts := make([]string, 0, len(d.Sentences))
	for _, s := range d.Sentences {
		parts = append(parts, s.Text)
	}
	return strings.Join(parts, " ")
}

// ObjectSet maps object lemmas to attribute bags, preserving insertion order
type ObjectSet struct {
	order []string
	bags  map[string]*AttributeBag
}

// NewObjectSet creates an empty object set
func NewObjectSet() *ObjectSet {
	return &ObjectSet{bags: make(map[string]*AttributeBag)}
}

// Ensure returns the bag for lemma, creating it when missing
func (o *ObjectSet) Ensure(lemma string) *AttributeBag {
	if bag, ok := o.bags[lemma]; ok {
		return bag
	}
	bag := &AttributeBag{Color: []string{}, Size: []string{}}
	o.bags[lemma] = bag
	o.order = append(o.order, lemma)
	return bag
}

// Has reports whether lemma is already a key
func (o *ObjectSet) Has(lemma string) bool {
	_, ok := o.bags[lemma]
	return ok
}

// Get returns the bag for lemma
func (o *ObjectSet) Get(lemma string) (*AttributeBag, bool) {
	bag, ok := o.bags[lemma]
	return bag, ok
}

// Lemmas returns the keys in insertion order
func (o *ObjectSet) Lemmas() []string {
	return append([]string(nil), o.order...)
}

// Len returns the number of objects
func (o *ObjectSet) Len() int {
	return len(o.order)
}
