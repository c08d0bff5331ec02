package extract

import (
	"strings"

	"github.com/andrab0/scenegraph/pkg/scene"
)

// Bucket names an attribute slot
type Bucket string

const (
	BucketColor Bucket = "color"
	BucketSize  Bucket = "size"
)

// BucketOf classifies an adjective. Anything outside the size vocabulary,
// known color or not, lands in the color bucket.
func BucketOf(adj string) Bucket {
	adj = strings.ToLower(adj)
	switch {
	case colorWords.Contains(adj):
		return BucketColor
	case sizeWords.Contains(adj):
		return BucketSize
	default:
		return BucketColor
	}
}

// Classify appends adj to the matching bucket of bag
func Classify(adj string, bag *scene.AttributeBag) {
	adj = strings.ToLower(adj)
	if BucketOf(adj) == BucketSize {
		bag.Size = append(bag.Size, adj)
		return
	}
	bag.Color = append(bag.Color, adj)
}

// Objects extracts candidate objects and their attributes from doc. The
// result is a pure function of doc.
func Objects(doc *scene.Document) *scene.ObjectSet {
	objects := scene.NewObjectSet()
	if doc == nil {
		return objects
	}

	// First pass: noun chunks
	for si := range doc.Sentences {
		sent := &doc.Sentences[si]
		for _, chunk := range sent.Chunks {
			if chunk.Root < 0 || chunk.Root >= len(sent.Tokens) {
				continue
			}
			noun := strings.ToLower(sent.Tokens[chunk.Root].Lemma)
			if noun == "" || IsIgnored(noun) {
				continue
			}
			bag := objects.Ensure(noun)
			for _, tok := range sent.ChunkTokens(chunk) {
				if tok.POS == scene.POSAdj {
					Classify(tok.Text, bag)
				}
			}
		}
	}

	// Second pass: nouns attached as verb arguments outside any chunk
	for si := range doc.Sentences {
		sent := &doc.Sentences[si]
		for i, tok := range sent.Tokens {
			if tok.POS != scene.POSNoun {
				continue
			}
			noun := strings.ToLower(tok.Lemma)
			if noun == "" || IsIgnored(noun) || objects.Has(noun) {
				continue
			}

			head, hasHead := sent.HeadOf(i)
			attachedToVerb := hasHead && verbHeads.Contains(head.POS)
			if !acceptedDeps.Contains(tok.Dep) && !attachedToVerb {
				continue
			}

			bag := objects.Ensure(noun)
			for _, c := range sent.Children(i) {
				if sent.Tokens[c].POS == scene.POSAdj {
					Classify(sent.Tokens[c].Text, bag)
				}
			}
			if hasHead && head.POS == scene.POSAdj {
				Classify(head.Text, bag)
			}
		}
	}

	return objects
}
