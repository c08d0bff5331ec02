package extract

import (
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/andrab0/scenegraph/pkg/scene"
)

var (
	colorWords = mapset.NewSet[string](
		"red", "blue", "green", "black", "white", "pink", "brown", "yellow",
		"wooden", "metal", "glass", "various",
	)

	sizeWords = mapset.NewSet[string](
		"small", "large", "tall", "short", "multiple", "fresh",
	)

	// Nouns too generic to stand for an object on their own
	ignoredNouns = mapset.NewSet[string](
		"top", "bottom", "middle", "side", "front", "brack", "surface",
	)

	acceptedDeps = mapset.NewSet[string](
		"dobj", "pobj", "attr", "nsubj", "conj", "obl", "compound",
	)

	verbHeads = mapset.NewSet[string](scene.POSVerb, scene.POSAux)
)

// IsIgnored reports whether lemma is on the generic-noun stoplist
func IsIgnored(lemma string) bool {
	return ignoredNouns.Contains(lemma)
}

// IsAttribute reports whether word belongs to the color or size vocabulary
func IsAttribute(word string) bool {
	word = strings.ToLower(word)
	return colorWords.Contains(word) || sizeWords.Contains(word)
}
