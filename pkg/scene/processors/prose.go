package processors

import (
	"context"
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/jdkato/prose/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/andrab0/scenegraph/pkg/scene"
	"github.com/andrab0/scenegraph/pkg/scene/extract"
)

var (
	parseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "scenegraph_parse_duration_seconds",
			Help: "Time spent parsing scene descriptions",
		},
		[]string{"parser"},
	)

	parsedTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scenegraph_parsed_tokens_total",
			Help: "Number of tokens produced by the parser",
		},
		[]string{"pos"},
	)
)

func init() {
	prometheus.MustRegister(parseDuration)
	prometheus.MustRegister(parsedTokens)
}

// ProseParser implements scene.Parser on top of the prose tagger. prose has
// no dependency parser, so heads and labels come from a shallow rule set
// over the tagged tokens; noun chunks are determiner/adjective runs ending
// in nouns.
type ProseParser struct {
	logger *logrus.Logger
}

// NewProseParser creates a new prose-backed parser
func NewProseParser() *ProseParser {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	return &ProseParser{
		logger: logger,
	}
}

// Parse implements scene.Parser
func (p *ProseParser) Parse(ctx context.Context, text string) (*scene.Document, error) {
	timer := prometheus.NewTimer(parseDuration.WithLabelValues("prose"))
	defer timer.ObserveDuration()

	segmented, err := prose.NewDocument(text,
		prose.WithTokenization(false),
		prose.WithTagging(false),
		prose.WithExtraction(false))
	if err != nil {
		return nil, fmt.Errorf("failed to segment text: %w", err)
	}

	doc := &scene.Document{Text: text}
	for _, s := range segmented.Sentences() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tagged, err := prose.NewDocument(s.Text,
			prose.WithSegmentation(false),
			prose.WithExtraction(false))
		if err != nil {
			return nil, fmt.Errorf("failed to tag sentence: %w", err)
		}
		sent := analyze(tagged.Tokens())
		sent.Text = s.Text
		doc.Sentences = append(doc.Sentences, sent)
	}

	p.logger.WithField("sentences_count", len(doc.Sentences)).Debug("Parsed text")
	return doc, nil
}

// analyze turns tagged tokens into a sentence with lemmas, universal tags,
// noun chunks and dependency heads
func analyze(tagged []prose.Token) scene.Sentence {
	tagged = retag(tagged)
	tokens := make([]scene.Token, len(tagged))
	for i, tt := range tagged {
		lemma := Lemmatize(tt.Text, tt.Tag)
		tokens[i] = scene.Token{
			Text:  tt.Text,
			Lemma: lemma,
			POS:   UniversalPOS(tt.Tag, lemma),
			Head:  -1,
		}
		parsedTokens.WithLabelValues(tokens[i].POS).Inc()
	}

	chunks := nounChunks(tokens)
	attach(tokens, tagged, chunks)
	return scene.Sentence{Tokens: tokens, Chunks: chunks}
}

func isNounTag(tag string) bool {
	return tag == "NN" || tag == "NNS" || tag == "NNP" || tag == "NNPS"
}

// retag corrects two common tagger confusions on a copy of tagged:
// a color or size word tagged as a noun in front of another noun
// ("a blue table") becomes JJ, and in a sentence without any verb a plural
// noun right after a noun ("the cat sleeps") becomes VBZ.
func retag(tagged []prose.Token) []prose.Token {
	out := make([]prose.Token, len(tagged))
	copy(out, tagged)

	for i := 0; i+1 < len(out); i++ {
		if isNounTag(out[i].Tag) && isNounTag(out[i+1].Tag) && extract.IsAttribute(out[i].Text) {
			out[i].Tag = "JJ"
		}
	}

	for _, t := range out {
		if strings.HasPrefix(t.Tag, "VB") || t.Tag == "MD" {
			return out
		}
	}
	for i := 1; i < len(out); i++ {
		if out[i].Tag == "NNS" && isNounTag(out[i-1].Tag) {
			out[i].Tag = "VBZ"
			break
		}
	}
	return out
}

var auxLemmas = mapset.NewSet[string]("be", "have", "do")

// UniversalPOS maps a Penn Treebank tag to a universal part-of-speech tag
func UniversalPOS(tag, lemma string) string {
	switch {
	case tag == "NN" || tag == "NNS":
		return scene.POSNoun
	case tag == "NNP" || tag == "NNPS":
		return scene.POSPropn
	case strings.HasPrefix(tag, "JJ"):
		return scene.POSAdj
	case tag == "MD":
		return scene.POSAux
	case strings.HasPrefix(tag, "VB"):
		if auxLemmas.Contains(lemma) {
			return scene.POSAux
		}
		return scene.POSVerb
	case tag == "IN":
		return scene.POSAdp
	case tag == "DT" || tag == "PDT" || tag == "WDT" || tag == "PRP$" || tag == "WP$":
		return scene.POSDet
	case tag == "PRP" || tag == "WP" || tag == "EX":
		return scene.POSPron
	case tag == "CD":
		return scene.POSNum
	case strings.HasPrefix(tag, "RB") || tag == "WRB":
		return scene.POSAdv
	case tag == "CC":
		return scene.POSCconj
	case tag == "TO" || tag == "RP" || tag == "POS":
		return scene.POSPart
	case isPunctTag(tag):
		return scene.POSPunct
	default:
		return scene.POSOther
	}
}

func isPunctTag(tag string) bool {
	switch tag {
	case ".", ",", ":", "(", ")", "``", "''", "\"", "#", "$", "-LRB-", "-RRB-":
		return true
	}
	return false
}

var chunkModifiers = mapset.NewSet[string](scene.POSDet, scene.POSAdj, scene.POSNum)

func isNominal(pos string) bool {
	return pos == scene.POSNoun || pos == scene.POSPropn
}

// nounChunks finds spans of [DET|ADJ|NUM]* [NOUN|PROPN]+. The last noun of
// the run is the chunk root.
func nounChunks(tokens []scene.Token) []scene.NounChunk {
	var chunks []scene.NounChunk
	i := 0
	for i < len(tokens) {
		start := i
		j := i
		for j < len(tokens) && chunkModifiers.Contains(tokens[j].POS) {
			j++
		}
		k := j
		for k < len(tokens) && isNominal(tokens[k].POS) {
			k++
		}
		if k > j {
			chunks = append(chunks, scene.NounChunk{Start: start, End: k, Root: k - 1})
			i = k
			continue
		}
		if j > i {
			i = j
		} else {
			i++
		}
	}
	return chunks
}

// attach assigns heads and dependency labels
func attach(tokens []scene.Token, tagged []prose.Token, chunks []scene.NounChunk) {
	if len(tokens) == 0 {
		return
	}
	root := sentenceRoot(tokens, chunks)
	tokens[root].Dep = "ROOT"
	tokens[root].Head = -1
	copula := tokens[root].POS == scene.POSAux

	inChunk := make([]int, len(tokens))
	for i := range inChunk {
		inChunk[i] = -1
	}

	prevObject := -1
	for ci, c := range chunks {
		for i := c.Start; i < c.End; i++ {
			inChunk[i] = ci
			if i == c.Root {
				continue
			}
			tokens[i].Head = c.Root
			switch {
			case isNominal(tokens[i].POS):
				tokens[i].Dep = "compound"
			case tokens[i].POS == scene.POSAdj:
				tokens[i].Dep = "amod"
			case tokens[i].POS == scene.POSNum:
				tokens[i].Dep = "nummod"
			case tagged[i].Tag == "PRP$" || tagged[i].Tag == "WP$":
				tokens[i].Dep = "poss"
			default:
				tokens[i].Dep = "det"
			}
		}

		if c.Root == root {
			continue
		}
		before := c.Start - 1
		switch {
		case before >= 0 && tokens[before].POS == scene.POSAdp:
			tokens[c.Root].Dep = "pobj"
			tokens[c.Root].Head = before
		case before >= 0 && tokens[before].POS == scene.POSCconj && prevObject >= 0 && prevObject < before:
			tokens[c.Root].Dep = "conj"
			tokens[c.Root].Head = prevObject
		case c.Root < root:
			tokens[c.Root].Dep = "nsubj"
			tokens[c.Root].Head = root
		case copula:
			tokens[c.Root].Dep = "attr"
			tokens[c.Root].Head = root
		default:
			tokens[c.Root].Dep = "dobj"
			tokens[c.Root].Head = root
		}
		prevObject = c.Root
	}

	for i := range tokens {
		if i == root || inChunk[i] >= 0 {
			continue
		}
		tokens[i].Head = root
		switch tokens[i].POS {
		case scene.POSAdp:
			tokens[i].Dep = "prep"
			if i > 0 && isNominal(tokens[i-1].POS) {
				tokens[i].Head = i - 1
			}
		case scene.POSAux:
			tokens[i].Dep = "aux"
		case scene.POSAdj:
			if copula && i > root {
				tokens[i].Dep = "acomp"
			} else {
				tokens[i].Dep = "amod"
			}
		case scene.POSAdv:
			tokens[i].Dep = "advmod"
		case scene.POSPunct:
			tokens[i].Dep = "punct"
		case scene.POSCconj:
			tokens[i].Dep = "cc"
		case scene.POSPron:
			if i < root {
				tokens[i].Dep = "nsubj"
			} else {
				tokens[i].Dep = "dobj"
			}
		case scene.POSNoun, scene.POSPropn:
			tokens[i].Dep = "npadvmod"
		case scene.POSPart:
			tokens[i].Dep = "prt"
		default:
			tokens[i].Dep = "dep"
		}
	}
}

// sentenceRoot picks the main verb, then an auxiliary, then the first chunk
// root, then the first token
func sentenceRoot(tokens []scene.Token, chunks []scene.NounChunk) int {
	for i, t := range tokens {
		if t.POS == scene.POSVerb {
			return i
		}
	}
	for i, t := range tokens {
		if t.POS == scene.POSAux {
			return i
		}
	}
	if len(chunks) > 0 {
		return chunks[0].Root
	}
	return 0
}

var irregularPlurals = map[string]string{
	"people":   "person",
	"children": "child",
	"men":      "man",
	"women":    "woman",
	"feet":     "foot",
	"teeth":    "tooth",
	"mice":     "mouse",
	"geese":    "goose",
	"knives":   "knife",
	"shelves":  "shelf",
	"leaves":   "leaf",
	"wolves":   "wolf",
	"loaves":   "loaf",
	"halves":   "half",
	"glasses":  "glass",
	"boxes":    "box",
	"dishes":   "dish",
	"benches":  "bench",
}

var beForms = mapset.NewSet[string]("is", "are", "was", "were", "am", "been", "being", "'s", "'re", "'m")

// Lemmatize returns a dictionary form for word given its Penn tag. It covers
// regular plurals, common irregular nouns and the auxiliaries; everything
// else is lowercased.
func Lemmatize(word, tag string) string {
	w := strings.ToLower(word)
	switch {
	case beForms.Contains(w) && strings.HasPrefix(tag, "VB"):
		return "be"
	case w == "has" || w == "had" || w == "having":
		return "have"
	case w == "does" || w == "did" || w == "done":
		return "do"
	case tag == "NNS" || tag == "NNPS":
		return singular(w)
	case tag == "VBZ":
		return singular(w)
	default:
		return w
	}
}

func singular(w string) string {
	if base, ok := irregularPlurals[w]; ok {
		return base
	}
	switch {
	case len(w) > 4 && strings.HasSuffix(w, "ies"):
		return w[:len(w)-3] + "y"
	case strings.HasSuffix(w, "sses"), strings.HasSuffix(w, "shes"), strings.HasSuffix(w, "ches"),
		strings.HasSuffix(w, "xes"):
		return w[:len(w)-2]
	case strings.HasSuffix(w, "ss"), strings.HasSuffix(w, "us"), strings.HasSuffix(w, "is"):
		return w
	case len(w) > 2 && strings.HasSuffix(w, "s"):
		return w[:len(w)-1]
	default:
		return w
	}
}
