package catalog

// Label is a recognized spatial relation category
type Label string

const (
	LeftOf    Label = "left_of"
	RightOf   Label = "right_of"
	InFrontOf Label = "in_front_of"
	Behind    Label = "behind"
	Above     Label = "above"
	Below     Label = "below"
	Under     Label = "under"
	On        Label = "on"
	NextTo    Label = "next_to"
	Between   Label = "between"
	Near      Label = "near"
	Inside    Label = "inside"
	OnTopOf   Label = "on_top_of"
)

// Entry describes one catalog label
type Entry struct {
	Label    Label  `json:"label"`
	Priority int    `json:"priority"`
	Phrase   string `json:"phrase"`
}

// Keyword maps a literal phrase to a label for rule-based extraction
type Keyword struct {
	Phrase string `json:"phrase"`
	Label  Label  `json:"label"`
}

// Catalog is a read-only, ordered table of relation labels. Declaration
// order is significant: it breaks similarity ties during normalization.
type Catalog struct {
	entries  []Entry
	index    map[Label]int
	keywords []Keyword
}

var defaultEntries = []Entry{
	{Label: LeftOf, Priority: 1, Phrase: "left of"},
	{Label: RightOf, Priority: 1, Phrase: "right of"},
	{Label: InFrontOf, Priority: 1, Phrase: "in front of"},
	{Label: Behind, Priority: 1, Phrase: "behind"},
	{Label: Above, Priority: 2, Phrase: "above"},
	{Label: Below, Priority: 2, Phrase: "below"},
	{Label: Under, Priority: 2, Phrase: "under"},
	{Label: On, Priority: 2, Phrase: "on"},
	{Label: NextTo, Priority: 2, Phrase: "next to"},
	{Label: Between, Priority: 1, Phrase: "between"},
	{Label: Near, Priority: 1, Phrase: "near"},
	{Label: Inside, Priority: 2, Phrase: "inside"},
	{Label: OnTopOf, Priority: 3, Phrase: "on top of"},
}

// More specific phrases come first ("on top of" before "on").
var defaultKeywords = []Keyword{
	{Phrase: "on top of", Label: OnTopOf},
	{Phrase: "on", Label: On},
	{Phrase: "under", Label: Under},
	{Phrase: "above", Label: Above},
	{Phrase: "below", Label: Below},
	{Phrase: "next to", Label: NextTo},
	{Phrase: "behind", Label: Behind},
	{Phrase: "in front of", Label: InFrontOf},
	{Phrase: "near", Label: Near},
	{Phrase: "beside", Label: NextTo},
	{Phrase: "inside", Label: Inside},
}

var defaultCatalog = New(defaultEntries, defaultKeywords)

// Default returns the built-in spatial relation catalog
func Default() *Catalog {
	return defaultCatalog
}

// New builds a catalog from entries and fallback keywords. Duplicate labels
// keep their first declaration.
func New(entries []Entry, keywords []Keyword) *Catalog {
	c := &Catalog{
		entries:  make([]Entry, 0, len(entries)),
		index:    make(map[Label]int, len(entries)),
		keywords: append([]Keyword(nil), keywords...),
	}
	for _, e := range entries {
		if _, exists := c.index[e.Label]; exists {
			continue
		}
		c.index[e.Label] = len(c.entries)
		c.entries = append(c.entries, e)
	}
	return c
}

// Len returns the number of labels in the catalog
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Entries returns a copy of the entries in declaration order
func (c *Catalog) Entries() []Entry {
	return append([]Entry(nil), c.entries...)
}

// Labels returns labels in declaration order
func (c *Catalog) Labels() []Label {
	labels := make([]Label, len(c.entries))
	for i, e := range c.entries {
		labels[i] = e.Label
	}
	return labels
}

// Phrases returns the canonical phrases in declaration order, for embedding
func (c *Catalog) Phrases() []string {
	phrases := make([]string, len(c.entries))
	for i, e := range c.entries {
		phrases[i] = e.Phrase
	}
	return phrases
}

// Lookup returns the entry for label
func (c *Catalog) Lookup(label Label) (Entry, bool) {
	i, ok := c.index[label]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Priority returns the conflict-resolution weight of label, 0 when unknown
func (c *Catalog) Priority(label Label) int {
	if e, ok := c.Lookup(label); ok {
		return e.Priority
	}
	return 0
}

// Keywords returns the ordered fallback keyword table
func (c *Catalog) Keywords() []Keyword {
	return append([]Keyword(nil), c.keywords...)
}
