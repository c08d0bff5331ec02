package relations

import (
	"strings"

	"github.com/andrab0/scenegraph/pkg/scene"
)

// TripleDelimiter separates subject, relation and object in generated lines
const TripleDelimiter = "|"

// ParseTriple splits a generated "subject|relation|object" line. Fields are
// trimmed and lowercased. Anything other than exactly three fields is a
// *scene.MalformedTripleError.
func ParseTriple(raw string) (scene.RawTriple, error) {
	parts := strings.Split(raw, TripleDelimiter)
	if len(parts) != 3 {
		return scene.RawTriple{}, &scene.MalformedTripleError{Raw: raw, Fields: len(parts)}
	}
	return scene.RawTriple{
		Subject:  normalizeField(parts[0]),
		Relation: normalizeField(parts[1]),
		Object:   normalizeField(parts[2]),
	}, nil
}

func normalizeField(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
