package scene

import (
	"fmt"
	"strings"

	"github.com/andrab0/scenegraph/pkg/scene/catalog"
	"github.com/sirupsen/logrus"
)

// Builder assigns object IDs and resolves relation conflicts by priority
type Builder struct {
	catalog *catalog.Catalog
	logger  *logrus.Logger
}

// NewBuilder creates a graph builder over cat
func NewBuilder(cat *catalog.Catalog, logger *logrus.Logger) *Builder {
	if cat == nil {
		cat = catalog.Default()
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return &Builder{catalog: cat, logger: logger}
}

// Build is shorthand for NewBuilder(cat, nil).Build
func Build(objects *ObjectSet, relations []LemmaRelation, cat *catalog.Catalog) *SceneGraph {
	return NewBuilder(cat, nil).Build(objects, relations)
}

type pairKey struct {
	subject string
	object  string
}

// Build produces the scene graph. Objects keep extraction order; at most one
// relation survives per ordered (subject, object) pair.
func (b *Builder) Build(objects *ObjectSet, relations []LemmaRelation) *SceneGraph {
	if objects == nil {
		objects = NewObjectSet()
	}

	sceneObjects := make([]SceneObject, 0, objects.Len())
	counts := make(map[string]int)
	idMap := make(map[string]string)

	for _, lemma := range objects.Lemmas() {
		counts[lemma]++
		id := fmt.Sprintf("%s_%d", lemma, counts[lemma])
		idMap[lemma] = id

		bag, _ := objects.Get(lemma)
		sceneObjects = append(sceneObjects, SceneObject{
			ID:         id,
			Type:       lemma,
			Object:     lemma,
			Attributes: serializeAttributes(bag),
		})
	}

	order := make([]pairKey, 0, len(relations))
	resolved := make(map[pairKey]SceneRelation)

	for _, rel := range relations {
		subjectID, subjectOK := idMap[rel.Subject]
		objectID, objectOK := idMap[rel.Object]
		if !subjectOK || !objectOK || rel.Label == "" {
			b.logger.WithFields(logrus.Fields{
				"subject":  rel.Subject,
				"relation": rel.Label,
				"object":   rel.Object,
			}).Debug("Skipping relation with unknown objects")
			continue
		}

		key := pairKey{subject: subjectID, object: objectID}
		candidate := SceneRelation{Subject: subjectID, Relation: rel.Label, Object: objectID}

		existing, exists := resolved[key]
		if !exists {
			resolved[key] = candidate
			order = append(order, key)
			continue
		}
		if b.catalog.Priority(rel.Label) > b.catalog.Priority(existing.Relation) {
			resolved[key] = candidate
		}
	}

	sceneRelations := make([]SceneRelation, 0, len(order))
	for _, key := range order {
		sceneRelations = append(sceneRelations, resolved[key])
	}

	return &SceneGraph{
		Objects:   sceneObjects,
		Relations: sceneRelations,
	}
}

func serializeAttributes(bag *AttributeBag) Attributes {
	if bag == nil {
		return Attributes{}
	}
	return Attributes{
		Color: joinOrNil(bag.Color),
		Size:  joinOrNil(bag.Size),
	}
}

func joinOrNil(words []string) *string {
	joined := strings.Join(words, " ")
	if joined == "" {
		return nil
	}
	return &joined
}

// ObjectByID returns the object with the given ID
func (g *SceneGraph) ObjectByID(id string) (SceneObject, bool) {
	for _, o := range g.Objects {
		if o.ID == id {
			return o, true
		}
	}
	return SceneObject{}, false
}
