package storage

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
	"github.com/sirupsen/logrus"

	"github.com/andrab0/scenegraph/pkg/scene/catalog"
)

// QdrantConfig locates the collection holding catalog phrase vectors
type QdrantConfig struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
}

// QdrantPhraseIndex keeps catalog phrase embeddings in a Qdrant collection
// and scores relation phrases with a cosine query
type QdrantPhraseIndex struct {
	client     *qdrant.Client
	collection string
	size       int
	logger     *logrus.Logger
}

// NewQdrantPhraseIndex connects to Qdrant
func NewQdrantPhraseIndex(cfg QdrantConfig) (*QdrantPhraseIndex, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Qdrant: %v", err)
	}

	collection := cfg.Collection
	if collection == "" {
		collection = "scene_relation_phrases"
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	return &QdrantPhraseIndex{
		client:     client,
		collection: collection,
		logger:     logger,
	}, nil
}

// Close releases the gRPC connection
func (q *QdrantPhraseIndex) Close() error {
	return q.client.Close()
}

// Index recreates the collection and upserts one point per catalog entry.
// The point payload records the catalog position so scores can be mapped
// back to declaration order.
func (q *QdrantPhraseIndex) Index(ctx context.Context, entries []catalog.Entry, vectors [][]float32) error {
	if len(entries) != len(vectors) {
		return fmt.Errorf("phrase index: %d entries but %d vectors", len(entries), len(vectors))
	}
	if len(vectors) == 0 {
		return fmt.Errorf("phrase index: nothing to index")
	}

	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection: %v", err)
	}
	if exists {
		if err := q.client.DeleteCollection(ctx, q.collection); err != nil {
			return fmt.Errorf("failed to drop collection: %v", err)
		}
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     uint64(len(vectors[0])),
					Distance: qdrant.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %v", err)
	}

	points := make([]*qdrant.PointStruct, 0, len(entries))
	for i, entry := range entries {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(uint64(i + 1)),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				"label":  string(entry.Label),
				"phrase": entry.Phrase,
				"order":  i,
			}),
		})
	}

	wait := true
	if _, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Wait:           &wait,
		Points:         points,
	}); err != nil {
		return fmt.Errorf("failed to upsert points: %v", err)
	}

	q.size = len(entries)
	q.logger.WithFields(logrus.Fields{
		"collection": q.collection,
		"points":     len(points),
	}).Info("Catalog phrases indexed in Qdrant")
	return nil
}

// Scores queries every indexed phrase and returns the similarities in
// catalog order
func (q *QdrantPhraseIndex) Scores(ctx context.Context, query []float32) ([]float64, error) {
	if q.size == 0 {
		return nil, fmt.Errorf("phrase index is empty")
	}

	limit := uint64(q.size)
	hits, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(query...),
		Limit:          &limit,
		WithPayload: &qdrant.WithPayloadSelector{
			SelectorOptions: &qdrant.WithPayloadSelector_Enable{
				Enable: true,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search in Qdrant: %v", err)
	}

	return scoresInOrder(q.size, hits), nil
}

// scoresInOrder places each hit at its catalog position. Phrases Qdrant did
// not return score 0.
func scoresInOrder(size int, hits []*qdrant.ScoredPoint) []float64 {
	scores := make([]float64, size)
	for _, hit := range hits {
		v, ok := hit.GetPayload()["order"]
		if !ok {
			continue
		}
		order := int(v.GetIntegerValue())
		if order >= 0 && order < size {
			scores[order] = float64(hit.GetScore())
		}
	}
	return scores
}
