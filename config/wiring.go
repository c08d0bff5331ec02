package config

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/andrab0/scenegraph/pkg/scene"
	"github.com/andrab0/scenegraph/pkg/scene/pipeline"
	"github.com/andrab0/scenegraph/pkg/scene/processors"
	"github.com/andrab0/scenegraph/pkg/scene/storage"
	"github.com/andrab0/scenegraph/services"
)

// NewParser builds the configured parser backend
func (c *Config) NewParser() scene.Parser {
	if c.Parser == ParserRemote {
		return processors.NewRemoteParser(c.ParserURL, c.ParserRetries)
	}
	return processors.NewProseParser()
}

// Loader returns the model loader for the pipeline coordinator. The OpenAI
// client is shared by the generator, the embedder and the translator.
func (c *Config) Loader() pipeline.Loader {
	return func(ctx context.Context) (*pipeline.Models, error) {
		client, err := services.NewOpenAIClient(c.LLM)
		if err != nil {
			return nil, err
		}
		generator, err := services.NewRelationGenerator(client, c.ChatModel, c.MaxInputTokens)
		if err != nil {
			return nil, err
		}
		return &pipeline.Models{
			Parser:     c.NewParser(),
			Generator:  generator,
			Embedder:   services.NewEmbedder(client, c.EmbeddingModel),
			Translator: services.NewTranslator(client, c.ChatModel),
		}, nil
	}
}

// CoordinatorOptions maps the configuration onto pipeline options. The
// returned closer releases the phrase index connection, if any.
func (c *Config) CoordinatorOptions(logger *logrus.Logger) ([]pipeline.Option, io.Closer, error) {
	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithThreshold(c.SimilarityThreshold),
		pipeline.WithSerializedModels(c.SerializeModels),
	}
	if c.Qdrant.Host == "" {
		return opts, nopCloser{}, nil
	}

	index, err := storage.NewQdrantPhraseIndex(c.Qdrant)
	if err != nil {
		return nil, nil, err
	}
	logger.WithFields(logrus.Fields{
		"host":       c.Qdrant.Host,
		"collection": c.Qdrant.Collection,
	}).Info("Using Qdrant phrase index")
	return append(opts, pipeline.WithPhraseIndex(index)), index, nil
}

// GraphStore builds the configured graph store. Neo4j takes precedence over
// the JSON directory; with neither configured the store is nil.
func (c *Config) GraphStore() (storage.GraphStore, io.Closer, error) {
	switch {
	case c.Neo4jURI != "":
		store, err := storage.NewNeo4jStore(c.Neo4jURI, c.Neo4jUser, c.Neo4jPassword)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Neo4j store: %w", err)
		}
		return store, store, nil
	case c.StoreDir != "":
		return storage.NewJSONGraphStore(c.StoreDir), nopCloser{}, nil
	default:
		return nil, nopCloser{}, nil
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
