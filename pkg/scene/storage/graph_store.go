package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/andrab0/scenegraph/pkg/scene"
)

// ErrGraphNotFound is returned by LoadGraph for unknown scene ids
var ErrGraphNotFound = errors.New("scene graph not found")

// GraphStore defines an interface for storing scene graphs
type GraphStore interface {
	// StoreGraph persists a scene graph under id, replacing any previous one
	StoreGraph(ctx context.Context, id string, graph *scene.SceneGraph) error

	// LoadGraph loads the scene graph stored under id
	LoadGraph(ctx context.Context, id string) (*scene.SceneGraph, error)
}

// JSONGraphStore implements GraphStore with one JSON file per scene
type JSONGraphStore struct {
	dir string
}

// NewJSONGraphStore creates a new JSON graph store rooted at dir
func NewJSONGraphStore(dir string) *JSONGraphStore {
	return &JSONGraphStore{
		dir: dir,
	}
}

func (s *JSONGraphStore) path(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("invalid scene id %q", id)
	}
	return filepath.Join(s.dir, id+".json"), nil
}

// StoreGraph stores the scene graph as indented JSON
func (s *JSONGraphStore) StoreGraph(ctx context.Context, id string, graph *scene.SceneGraph) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(graph, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// LoadGraph loads a scene graph from its JSON file
func (s *JSONGraphStore) LoadGraph(ctx context.Context, id string) (*scene.SceneGraph, error) {
	path, err := s.path(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrGraphNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	var graph scene.SceneGraph
	if err := json.Unmarshal(data, &graph); err != nil {
		return nil, err
	}

	return &graph, nil
}
