package storage

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v4/neo4j"

	"github.com/andrab0/scenegraph/pkg/scene"
	"github.com/andrab0/scenegraph/pkg/scene/catalog"
)

// Neo4jStore implements GraphStore using Neo4j. Each scene is a :Scene node
// that CONTAINS its :SceneObject nodes; relations are :SPATIAL edges
// between objects.
type Neo4jStore struct {
	driver neo4j.Driver
}

// NewNeo4jStore creates a new Neo4j store
func NewNeo4jStore(uri, username, password string) (*Neo4jStore, error) {
	auth := neo4j.BasicAuth(username, password, "")
	driver, err := neo4j.NewDriver(uri, auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create Neo4j driver: %v", err)
	}

	return &Neo4jStore{
		driver: driver,
	}, nil
}

// Close releases the driver
func (s *Neo4jStore) Close() error {
	if s.driver != nil {
		return s.driver.Close()
	}
	return nil
}

// StoreGraph implements GraphStore
func (s *Neo4jStore) StoreGraph(ctx context.Context, id string, graph *scene.SceneGraph) error {
	session := s.driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(tx neo4j.Transaction) (interface{}, error) {
		// Replace any previous version of the scene
		if _, err := tx.Run(`
			MATCH (s:Scene {id: $scene})
			OPTIONAL MATCH (s)-[:CONTAINS]->(o:SceneObject)
			DETACH DELETE s, o
		`, map[string]interface{}{"scene": id}); err != nil {
			return nil, err
		}

		if _, err := tx.Run(`CREATE (:Scene {id: $scene, created_at: datetime()})`,
			map[string]interface{}{"scene": id}); err != nil {
			return nil, err
		}

		for _, params := range objectParams(id, graph) {
			if _, err := tx.Run(`
				MATCH (s:Scene {id: $scene})
				CREATE (s)-[:CONTAINS]->(:SceneObject {
					scene_id: $scene,
					id: $id,
					type: $type,
					color: $color,
					size: $size,
					position: $position
				})
			`, params); err != nil {
				return nil, err
			}
		}

		for _, params := range relationParams(id, graph) {
			if _, err := tx.Run(`
				MATCH (a:SceneObject {scene_id: $scene, id: $from})
				MATCH (b:SceneObject {scene_id: $scene, id: $to})
				CREATE (a)-[:SPATIAL {relation: $relation, position: $position}]->(b)
			`, params); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

// LoadGraph implements GraphStore
func (s *Neo4jStore) LoadGraph(ctx context.Context, id string) (*scene.SceneGraph, error) {
	session := s.driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	out, err := session.ReadTransaction(func(tx neo4j.Transaction) (interface{}, error) {
		params := map[string]interface{}{"scene": id}

		result, err := tx.Run(`
			MATCH (s:Scene {id: $scene})-[:CONTAINS]->(o:SceneObject)
			RETURN o.id AS id, o.type AS type, o.color AS color, o.size AS size
			ORDER BY o.position
		`, params)
		if err != nil {
			return nil, err
		}

		graph := &scene.SceneGraph{Objects: []scene.SceneObject{}, Relations: []scene.SceneRelation{}}
		for result.Next() {
			rec := result.Record()
			typ := recordString(rec, "type")
			graph.Objects = append(graph.Objects, scene.SceneObject{
				ID:     recordString(rec, "id"),
				Type:   typ,
				Object: typ,
				Attributes: scene.Attributes{
					Color: recordOptional(rec, "color"),
					Size:  recordOptional(rec, "size"),
				},
			})
		}
		if err := result.Err(); err != nil {
			return nil, err
		}
		if len(graph.Objects) == 0 {
			exists, err := tx.Run(`MATCH (s:Scene {id: $scene}) RETURN s.id`, params)
			if err != nil {
				return nil, err
			}
			if !exists.Next() {
				return nil, fmt.Errorf("%w: %s", ErrGraphNotFound, id)
			}
		}

		result, err = tx.Run(`
			MATCH (a:SceneObject {scene_id: $scene})-[r:SPATIAL]->(b:SceneObject {scene_id: $scene})
			RETURN a.id AS from, r.relation AS relation, b.id AS to
			ORDER BY r.position
		`, params)
		if err != nil {
			return nil, err
		}
		for result.Next() {
			rec := result.Record()
			graph.Relations = append(graph.Relations, scene.SceneRelation{
				Subject:  recordString(rec, "from"),
				Relation: catalog.Label(recordString(rec, "relation")),
				Object:   recordString(rec, "to"),
			})
		}
		return graph, result.Err()
	})
	if err != nil {
		return nil, err
	}
	return out.(*scene.SceneGraph), nil
}

func objectParams(sceneID string, graph *scene.SceneGraph) []map[string]interface{} {
	params := make([]map[string]interface{}, 0, len(graph.Objects))
	for i, o := range graph.Objects {
		params = append(params, map[string]interface{}{
			"scene":    sceneID,
			"id":       o.ID,
			"type":     o.Type,
			"color":    optionalValue(o.Attributes.Color),
			"size":     optionalValue(o.Attributes.Size),
			"position": i,
		})
	}
	return params
}

func relationParams(sceneID string, graph *scene.SceneGraph) []map[string]interface{} {
	params := make([]map[string]interface{}, 0, len(graph.Relations))
	for i, r := range graph.Relations {
		params = append(params, map[string]interface{}{
			"scene":    sceneID,
			"from":     r.Subject,
			"to":       r.Object,
			"relation": string(r.Relation),
			"position": i,
		})
	}
	return params
}

func optionalValue(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func recordString(rec *neo4j.Record, key string) string {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

func recordOptional(rec *neo4j.Record, key string) *string {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}
