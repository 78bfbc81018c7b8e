// Package kgraph keeps a small destination knowledge graph in Neo4j. Cities
// link to the places worth visiting around them, and finished plans feed new
// links back into the graph.
package kgraph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// Graph wraps the Neo4j driver for destination lookups.
type Graph struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// New connects to Neo4j with basic auth.
func New(uri, user, password string, logger *zap.Logger) (*Graph, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	return &Graph{driver: driver, logger: logger}, nil
}

// Ping verifies the Neo4j connection.
func (g *Graph) Ping(ctx context.Context) error {
	return g.driver.VerifyConnectivity(ctx)
}

// Close shuts down the Neo4j driver.
func (g *Graph) Close(ctx context.Context) error {
	return g.driver.Close(ctx)
}

// LinkPlace upserts a city node, a place node, and the HAS_PLACE relation
// between them. Repeat links only bump the relation weight.
func (g *Graph) LinkPlace(ctx context.Context, city, place, category string) error {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.Run(ctx,
		`MERGE (c:City {name: $city})
		 MERGE (p:Place {name: $place})
		 ON CREATE SET p.category = $category
		 MERGE (c)-[r:HAS_PLACE]->(p)
		 ON CREATE SET r.weight = 1
		 ON MATCH SET r.weight = r.weight + 1`,
		map[string]interface{}{
			"city":     city,
			"place":    place,
			"category": category,
		})
	if err != nil {
		return fmt.Errorf("link %s -> %s: %w", city, place, err)
	}
	return nil
}

// Related returns the place names linked to a city, heaviest links first.
func (g *Graph) Related(ctx context.Context, city string) ([]string, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	result, err := session.Run(ctx,
		`MATCH (c:City {name: $city})-[r:HAS_PLACE]->(p:Place)
		 RETURN p.name ORDER BY r.weight DESC LIMIT 10`,
		map[string]interface{}{"city": city})
	if err != nil {
		return nil, fmt.Errorf("related places for %s: %w", city, err)
	}

	var places []string
	for result.Next(ctx) {
		if name, ok := result.Record().Get("p.name"); ok {
			if s, ok := name.(string); ok {
				places = append(places, s)
			}
		}
	}
	return places, result.Err()
}

// RecordPlan feeds the attractions of a finished plan back into the graph.
// Failures are logged and swallowed, the plan itself is already done.
func (g *Graph) RecordPlan(ctx context.Context, city string, places map[string]string) {
	for place, category := range places {
		if err := g.LinkPlace(ctx, city, place, category); err != nil {
			g.logger.Warn("graph link failed",
				zap.String("city", city),
				zap.String("place", place),
				zap.Error(err))
		}
	}
}
