package graph

import (
	"context"
	"fmt"
	"log"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Provider supplies architecture layer summaries for prompt context.
type Provider interface {
	Layers(ctx context.Context) ([]Layer, error)
	IsConnected(ctx context.Context) bool
	Close(ctx context.Context) error
}

// Neo4jProvider reads planning nodes from a Neo4j database and summarizes
// them into layers. It only ever reads; graph editing belongs to the
// planning UI's own backend surface.
type Neo4jProvider struct {
	driver neo4j.DriverWithContext
}

// NewNeo4jProvider connects to Neo4j and verifies connectivity.
func NewNeo4jProvider(ctx context.Context, uri, username, password string) (*Neo4jProvider, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("failed to connect to neo4j: %w", err)
	}

	return &Neo4jProvider{driver: driver}, nil
}

// Layers returns every named layer with its node summaries, ordered by
// layer name so output is stable across calls.
func (p *Neo4jProvider) Layers(ctx context.Context) ([]Layer, error) {
	session := p.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (n:Node)
		WHERE n.layer IS NOT NULL AND n.layer <> ''
		RETURN n.layer AS layer, collect({name: n.name, type: n.type}) AS nodes
		ORDER BY layer
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query layers: %w", err)
	}

	var layers []Layer
	for result.Next(ctx) {
		record := result.Record()

		layerName, _ := record.Get("layer")
		rawNodes, _ := record.Get("nodes")

		name, ok := layerName.(string)
		if !ok {
			continue
		}

		layer := Layer{Name: name}
		if nodeList, ok := rawNodes.([]any); ok {
			layer.NodeCount = len(nodeList)
			for _, raw := range nodeList {
				props, ok := raw.(map[string]any)
				if !ok {
					continue
				}
				summary := NodeSummary{}
				if v, ok := props["name"].(string); ok {
					summary.Name = v
				}
				if v, ok := props["type"].(string); ok {
					summary.Type = v
				}
				if summary.Name != "" {
					layer.Nodes = append(layer.Nodes, summary)
				}
			}
		}
		layers = append(layers, layer)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("error iterating layers: %w", err)
	}

	return layers, nil
}

// IsConnected reports whether the database is reachable.
func (p *Neo4jProvider) IsConnected(ctx context.Context) bool {
	if err := p.driver.VerifyConnectivity(ctx); err != nil {
		log.Printf(`{"level":"warn","message":"Neo4j connectivity check failed","error":"%v"}`, err)
		return false
	}
	return true
}

// Close releases the underlying driver.
func (p *Neo4jProvider) Close(ctx context.Context) error {
	return p.driver.Close(ctx)
}

// NoopProvider is used when no graph database is configured. It returns
// no layers, so prompts are simply built without architecture context.
type NoopProvider struct{}

func (NoopProvider) Layers(ctx context.Context) ([]Layer, error) { return nil, nil }
func (NoopProvider) IsConnected(ctx context.Context) bool        { return false }
func (NoopProvider) Close(ctx context.Context) error             { return nil }
