package graph

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// ClusterService writes linkage clusters into the graph as Record nodes
// joined by SAME_AS edges to their cluster root.
type ClusterService struct {
	client *Client
	logger ectologger.Logger
}

// NewClusterService creates a new cluster service
func NewClusterService(client *Client, logger ectologger.Logger) *ClusterService {
	return &ClusterService{
		client: client,
		logger: logger,
	}
}

// ExportSnapshot upserts one Record node per member and a SAME_AS edge
// from each member to its cluster root. Singleton clusters produce a
// node but no edge.
func (s *ClusterService) ExportSnapshot(ctx context.Context, runID string, clusters models.ClusterSnapshot) error {
	ctx, span := tracing.StartSpan(ctx, "graph.ClusterService.ExportSnapshot")
	defer span.End()

	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"run_id":   runID,
		"clusters": len(clusters),
	})

	cypher := `
		MERGE (root:Record {id: $root_id})
		WITH root
		UNWIND $member_ids AS member_id
		MERGE (m:Record {id: member_id})
		MERGE (m)-[r:SAME_AS]->(root)
		SET r.run_id = $run_id
	`

	for root, members := range clusters {
		others := make([]string, 0, len(members))
		for _, id := range members {
			if id != root {
				others = append(others, id)
			}
		}

		_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			result, err := tx.Run(ctx, cypher, map[string]any{
				"root_id":    root,
				"member_ids": others,
				"run_id":     runID,
			})
			if err != nil {
				return nil, err
			}
			return result.Consume(ctx)
		})
		if err != nil {
			log.WithError(err).WithFields(map[string]any{"root_id": root}).Error("Failed to export cluster")
			return err
		}
	}

	log.Debug("Exported cluster snapshot to graph")
	return nil
}
