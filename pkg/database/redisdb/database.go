// The redisdb package defines a Redis database that fulfills the Graph interface in models.
// Each node is associated with a Redis SET of its neighbors, and a global SET
// keeps track of all the known nodes.
package redisdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/vertex-lab/gossip/pkg/models"
	"github.com/vertex-lab/gossip/pkg/utils/redisutils"
)

const (
	KeyNodes           string = "nodes"
	KeyNeighborsPrefix string = "neighbors:"

	clearBatchSize int64 = 1000
)

// Database fulfills the Graph interface defined in models
type Database struct {
	client *redis.Client
}

// NewDatabase() returns a Database over the client, after checking that the
// Redis server is reachable.
func NewDatabase(ctx context.Context, cl *redis.Client) (*Database, error) {
	if cl == nil {
		return nil, models.ErrNilClientPointer
	}

	if err := redisutils.Ping(ctx, cl); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	return &Database{client: cl}, nil
}

// Validate() check if DB and client are nil and returns the appropriare error
func (DB *Database) Validate() error {
	if DB == nil {
		return models.ErrNilDBPointer
	}

	if DB.client == nil {
		return models.ErrNilClientPointer
	}

	return nil
}

// AddEdge() adds the undirected edge (u, v) in a single transaction.
// SADD has set semantics, so adding the same edge twice is a no-op.
func (DB *Database) AddEdge(ctx context.Context, u, v uint32) error {
	if err := DB.Validate(); err != nil {
		return err
	}

	pipe := DB.client.TxPipeline()
	pipe.SAdd(ctx, KeyNodes, redisutils.FormatID(u), redisutils.FormatID(v))
	pipe.SAdd(ctx, KeyNeighbors(u), redisutils.FormatID(v))
	pipe.SAdd(ctx, KeyNeighbors(v), redisutils.FormatID(u))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to add edge (%d,%d): %w", u, v, err)
	}
	return nil
}

// AddEdges() adds all the specified edges in a single transaction, with one
// SADD per touched key.
func (DB *Database) AddEdges(ctx context.Context, edges [][2]uint32) error {
	if err := DB.Validate(); err != nil {
		return err
	}

	if len(edges) == 0 {
		return nil
	}

	nodeIDs := make([]uint32, 0, len(edges))
	neighbors := make(map[uint32][]uint32, len(edges))
	for _, edge := range edges {
		u, v := edge[0], edge[1]
		if _, exists := neighbors[u]; !exists {
			nodeIDs = append(nodeIDs, u)
		}
		neighbors[u] = append(neighbors[u], v)

		if u == v {
			continue
		}

		if _, exists := neighbors[v]; !exists {
			nodeIDs = append(nodeIDs, v)
		}
		neighbors[v] = append(neighbors[v], u)
	}

	pipe := DB.client.TxPipeline()
	pipe.SAdd(ctx, KeyNodes, redisutils.FormatIDs(nodeIDs)...)
	for _, nodeID := range nodeIDs {
		pipe.SAdd(ctx, KeyNeighbors(nodeID), redisutils.FormatIDs(neighbors[nodeID])...)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to add %d edges: %w", len(edges), err)
	}
	return nil
}

// Clear() deletes the set of nodes and every neighbors set, leaving an empty graph.
func (DB *Database) Clear(ctx context.Context) error {
	if err := DB.Validate(); err != nil {
		return err
	}

	var cursor uint64
	for {
		keys, next, err := DB.client.Scan(ctx, cursor, KeyNeighborsPrefix+"*", clearBatchSize).Result()
		if err != nil {
			return fmt.Errorf("failed to scan the neighbors keys: %w", err)
		}

		if len(keys) > 0 {
			if err := DB.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to delete %d neighbors keys: %w", len(keys), err)
			}
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	if err := DB.client.Del(ctx, KeyNodes).Err(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", KeyNodes, err)
	}
	return nil
}

// ContainsNode() returns wheter the DB contains nodeID. In case of errors returns false.
func (DB *Database) ContainsNode(ctx context.Context, nodeID uint32) bool {
	if err := DB.Validate(); err != nil {
		return false
	}

	isMember, err := DB.client.SIsMember(ctx, KeyNodes, redisutils.FormatID(nodeID)).Result()
	if err != nil {
		return false
	}

	return isMember
}

// Neighbors() returns the neighbors of nodeID. SMEMBERS on a missing key returns
// an empty set, which is exactly the contract for unknown nodes.
func (DB *Database) Neighbors(ctx context.Context, nodeID uint32) ([]uint32, error) {
	if err := DB.Validate(); err != nil {
		return nil, err
	}

	strIDs, err := DB.client.SMembers(ctx, KeyNeighbors(nodeID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch the neighbors of %d: %w", nodeID, err)
	}

	return redisutils.ParseIDs(strIDs)
}

// AllNodes() returns a slice with the IDs of all nodes in the DB.
// This is a blocking operation on big graphs.
func (DB *Database) AllNodes(ctx context.Context) ([]uint32, error) {
	if err := DB.Validate(); err != nil {
		return nil, err
	}

	strIDs, err := DB.client.SMembers(ctx, KeyNodes).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch all nodes: %w", err)
	}

	return redisutils.ParseIDs(strIDs)
}

// Size() returns the number of nodes in the DB. In case of errors, it returns 0.
func (DB *Database) Size(ctx context.Context) int {
	if err := DB.Validate(); err != nil {
		return 0
	}

	size, err := DB.client.SCard(ctx, KeyNodes).Result()
	if err != nil {
		return 0
	}

	return int(size)
}

// KeyNeighbors() returns the Redis key for the neighbors of the specified nodeID
func KeyNeighbors(nodeID uint32) string {
	return KeyNeighborsPrefix + redisutils.FormatID(nodeID)
}

// ------------------------------------HELPERS----------------------------------

// function that returns a DB setup based on the DBType
func SetupDB(cl *redis.Client, DBType string) (*Database, error) {
	ctx := context.Background()
	if cl == nil {
		return nil, models.ErrNilClientPointer
	}

	var edges [][2]uint32
	switch DBType {
	case "nil":
		return nil, nil

	case "nil-client":
		return &Database{}, nil

	case "empty":

	case "path":
		edges = [][2]uint32{{1, 2}, {2, 3}, {3, 4}}

	case "disjoint":
		edges = [][2]uint32{{1, 2}, {3, 4}}

	case "triangle":
		edges = [][2]uint32{{0, 1}, {1, 2}, {2, 0}}

	default:
		return nil, fmt.Errorf("unknown DBType %q", DBType)
	}

	DB, err := NewDatabase(ctx, cl)
	if err != nil {
		return nil, err
	}

	if err := DB.AddEdges(ctx, edges); err != nil {
		return nil, err
	}

	return DB, nil
}

//---------------------------------ERROR-CODES---------------------------------

var ErrUnreachable = errors.New("redis server is unreachable")
