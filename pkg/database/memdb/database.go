// The memdb package defines an in-memory undirected graph that fulfills the
// Graph interface in models. It is the default store used by the CLI.
package memdb

import (
	"cmp"
	"context"
	"math/rand"
	"slices"

	"github.com/vertex-lab/gossip/pkg/models"
)

// Database is an adjacency structure: each nodeID is associated with the set
// of its neighbors. Once built, it must be treated as read-only.
type Database struct {
	Adjacency map[uint32]models.NodeSet
}

// NewDatabase() creates and returns a new Database instance.
func NewDatabase() *Database {
	return &Database{
		Adjacency: make(map[uint32]models.NodeSet),
	}
}

// Validate() returns an error if the DB is nil
func (DB *Database) Validate() error {
	if DB == nil {
		return models.ErrNilDBPointer
	}
	return nil
}

// AddEdge() adds v to the neighbors of u and u to the neighbors of v.
// Adding the same edge twice leaves the DB unchanged.
func (DB *Database) AddEdge(ctx context.Context, u, v uint32) error {
	_ = ctx
	if err := DB.Validate(); err != nil {
		return err
	}

	DB.neighborSet(u).Add(v)
	DB.neighborSet(v).Add(u)
	return nil
}

// neighborSet returns the set of neighbors of nodeID, creating it if needed.
func (DB *Database) neighborSet(nodeID uint32) models.NodeSet {
	set, exists := DB.Adjacency[nodeID]
	if !exists {
		set = models.NewNodeSet()
		DB.Adjacency[nodeID] = set
	}
	return set
}

// ContainsNode() returns whether nodeID is found in the DB
func (DB *Database) ContainsNode(ctx context.Context, nodeID uint32) bool {
	_ = ctx
	if err := DB.Validate(); err != nil {
		return false
	}

	_, exists := DB.Adjacency[nodeID]
	return exists
}

// Neighbors() returns the neighbors of nodeID. Unknown nodes have no neighbors.
func (DB *Database) Neighbors(ctx context.Context, nodeID uint32) ([]uint32, error) {
	_ = ctx
	if err := DB.Validate(); err != nil {
		return nil, err
	}

	neighbors, exists := DB.Adjacency[nodeID]
	if !exists {
		return []uint32{}, nil
	}

	return neighbors.ToSlice(), nil
}

// AllNodes() returns a slice with the IDs of all the nodes
func (DB *Database) AllNodes(ctx context.Context) ([]uint32, error) {
	_ = ctx
	if err := DB.Validate(); err != nil {
		return nil, err
	}

	nodeIDs := make([]uint32, 0, len(DB.Adjacency))
	for nodeID := range DB.Adjacency {
		nodeIDs = append(nodeIDs, nodeID)
	}

	return nodeIDs, nil
}

// Edges() returns every undirected edge once, as (u, v) with u <= v, sorted.
func (DB *Database) Edges() [][2]uint32 {
	if DB == nil {
		return nil
	}

	edges := make([][2]uint32, 0, len(DB.Adjacency))
	for u, neighbors := range DB.Adjacency {
		for v := range neighbors.Iter() {
			if u <= v {
				edges = append(edges, [2]uint32{u, v})
			}
		}
	}

	slices.SortFunc(edges, func(a, b [2]uint32) int {
		if c := cmp.Compare(a[0], b[0]); c != 0 {
			return c
		}
		return cmp.Compare(a[1], b[1])
	})
	return edges
}

// Size() returns the number of nodes in the DB (ignores errors).
func (DB *Database) Size(ctx context.Context) int {
	_ = ctx
	if DB == nil {
		return 0
	}
	return len(DB.Adjacency)
}

// ------------------------------------HELPERS----------------------------------

// FromEdges() returns a DB containing the specified edges.
func FromEdges(edges ...[2]uint32) *Database {
	DB := NewDatabase()
	for _, edge := range edges {
		DB.AddEdge(context.Background(), edge[0], edge[1])
	}
	return DB
}

// function that returns a DB setup based on the DBType
func SetupDB(DBType string) *Database {
	switch DBType {

	case "nil":
		return nil

	case "empty":
		return NewDatabase()

	case "one-edge":
		return FromEdges([2]uint32{0, 1})

	case "self-loop":
		return FromEdges([2]uint32{0, 0})

	case "path":
		// 1 -- 2 -- 3 -- 4
		return FromEdges([2]uint32{1, 2}, [2]uint32{2, 3}, [2]uint32{3, 4})

	case "disjoint":
		// 1 -- 2    3 -- 4
		return FromEdges([2]uint32{1, 2}, [2]uint32{3, 4})

	case "triangle":
		return FromEdges([2]uint32{0, 1}, [2]uint32{1, 2}, [2]uint32{2, 0})

	case "star":
		// 0 is the hub, 1..5 are the leaves
		return FromEdges(
			[2]uint32{0, 1}, [2]uint32{0, 2}, [2]uint32{0, 3},
			[2]uint32{0, 4}, [2]uint32{0, 5},
		)

	case "diamond":
		// 0 reaches 3 through both 1 and 2
		return FromEdges([2]uint32{0, 1}, [2]uint32{0, 2}, [2]uint32{1, 3}, [2]uint32{2, 3})

	default:
		return nil // default to nil
	}
}

// GenerateDB() generates a random DB of a specified number of nodes, where each
// node has at least minDegree random neighbors (self-loops excluded).
func GenerateDB(nodesNum, minDegree int, rng *rand.Rand) *Database {
	if nodesNum < 2 || minDegree < 1 || minDegree >= nodesNum {
		return nil
	}

	DB := NewDatabase()
	for i := 0; i < nodesNum; i++ {
		u := uint32(i)
		for DB.neighborSet(u).Cardinality() < minDegree {
			v := uint32(rng.Intn(nodesNum))
			if v == u {
				continue
			}

			DB.AddEdge(context.Background(), u, v)
		}
	}

	return DB
}
