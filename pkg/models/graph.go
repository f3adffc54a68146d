/*
The models package defines the fundamental structures and interfaces used in this project.
Interfaces:

Graph:
The Graph interface abstracts read-only access to an undirected graph, so that
the diffusion simulator and the spreader ranker don't rely on a specific store.

EdgeAdder:
The EdgeAdder interface abstracts the write side, used only while the graph is
being built by the loaders.
*/
package models

import (
	"context"
	"errors"

	mapset "github.com/deckarep/golang-set/v2"
)

// NodeSet is a set of nodeIDs. Each node in a graph is associated with the
// set of its neighbors.
type NodeSet mapset.Set[uint32]

// NewNodeSet() returns a thread-unsafe NodeSet containing the specified nodeIDs.
func NewNodeSet(nodeIDs ...uint32) NodeSet {
	return mapset.NewThreadUnsafeSet[uint32](nodeIDs...)
}

// The Graph interface abstracts the read operations of an undirected graph.
// Implementations must be safe for concurrent readers as long as no writer exists.
type Graph interface {
	// Validate() returns the appropriate error if the graph is nil or not usable.
	Validate() error

	// Size() returns the number of known nodes (ignores errors).
	Size(ctx context.Context) int

	// ContainsNode() returns whether nodeID has been an endpoint of at least one edge.
	ContainsNode(ctx context.Context, nodeID uint32) bool

	// Neighbors() returns the neighbors of nodeID. Each call returns a fresh slice.
	// An unknown nodeID yields an empty slice and a nil error.
	Neighbors(ctx context.Context, nodeID uint32) ([]uint32, error)

	// AllNodes() returns the IDs of all known nodes, in unspecified order.
	AllNodes(ctx context.Context) ([]uint32, error)
}

// EdgeAdder is the write side of a graph store.
type EdgeAdder interface {
	// AddEdge() adds the undirected edge (u, v). It is idempotent.
	AddEdge(ctx context.Context, u, v uint32) error
}

// GraphBuilder is a Graph that can also be built edge by edge.
type GraphBuilder interface {
	Graph
	EdgeAdder
}

//--------------------------ERROR-CODES--------------------------

var ErrNilDBPointer = errors.New("database pointer is nil")
var ErrNilClientPointer = errors.New("nil client pointer")
var ErrEmptyGraph = errors.New("graph is empty")
