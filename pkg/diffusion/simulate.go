// The diffusion package simulates the step-wise spread of a message ("gossip")
// over an undirected graph, starting from a single seed node.
package diffusion

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/vertex-lab/gossip/pkg/models"
)

/*
Simulate() spreads the gossip from the start node for at most maxSteps steps,
and returns the SpreadLog of the cumulative number of nodes reached.

At each step, every not-yet-reached neighbor of the current frontier is reached.
A node reachable from several frontier nodes is counted once. The simulation
stops early when a step reaches no new node, so the log has between 1 and
maxSteps+1 entries. An unknown start node returns {1}.

The graph is only read. The context is checked between steps.
*/
func Simulate(ctx context.Context, G models.Graph, start uint32, maxSteps int) (models.SpreadLog, error) {
	if G == nil {
		return nil, models.ErrNilDBPointer
	}

	if err := G.Validate(); err != nil {
		return nil, err
	}

	if maxSteps < 0 {
		return nil, ErrNegativeSteps
	}

	visited := mapset.NewThreadUnsafeSet[uint32](start)
	frontier := []uint32{start}
	spreadLog := models.SpreadLog{1}

	for step := 0; step < maxSteps; step++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		next, err := expand(ctx, G, frontier, visited)
		if err != nil {
			return nil, fmt.Errorf("step %d from %d: %w", step+1, start, err)
		}

		// the reachable component is exhausted
		if len(next) == 0 {
			break
		}

		spreadLog = append(spreadLog, visited.Cardinality())
		frontier = next
	}

	return spreadLog, nil
}

// expand returns the neighbors of the frontier that are not in visited, and
// adds them to visited.
func expand(ctx context.Context, G models.Graph,
	frontier []uint32, visited mapset.Set[uint32]) ([]uint32, error) {

	var next []uint32
	for _, nodeID := range frontier {
		neighbors, err := G.Neighbors(ctx, nodeID)
		if err != nil {
			return nil, err
		}

		for _, neighbor := range neighbors {
			// Add returns false if it was already visited
			if visited.Add(neighbor) {
				next = append(next, neighbor)
			}
		}
	}

	return next, nil
}

// SimulateFromRandom() picks a uniformly random node with rng and simulates
// the spread from it. It returns the chosen seed together with its SpreadLog.
func SimulateFromRandom(ctx context.Context, G models.Graph,
	maxSteps int, rng *rand.Rand) (uint32, models.SpreadLog, error) {

	if G == nil {
		return 0, nil, models.ErrNilDBPointer
	}

	if err := G.Validate(); err != nil {
		return 0, nil, err
	}

	if rng == nil {
		return 0, nil, ErrNilRNG
	}

	nodeIDs, err := G.AllNodes(ctx)
	if err != nil {
		return 0, nil, err
	}

	if len(nodeIDs) == 0 {
		return 0, nil, models.ErrEmptyGraph
	}

	// the order of AllNodes is unspecified; sorting makes the pick depend only on rng
	slices.Sort(nodeIDs)

	seed := nodeIDs[rng.Intn(len(nodeIDs))]
	spreadLog, err := Simulate(ctx, G, seed, maxSteps)
	return seed, spreadLog, err
}

//---------------------------------ERROR-CODES---------------------------------

var ErrNilRNG = errors.New("nil random number generator")
var ErrNegativeSteps = errors.New("maxSteps should be greater or equal than zero")
