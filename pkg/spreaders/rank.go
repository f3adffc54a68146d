// The spreaders package ranks candidate seed nodes by how far their gossip
// spreads. Instead of evaluating every node, it samples a random subset of
// candidates and simulates the spread from each of them.
package spreaders

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/vertex-lab/gossip/pkg/diffusion"
	"github.com/vertex-lab/gossip/pkg/metrics"
	"github.com/vertex-lab/gossip/pkg/models"
	"github.com/vertex-lab/gossip/pkg/utils/logger"
	"golang.org/x/sync/errgroup"
)

// Ranker evaluates sampled seeds. The zero value is a valid sequential ranker
// that neither logs nor records metrics.
type Ranker struct {
	// Workers is the maximum number of trials simulated concurrently.
	// Values <= 1 run the trials sequentially.
	Workers int

	// Log and Metrics are optional.
	Log     *logger.Aggregate
	Metrics *metrics.Registry
}

/*
TopSpreaders() samples numTrials distinct nodes of G uniformly at random,
simulates the spread from each for at most maxSteps steps, and returns the
results sorted by descending reach.

If numTrials exceeds the number of nodes, every node is evaluated exactly once.
The rng is the only source of randomness, so a seeded rng gives reproducible rankings.
*/
func TopSpreaders(ctx context.Context, G models.Graph,
	numTrials, maxSteps int, rng *rand.Rand) ([]models.SpreaderResult, error) {

	var r Ranker
	return r.Rank(ctx, G, numTrials, maxSteps, rng)
}

// Rank() is the same as TopSpreaders(), using the Ranker's settings.
func (r *Ranker) Rank(ctx context.Context, G models.Graph,
	numTrials, maxSteps int, rng *rand.Rand) ([]models.SpreaderResult, error) {

	if err := checkInputs(G, numTrials, maxSteps, rng); err != nil {
		return nil, err
	}

	start := time.Now()
	nodeIDs, err := G.AllNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch the candidates: %w", err)
	}

	// sorting makes the sample depend only on the rng and not on the store's iteration order
	slices.Sort(nodeIDs)
	seeds := Sample(nodeIDs, numTrials, rng)
	if len(seeds) < numTrials {
		r.Log.Warn("requested %d trials but the graph has %d nodes; evaluating all of them", numTrials, len(seeds))
	}

	var results []models.SpreaderResult
	if r.Workers <= 1 {
		results, err = r.rankSequential(ctx, G, seeds, maxSteps)
	} else {
		results, err = r.rankParallel(ctx, G, seeds, maxSteps)
	}

	if err != nil {
		return nil, err
	}

	models.SortByReach(results)
	r.Metrics.RecordRank(time.Since(start))
	r.Log.Info("ranked %d seeds in %v", len(results), time.Since(start))
	return results, nil
}

func (r *Ranker) rankSequential(ctx context.Context, G models.Graph,
	seeds []uint32, maxSteps int) ([]models.SpreaderResult, error) {

	results := make([]models.SpreaderResult, 0, len(seeds))
	for _, seed := range seeds {
		result, err := r.trial(ctx, G, seed, maxSteps)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	return results, nil
}

// rankParallel runs at most r.Workers trials at a time. Each trial writes
// only to its own slot of results, so no locking is needed.
func (r *Ranker) rankParallel(ctx context.Context, G models.Graph,
	seeds []uint32, maxSteps int) ([]models.SpreaderResult, error) {

	results := make([]models.SpreaderResult, len(seeds))
	completed := xsync.NewCounter()

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(r.Workers)

	for i, seed := range seeds {
		i, seed := i, seed
		group.Go(func() error {
			result, err := r.trial(ctx, G, seed, maxSteps)
			if err != nil {
				return err
			}

			results[i] = result
			completed.Inc()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		r.Log.Error("ranking aborted after %d of %d trials: %v", completed.Value(), len(seeds), err)
		return nil, err
	}

	return results, nil
}

// trial simulates the spread from seed and returns its total reach.
func (r *Ranker) trial(ctx context.Context, G models.Graph,
	seed uint32, maxSteps int) (models.SpreaderResult, error) {

	start := time.Now()
	spreadLog, err := diffusion.Simulate(ctx, G, seed, maxSteps)
	r.Metrics.RecordSimulation(spreadLog.Steps(), spreadLog.Reach(), time.Since(start), err)
	if err != nil {
		return models.SpreaderResult{}, fmt.Errorf("trial from %d failed: %w", seed, err)
	}

	r.Metrics.RecordTrial()
	return models.SpreaderResult{NodeID: seed, Reach: spreadLog.Reach()}, nil
}

/*
Sample() returns min(k, len(nodeIDs)) distinct elements of nodeIDs chosen
uniformly at random, using a partial Fisher-Yates shuffle on a copy.
nodeIDs is not modified. A k larger than the population is not an error.
*/
func Sample(nodeIDs []uint32, k int, rng *rand.Rand) []uint32 {
	n := len(nodeIDs)
	if k > n {
		k = n
	}

	if k <= 0 {
		return []uint32{}
	}

	pool := slices.Clone(nodeIDs)
	for i := 0; i < k; i++ {
		j := i + rng.Intn(n-i)
		pool[i], pool[j] = pool[j], pool[i]
	}

	return pool[:k]
}

// Top() returns the first n results, or all of them if there are fewer than n.
func Top(results []models.SpreaderResult, n int) []models.SpreaderResult {
	if n < 0 {
		n = 0
	}

	if n > len(results) {
		n = len(results)
	}
	return results[:n]
}

// function that checks the inputs of the ranker
func checkInputs(G models.Graph, numTrials, maxSteps int, rng *rand.Rand) error {
	if G == nil {
		return models.ErrNilDBPointer
	}

	if err := G.Validate(); err != nil {
		return err
	}

	if numTrials < 0 {
		return ErrNegativeTrials
	}

	if maxSteps < 0 {
		return diffusion.ErrNegativeSteps
	}

	if rng == nil {
		return ErrNilRNG
	}

	return nil
}

//---------------------------------ERROR-CODES---------------------------------

var ErrNegativeTrials = errors.New("numTrials should be greater or equal than zero")
var ErrNilRNG = diffusion.ErrNilRNG
