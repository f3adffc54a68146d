package diffusion

import (
	"context"
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/vertex-lab/gossip/pkg/database/memdb"
	"github.com/vertex-lab/gossip/pkg/models"
)

var errFaulty = errors.New("neighbors unavailable")

// faultyGraph fails every Neighbors() call.
type faultyGraph struct {
	*memdb.Database
}

func (f faultyGraph) Neighbors(ctx context.Context, nodeID uint32) ([]uint32, error) {
	return nil, errFaulty
}

func TestSimulate(t *testing.T) {
	testCases := []struct {
		name          string
		DBType        string
		start         uint32
		maxSteps      int
		expectedLog   models.SpreadLog
		expectedError error
	}{
		{
			name:          "nil DB",
			DBType:        "nil",
			start:         0,
			maxSteps:      3,
			expectedError: models.ErrNilDBPointer,
		},
		{
			name:          "negative steps",
			DBType:        "path",
			start:         1,
			maxSteps:      -1,
			expectedError: ErrNegativeSteps,
		},
		{
			name:        "zero steps",
			DBType:      "path",
			start:       1,
			maxSteps:    0,
			expectedLog: models.SpreadLog{1},
		},
		{
			name:        "unknown start",
			DBType:      "path",
			start:       99,
			maxSteps:    4,
			expectedLog: models.SpreadLog{1},
		},
		{
			name:        "empty DB",
			DBType:      "empty",
			start:       0,
			maxSteps:    4,
			expectedLog: models.SpreadLog{1},
		},
		{
			name:        "path",
			DBType:      "path",
			start:       1,
			maxSteps:    4,
			expectedLog: models.SpreadLog{1, 2, 3, 4},
		},
		{
			name:        "path, budget exhausted",
			DBType:      "path",
			start:       1,
			maxSteps:    2,
			expectedLog: models.SpreadLog{1, 2, 3},
		},
		{
			name:        "path, from the middle",
			DBType:      "path",
			start:       2,
			maxSteps:    4,
			expectedLog: models.SpreadLog{1, 3, 4},
		},
		{
			name:        "disjoint, stops after the component",
			DBType:      "disjoint",
			start:       1,
			maxSteps:    3,
			expectedLog: models.SpreadLog{1, 2},
		},
		{
			name:        "self-loop",
			DBType:      "self-loop",
			start:       0,
			maxSteps:    3,
			expectedLog: models.SpreadLog{1},
		},
		{
			name:        "triangle",
			DBType:      "triangle",
			start:       0,
			maxSteps:    5,
			expectedLog: models.SpreadLog{1, 3},
		},
		{
			name:        "star, from a leaf",
			DBType:      "star",
			start:       3,
			maxSteps:    5,
			expectedLog: models.SpreadLog{1, 2, 6},
		},
		{
			name:        "diamond, node reached twice is counted once",
			DBType:      "diamond",
			start:       0,
			maxSteps:    5,
			expectedLog: models.SpreadLog{1, 3, 4},
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			DB := memdb.SetupDB(test.DBType)

			spreadLog, err := Simulate(context.Background(), DB, test.start, test.maxSteps)
			if !errors.Is(err, test.expectedError) {
				t.Fatalf("Simulate(): expected %v, got %v", test.expectedError, err)
			}

			if !reflect.DeepEqual(spreadLog, test.expectedLog) {
				t.Errorf("Simulate(): expected %v, got %v", test.expectedLog, spreadLog)
			}
		})
	}
}

func TestSimulateErrors(t *testing.T) {
	t.Run("nil graph", func(t *testing.T) {
		_, err := Simulate(context.Background(), nil, 0, 1)
		if !errors.Is(err, models.ErrNilDBPointer) {
			t.Fatalf("Simulate(): expected %v, got %v", models.ErrNilDBPointer, err)
		}
	})

	t.Run("faulty graph", func(t *testing.T) {
		G := faultyGraph{memdb.SetupDB("path")}
		_, err := Simulate(context.Background(), G, 1, 3)
		if !errors.Is(err, errFaulty) {
			t.Fatalf("Simulate(): expected %v, got %v", errFaulty, err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := Simulate(ctx, memdb.SetupDB("path"), 1, 3)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Simulate(): expected %v, got %v", context.Canceled, err)
		}
	})
}

func TestSimulateDoesNotMutate(t *testing.T) {
	ctx := context.Background()
	DB := memdb.SetupDB("star")
	before := DB.Size(ctx)

	if _, err := Simulate(ctx, DB, 0, 10); err != nil {
		t.Fatalf("Simulate(): expected nil, got %v", err)
	}

	if after := DB.Size(ctx); after != before {
		t.Errorf("Size(): expected %d, got %d", before, after)
	}

	neighbors, _ := DB.Neighbors(ctx, 1)
	if !reflect.DeepEqual(neighbors, []uint32{0}) {
		t.Errorf("Neighbors(1): expected %v, got %v", []uint32{0}, neighbors)
	}
}

func TestSimulateFromRandom(t *testing.T) {
	testCases := []struct {
		name          string
		DBType        string
		nilRNG        bool
		expectedError error
	}{
		{
			name:          "nil DB",
			DBType:        "nil",
			expectedError: models.ErrNilDBPointer,
		},
		{
			name:          "nil rng",
			DBType:        "path",
			nilRNG:        true,
			expectedError: ErrNilRNG,
		},
		{
			name:          "empty DB",
			DBType:        "empty",
			expectedError: models.ErrEmptyGraph,
		},
		{
			name:   "path",
			DBType: "path",
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			DB := memdb.SetupDB(test.DBType)
			rng := rand.New(rand.NewSource(42))
			if test.nilRNG {
				rng = nil
			}

			seed, spreadLog, err := SimulateFromRandom(context.Background(), DB, 4, rng)
			if !errors.Is(err, test.expectedError) {
				t.Fatalf("SimulateFromRandom(): expected %v, got %v", test.expectedError, err)
			}

			if err != nil {
				return
			}

			if !DB.ContainsNode(context.Background(), seed) {
				t.Errorf("SimulateFromRandom(): seed %d is not in the DB", seed)
			}

			// same seed of the rng, same pick
			rng = rand.New(rand.NewSource(42))
			seed2, spreadLog2, _ := SimulateFromRandom(context.Background(), DB, 4, rng)
			if seed != seed2 || !reflect.DeepEqual(spreadLog, spreadLog2) {
				t.Errorf("SimulateFromRandom(): expected (%d, %v), got (%d, %v)", seed, spreadLog, seed2, spreadLog2)
			}
		})
	}
}

// fromFlat builds a graph using consecutive pairs of flat as edges.
func fromFlat(flat []uint32) *memdb.Database {
	DB := memdb.NewDatabase()
	for i := 0; i+1 < len(flat); i += 2 {
		DB.AddEdge(context.Background(), flat[i], flat[i+1])
	}
	return DB
}

func TestSimulateProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	ctx := context.Background()

	properties.Property("zero steps only reach the seed", prop.ForAll(
		func(flat []uint32, seed uint32) bool {
			spreadLog, err := Simulate(ctx, fromFlat(flat), seed, 0)
			return err == nil && reflect.DeepEqual(spreadLog, models.SpreadLog{1})
		},
		gen.SliceOf(gen.UInt32Range(0, 30)),
		gen.UInt32Range(0, 30),
	))

	properties.Property("log is increasing and bounded by maxSteps+1", prop.ForAll(
		func(flat []uint32, seed uint32, maxSteps int) bool {
			spreadLog, err := Simulate(ctx, fromFlat(flat), seed, maxSteps)
			if err != nil || len(spreadLog) == 0 || len(spreadLog) > maxSteps+1 {
				return false
			}

			if spreadLog[0] != 1 {
				return false
			}

			for i := 1; i < len(spreadLog); i++ {
				if spreadLog[i] <= spreadLog[i-1] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.UInt32Range(0, 30)),
		gen.UInt32Range(0, 30),
		gen.IntRange(0, 12),
	))

	properties.Property("reach never exceeds the graph size", prop.ForAll(
		func(flat []uint32, seed uint32, maxSteps int) bool {
			DB := fromFlat(flat)
			spreadLog, err := Simulate(ctx, DB, seed, maxSteps)
			if err != nil {
				return false
			}

			if !DB.ContainsNode(ctx, seed) {
				return spreadLog.Reach() == 1
			}
			return spreadLog.Reach() <= DB.Size(ctx)
		},
		gen.SliceOf(gen.UInt32Range(0, 30)),
		gen.UInt32Range(0, 30),
		gen.IntRange(0, 12),
	))

	properties.TestingRun(t)
}

func BenchmarkSimulate(b *testing.B) {
	rng := rand.New(rand.NewSource(69))
	DB := memdb.GenerateDB(10000, 5, rng)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Simulate(ctx, DB, uint32(i%10000), 5); err != nil {
			b.Fatalf("Benchmark failed: %v", err)
		}
	}
}
