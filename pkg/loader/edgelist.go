// The loader package builds graphs from external sources: plain text edge
// lists and nostr follow lists.
package loader

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/vertex-lab/gossip/pkg/database/memdb"
	"github.com/vertex-lab/gossip/pkg/metrics"
	"github.com/vertex-lab/gossip/pkg/models"
	"github.com/vertex-lab/gossip/pkg/utils/logger"
)

// maxReportedLines is the number of skipped line numbers kept in LoadStats.
const maxReportedLines = 10

// Loader builds graphs. The zero value is valid; Log and Metrics are optional.
type Loader struct {
	Log     *logger.Aggregate
	Metrics *metrics.Registry

	// VerifySignatures makes FollowLists() skip events with an invalid signature.
	VerifySignatures bool
}

// LoadEdgeList() reads an edge list from r into G with a silent Loader.
func LoadEdgeList(ctx context.Context, r io.Reader, G models.EdgeAdder) (LoadStats, error) {
	return (&Loader{}).EdgeList(ctx, r, G)
}

// LoadEdgeListFile() reads the edge list at path into a new in-memory graph with a silent Loader.
func LoadEdgeListFile(ctx context.Context, path string) (*memdb.Database, LoadStats, error) {
	return (&Loader{}).EdgeListFile(ctx, path)
}

// LoadStats reports what happened while reading an edge list.
type LoadStats struct {
	Lines   int // lines read
	Edges   int // edge lines added to the graph, duplicates included
	Skipped int // lines skipped because they don't have exactly two fields

	// the line numbers (1-based) of the first skipped lines
	SkippedLines []int
}

/*
EdgeList() reads an edge list from r and adds every edge to G.

Each line must contain two whitespace-separated non-negative integers.
Lines with a different number of fields (empty lines included) are skipped
and reported in LoadStats. A field that is not a valid uint32 aborts the load
with ErrInvalidNodeID; edges read before that line have already been added to G.
*/
func (l *Loader) EdgeList(ctx context.Context, r io.Reader, G models.EdgeAdder) (LoadStats, error) {
	var stats LoadStats
	if G == nil {
		return stats, models.ErrNilDBPointer
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		stats.Lines++
		if stats.Lines%100000 == 0 {
			select {
			case <-ctx.Done():
				return stats, ctx.Err()
			default:
			}
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) != 2 {
			stats.Skipped++
			if len(stats.SkippedLines) < maxReportedLines {
				stats.SkippedLines = append(stats.SkippedLines, stats.Lines)
			}
			continue
		}

		u, err := parseNodeID(fields[0])
		if err != nil {
			return stats, fmt.Errorf("line %d: %w", stats.Lines, err)
		}

		v, err := parseNodeID(fields[1])
		if err != nil {
			return stats, fmt.Errorf("line %d: %w", stats.Lines, err)
		}

		if err := G.AddEdge(ctx, u, v); err != nil {
			return stats, fmt.Errorf("line %d: %w", stats.Lines, err)
		}
		stats.Edges++
	}

	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("failed to read the edge list: %w", err)
	}

	if stats.Skipped > 0 {
		l.Log.Warn("skipped %d malformed lines out of %d (first at lines %v)", stats.Skipped, stats.Lines, stats.SkippedLines)
	}

	l.Metrics.RecordLoad(stats.Edges, stats.Skipped)
	return stats, nil
}

// EdgeListFile() reads the edge list at path into a new in-memory graph.
// On error no graph is returned.
func (l *Loader) EdgeListFile(ctx context.Context, path string) (*memdb.Database, LoadStats, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, LoadStats{}, fmt.Errorf("failed to open the edge list: %w", err)
	}
	defer file.Close()

	DB := memdb.NewDatabase()
	stats, err := l.EdgeList(ctx, file, DB)
	if err != nil {
		return nil, stats, fmt.Errorf("%s: %w", path, err)
	}

	l.Log.Info("loaded %d edges and %d nodes from %s", stats.Edges, DB.Size(ctx), path)
	return DB, stats, nil
}

// parseNodeID parses a nodeID, returning ErrInvalidNodeID if str is not a valid uint32.
func parseNodeID(str string) (uint32, error) {
	ID, err := strconv.ParseUint(str, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNodeID, str)
	}
	return uint32(ID), nil
}

// BatchAdder is a store that can add many edges at once, like redisdb.Database.
type BatchAdder interface {
	AddEdges(ctx context.Context, edges [][2]uint32) error
}

// Persist() copies every edge of src into dst, batchSize edges at a time.
// It returns the number of edges copied.
func Persist(ctx context.Context, src *memdb.Database, dst BatchAdder, batchSize int) (int, error) {
	if err := src.Validate(); err != nil {
		return 0, err
	}

	if dst == nil {
		return 0, models.ErrNilDBPointer
	}

	if batchSize <= 0 {
		return 0, ErrInvalidBatchSize
	}

	edges := src.Edges()
	for start := 0; start < len(edges); start += batchSize {
		end := min(start+batchSize, len(edges))
		if err := dst.AddEdges(ctx, edges[start:end]); err != nil {
			return start, err
		}
	}

	return len(edges), nil
}

//---------------------------------ERROR-CODES---------------------------------

var ErrInvalidNodeID = errors.New("invalid nodeID")
var ErrInvalidBatchSize = errors.New("batchSize should be greater than zero")
var ErrNilKeyIndex = errors.New("key index pointer is nil")
