package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/nbd-wtf/go-nostr"
	"github.com/vertex-lab/gossip/pkg/database/memdb"
	"github.com/vertex-lab/gossip/pkg/database/redisdb"
	"github.com/vertex-lab/gossip/pkg/loader"
	"github.com/vertex-lab/gossip/pkg/metrics"
	"github.com/vertex-lab/gossip/pkg/models"
	"github.com/vertex-lab/gossip/pkg/utils/redisutils"
)

// LoadGraph() builds the graph described by the config. The returned labels
// function maps nodeIDs back to pubkeys when the graph comes from follow lists,
// and is nil otherwise.
func LoadGraph(ctx context.Context, config *Config, registry *metrics.Registry) (models.Graph, func(uint32) string, error) {
	l := loader.Loader{
		Log:              config.Log,
		Metrics:          registry,
		VerifySignatures: config.VerifySignatures,
	}

	var DB *memdb.Database
	var labels func(uint32) string
	var err error

	switch {
	case config.EdgeList != "":
		DB, _, err = l.EdgeListFile(ctx, config.EdgeList)
		if err != nil {
			return nil, nil, err
		}

	case config.FollowLists != "":
		events, err := ReadEvents(config.FollowLists)
		if err != nil {
			return nil, nil, err
		}

		DB = memdb.NewDatabase()
		index := loader.NewKeyIndex()
		stats, err := l.FollowLists(ctx, events, DB, index)
		if err != nil {
			return nil, nil, err
		}

		config.Log.Info("loaded %d follows by %d pubkeys from %s", stats.Follows, index.Len(), config.FollowLists)
		labels = index.Pubkey
	}

	if config.GraphStore != StoreRedis {
		return DB, labels, nil
	}

	cl := redisutils.SetupClient(config.RedisAddr)
	RDB, err := redisdb.NewDatabase(ctx, cl)
	if err != nil {
		return nil, nil, err
	}

	// the graph is rebuilt from scratch, so nothing from a previous run survives
	if err := RDB.Clear(ctx); err != nil {
		return nil, nil, err
	}

	copied, err := loader.Persist(ctx, DB, RDB, config.RedisBatchSize)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to persist the graph after %d edges: %w", copied, err)
	}

	config.Log.Info("persisted %d edges to redis at %s", copied, config.RedisAddr)
	return RDB, labels, nil
}

// ReadEvents() reads the nostr events in the file at path, one JSON event per line.
// Empty lines are ignored.
func ReadEvents(path string) ([]*nostr.Event, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open the events: %w", err)
	}
	defer file.Close()

	var events []*nostr.Event
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}

		event := &nostr.Event{}
		if err := json.Unmarshal(scanner.Bytes(), event); err != nil {
			return nil, fmt.Errorf("%s: line %d: %w", path, line, err)
		}
		events = append(events, event)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read the events: %w", err)
	}

	return events, nil
}
