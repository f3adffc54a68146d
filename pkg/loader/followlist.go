package loader

import (
	"context"
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/nbd-wtf/go-nostr"
	"github.com/vertex-lab/gossip/pkg/models"
)

// KeyIndex maps nostr pubkeys to dense nodeIDs, assigned in first-seen order.
type KeyIndex struct {
	ids     map[string]uint32
	pubkeys []string
}

func NewKeyIndex() *KeyIndex {
	return &KeyIndex{ids: make(map[string]uint32)}
}

// ID() returns the nodeID of pubkey, assigning the next free one if pubkey is new.
func (k *KeyIndex) ID(pubkey string) uint32 {
	if ID, exists := k.ids[pubkey]; exists {
		return ID
	}

	ID := uint32(len(k.pubkeys))
	k.ids[pubkey] = ID
	k.pubkeys = append(k.pubkeys, pubkey)
	return ID
}

// Lookup() returns the nodeID of pubkey and whether it has been indexed.
func (k *KeyIndex) Lookup(pubkey string) (uint32, bool) {
	ID, exists := k.ids[pubkey]
	return ID, exists
}

// Pubkey() returns the pubkey associated with nodeID, or "" if there is none.
func (k *KeyIndex) Pubkey(nodeID uint32) string {
	if int(nodeID) >= len(k.pubkeys) {
		return ""
	}
	return k.pubkeys[nodeID]
}

func (k *KeyIndex) Len() int {
	return len(k.pubkeys)
}

// FollowStats reports what happened while loading follow lists.
type FollowStats struct {
	Events  int // events received
	Skipped int // events that are not valid follow lists
	Stale   int // follow lists replaced by a newer one of the same author
	Follows int // follow edges added to the graph
}

// LoadFollowLists() adds the follow lists to G with a silent Loader, returning
// the KeyIndex that maps each pubkey to its nodeID.
func LoadFollowLists(ctx context.Context, events []*nostr.Event, G models.EdgeAdder) (*KeyIndex, FollowStats, error) {
	index := NewKeyIndex()
	stats, err := (&Loader{}).FollowLists(ctx, events, G, index)
	return index, stats, err
}

/*
FollowLists() adds to G an undirected edge between the author of each follow
list (kind 3) and each pubkey it follows. Pubkeys are mapped to nodeIDs using
index, which must not be nil.

Events of other kinds, with an invalid author, or (if VerifySignatures is set)
with an invalid signature are skipped. When an author has more than one follow
list, only the most recent is used.
*/
func (l *Loader) FollowLists(ctx context.Context, events []*nostr.Event,
	G models.EdgeAdder, index *KeyIndex) (FollowStats, error) {

	stats := FollowStats{Events: len(events)}
	if G == nil {
		return stats, models.ErrNilDBPointer
	}

	if index == nil {
		return stats, ErrNilKeyIndex
	}

	latest := make(map[string]*nostr.Event, len(events))
	authors := make([]string, 0, len(events))

	for _, event := range events {
		if !l.isValidFollowList(event) {
			stats.Skipped++
			continue
		}

		old, exists := latest[event.PubKey]
		if !exists {
			latest[event.PubKey] = event
			authors = append(authors, event.PubKey)
			continue
		}

		stats.Stale++
		if event.CreatedAt > old.CreatedAt {
			latest[event.PubKey] = event
		}
	}

	for _, author := range authors {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		follows := ParsePubkeys(latest[author].Tags)
		if len(follows) == 0 {
			continue
		}

		authorID := index.ID(author)
		for _, pubkey := range follows {
			if err := G.AddEdge(ctx, authorID, index.ID(pubkey)); err != nil {
				return stats, fmt.Errorf("failed to add the follows of %s: %w", author, err)
			}
			stats.Follows++
		}
	}

	if stats.Skipped > 0 {
		l.Log.Warn("skipped %d events out of %d that are not valid follow lists", stats.Skipped, stats.Events)
	}

	l.Metrics.RecordLoad(stats.Follows, stats.Skipped)
	return stats, nil
}

func (l *Loader) isValidFollowList(event *nostr.Event) bool {
	if event == nil || event.Kind != nostr.KindContactList {
		return false
	}

	if !nostr.IsValidPublicKey(event.PubKey) {
		return false
	}

	if l.VerifySignatures {
		match, err := event.CheckSignature()
		if err != nil || !match {
			return false
		}
	}

	return true
}

// ParsePubkeys returns the pubkeys that are correctly listed in the nostr.Tags,
// without duplicates and in order of appearance. Badly formatted tags are ignored.
func ParsePubkeys(tags nostr.Tags) []string {
	const followPrefix = "p"

	seen := mapset.NewThreadUnsafeSetWithSize[string](len(tags))
	pubkeys := make([]string, 0, len(tags))
	for _, tag := range tags {

		if len(tag) < 2 {
			continue
		}

		if tag[0] != followPrefix {
			continue
		}

		if !nostr.IsValidPublicKey(tag[1]) {
			continue
		}

		if !seen.Add(tag[1]) {
			continue
		}

		pubkeys = append(pubkeys, tag[1])
	}

	return pubkeys
}
