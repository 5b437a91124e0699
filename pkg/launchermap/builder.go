package launchermap

import (
	"context"
	"fmt"
	"regexp"
	"sync"
)

// NFTRef is one collection member as listed by the marketplace.
type NFTRef struct {
	LauncherID string
	EncodedID  string
	Name       string
	// Edition is the edition number when the listing endpoint already
	// carried it; empty otherwise.
	Edition string
}

// NFTSource lists collection members and resolves individual NFTs. Implemented
// by the marketplace client; tests inject fakes.
type NFTSource interface {
	CollectionNFTs(ctx context.Context, collectionID string) ([]NFTRef, error)
	// NFTEdition fetches the edition number for a single NFT when the
	// listing did not include one.
	NFTEdition(ctx context.Context, launcherID string) (string, error)
}

// Logger abstracts logging so callers can use logrus, stdlib log, or any
// other logger that satisfies this interface.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Debugf(string, ...interface{}) {}

// BuildConfig holds everything Build needs for one map rebuild.
type BuildConfig struct {
	Source       NFTSource
	CollectionID string
	Concurrency  int    // defaults to 5 if <= 0
	Log          Logger // optional; nil = no logging
}

// editionFromName pulls the edition number out of names like "Tangy #123".
var editionFromName = regexp.MustCompile(`#\s*(\d+)\b`)

// Build walks the collection and reconstructs the internal-id → launcher-id
// map. Members whose edition is not in the listing are resolved individually
// through a bounded worker pool. NFTs that still cannot be attributed an
// edition are skipped with a warning; a map rebuild is best-effort per member
// but fatal when the listing itself fails.
func Build(ctx context.Context, cfg BuildConfig) (map[string]string, error) {
	log := cfg.Log
	if log == nil {
		log = nopLogger{}
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}

	refs, err := cfg.Source.CollectionNFTs(ctx, cfg.CollectionID)
	if err != nil {
		return nil, fmt.Errorf("listing collection %s: %w", cfg.CollectionID, err)
	}
	log.Infof("Collection %s has %d members", cfg.CollectionID, len(refs))

	pairs := make(map[string]string, len(refs))
	var needLookup []NFTRef

	for _, ref := range refs {
		if ref.LauncherID == "" {
			log.Warnf("Skipping member with no launcher id (name %q)", ref.Name)
			continue
		}
		if edition := refEdition(ref); edition != "" {
			pairs[edition] = ref.LauncherID
			continue
		}
		needLookup = append(needLookup, ref)
	}

	if len(needLookup) > 0 {
		log.Infof("Resolving %d members individually...", len(needLookup))
		resolveEditions(ctx, cfg.Source, needLookup, concurrency, pairs, log)
	}

	if len(pairs) == 0 {
		return nil, fmt.Errorf("collection %s: no members could be attributed an edition", cfg.CollectionID)
	}
	return pairs, nil
}

func refEdition(ref NFTRef) string {
	if ref.Edition != "" {
		return ref.Edition
	}
	if m := editionFromName.FindStringSubmatch(ref.Name); m != nil {
		return m[1]
	}
	return ""
}

// resolveEditions fetches editions for refs through a worker pool, collecting
// results under a mutex.
func resolveEditions(ctx context.Context, src NFTSource, refs []NFTRef, concurrency int, pairs map[string]string, log Logger) {
	refChan := make(chan NFTRef, len(refs))

	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ref := range refChan {
				edition, err := src.NFTEdition(ctx, ref.LauncherID)
				if err != nil {
					log.Warnf("Could not resolve edition for %s: %v", ref.LauncherID, err)
					continue
				}
				if edition == "" {
					log.Debugf("Member %s has no edition number", ref.LauncherID)
					continue
				}
				mu.Lock()
				pairs[edition] = ref.LauncherID
				mu.Unlock()
			}
		}()
	}

	for _, ref := range refs {
		refChan <- ref
	}
	close(refChan)
	wg.Wait()
}
