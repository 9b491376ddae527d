// Package resolve implements two-tier content matching against a record
// store: exact fingerprint lookup first, perceptual similarity as a
// fallback for image content.
package resolve

import (
	"context"
	"runtime"
	"sort"
	"sync"

	"github.com/chewton2k/Imprint/model"
	"github.com/chewton2k/Imprint/phash"
	"github.com/chewton2k/Imprint/store"
)

// Status classifies a resolution outcome.
type Status string

const (
	// StatusHashMatch means one or more records carry the exact content
	// fingerprint: unambiguous proof of identical bytes.
	StatusHashMatch Status = "HASH_MATCH"

	// StatusPerceptualMatch means no exact match existed but visually
	// similar records were found. A perceptual match is only a lead: the
	// caller must still verify the candidate record's signature.
	StatusPerceptualMatch Status = "PERCEPTUAL_MATCH"

	StatusNotFound Status = "NOT_FOUND"
)

// Match is one candidate record. Distance is the perceptual Hamming
// distance, 0 for exact matches.
type Match struct {
	Record   *model.ProvenanceRecord
	Distance int
}

// Result is an ordered resolution outcome. Exact matches are ordered by
// ascending signing time (earliest = presumptive original); perceptual
// matches by ascending distance.
type Result struct {
	Status  Status
	Matches []Match
}

// Resolver queries an injected record store. It holds no records and no
// caches itself.
type Resolver struct {
	Store store.Searcher

	// Threshold is the maximum perceptual distance counted as a match;
	// phash.DefaultThreshold when zero.
	Threshold int

	// Workers bounds the parallel distance fan-out; NumCPU when zero.
	Workers int
}

func New(s store.Searcher) *Resolver {
	return &Resolver{Store: s}
}

// Resolve looks up contentHash exactly and, only when that finds nothing,
// falls back to perceptual search with perceptualHash (skipped when empty,
// as for non-image content).
func (r *Resolver) Resolve(ctx context.Context, contentHash, perceptualHash string) (*Result, error) {
	exact, err := r.Store.FindByContentHash(ctx, contentHash)
	if err != nil {
		return nil, err
	}
	if len(exact) > 0 {
		matches := make([]Match, len(exact))
		for i, rec := range exact {
			matches[i] = Match{Record: rec}
		}
		return &Result{Status: StatusHashMatch, Matches: matches}, nil
	}

	if perceptualHash == "" {
		return &Result{Status: StatusNotFound}, nil
	}

	candidates, err := r.Store.FindAllWithPerceptualHash(ctx)
	if err != nil {
		return nil, err
	}
	matches := r.scanPerceptual(candidates, perceptualHash)
	if len(matches) == 0 {
		return &Result{Status: StatusNotFound}, nil
	}
	return &Result{Status: StatusPerceptualMatch, Matches: matches}, nil
}

// scanPerceptual computes distances across candidates in parallel. Each
// computation is independent, so the only coordination is the index feed.
func (r *Resolver) scanPerceptual(candidates []*model.ProvenanceRecord, queryHash string) []Match {
	threshold := r.Threshold
	if threshold <= 0 {
		threshold = phash.DefaultThreshold
	}
	workers := r.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(candidates) {
		workers = len(candidates)
	}

	distances := make([]int, len(candidates))
	idx := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				d, err := phash.Distance(queryHash, candidates[i].PerceptualHash)
				if err != nil {
					d = -1 // incomparable, never a match
				}
				distances[i] = d
			}
		}()
	}
	for i := range candidates {
		idx <- i
	}
	close(idx)
	wg.Wait()

	var matches []Match
	for i, d := range distances {
		if d < 0 || d > threshold {
			continue
		}
		matches = append(matches, Match{Record: candidates[i], Distance: d})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		ti, _ := matches[i].Record.SignedAtTime()
		tj, _ := matches[j].Record.SignedAtTime()
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return matches[i].Record.ID < matches[j].Record.ID
	})
	return matches
}
