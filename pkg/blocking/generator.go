package blocking

import (
	"context"
	"sync"

	"github.com/Ramsey-B/clover/pkg/models"
)

// Generator streams candidate pairs over a record set in contiguous
// batches. Pair order is batch-sequential; pairs inside a batch are
// accumulated in parallel and emitted in record order.
type Generator struct {
	records   []*models.Record
	rules     []Rule
	batchSize int
}

// NewGenerator creates a Generator. A non-positive batch size falls back
// to the full record count.
func NewGenerator(records []*models.Record, rules []Rule, batchSize int) *Generator {
	if batchSize <= 0 {
		batchSize = len(records)
	}
	return &Generator{
		records:   records,
		rules:     rules,
		batchSize: batchSize,
	}
}

// Pairs returns a lazy stream of candidate pairs. For every emitted pair,
// A.ID < B.ID and at least one rule produced the same key on both sides.
// The channel closes when the record set is exhausted or ctx is done.
func (g *Generator) Pairs(ctx context.Context) <-chan models.CandidatePair {
	out := make(chan models.CandidatePair)

	go func() {
		defer close(out)

		for start := 0; start < len(g.records); start += g.batchSize {
			end := min(start+g.batchSize, len(g.records))

			for _, pairs := range g.collectBatch(start, end) {
				for _, pair := range pairs {
					select {
					case out <- pair:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	return out
}

// collectBatch pairs every record in [start, end) against the full record
// list, one worker per batch record, each filling a private slice.
func (g *Generator) collectBatch(start, end int) [][]models.CandidatePair {
	batchPairs := make([][]models.CandidatePair, end-start)

	var wg sync.WaitGroup
	for i := start; i < end; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			batchPairs[i-start] = g.pairsFor(g.records[i])
		}(i)
	}
	wg.Wait()

	return batchPairs
}

// pairsFor scans the full record list for candidates of a. The id
// ordering predicate gives each unordered pair a single canonical
// orientation and rules out self-pairs.
func (g *Generator) pairsFor(a *models.Record) []models.CandidatePair {
	var pairs []models.CandidatePair

	keys := make([]string, len(g.rules))
	valid := make([]bool, len(g.rules))
	for ri, rule := range g.rules {
		keys[ri], valid[ri] = keyOf(rule, a)
	}

	for _, b := range g.records {
		if a.ID >= b.ID {
			continue
		}
		// Any-rule disjunction; the short-circuit keeps a pair matched by
		// several rules from appearing more than once.
		for ri, rule := range g.rules {
			if !valid[ri] {
				continue
			}
			keyB, ok := keyOf(rule, b)
			if !ok || keyB != keys[ri] {
				continue
			}
			pairs = append(pairs, models.CandidatePair{A: a, B: b})
			break
		}
	}

	return pairs
}
