package models

import (
	"time"
)

// Record is a single semi-structured record from a source dataset.
// Fields maps field name to string value; a missing field is treated as
// the empty string, never null. Records are immutable once loaded.
type Record struct {
	ID        string            `json:"id" db:"id"`
	Dataset   string            `json:"dataset" db:"dataset"`
	Fields    map[string]string `json:"fields" db:"-"`
	CreatedAt time.Time         `json:"created_at" db:"created_at"`
}

// Field returns the value of the named field, or "" when absent.
func (r *Record) Field(name string) string {
	if r.Fields == nil {
		return ""
	}
	return r.Fields[name]
}

// CandidatePair is an unordered pair of records selected by blocking.
// A.ID is strictly less than B.ID, which rules out self-pairs and
// duplicate orientations.
type CandidatePair struct {
	A *Record
	B *Record
}

// ScoredPair is a candidate pair carrying its log-likelihood ratio.
// The score may be negative; infinities never occur (degenerate terms
// are skipped by the scorer).
type ScoredPair struct {
	A     *Record `json:"-"`
	B     *Record `json:"-"`
	AID   string  `json:"a_id"`
	BID   string  `json:"b_id"`
	Score float64 `json:"score"`
}

// ClusterSnapshot maps a cluster root id to its member record ids.
// Singletons appear as one-element lists.
type ClusterSnapshot map[string][]string

// LinkResult is the outcome of a full linkage run.
type LinkResult struct {
	Clusters    ClusterSnapshot `json:"clusters"`
	PairsScored int             `json:"pairs_scored"`
	PairsMerged int             `json:"pairs_merged"`
	MProbs      []float64       `json:"m_probs,omitempty"`
	UProbs      []float64       `json:"u_probs,omitempty"`
}
