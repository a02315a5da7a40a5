// Package analyzer groups solution findings into fuzzy-similar clusters
// so a campaign that repeatedly triggers the same underlying bug through
// slightly different inputs reports it once, not once per input.
package analyzer

import (
	"fmt"
	"sort"
	"sync"

	"github.com/movefuzz/movefuzz/internal/parallel"
	"github.com/movefuzz/movefuzz/internal/report"
)

// DedupConfig configures the fuzzy-dedup pass.
type DedupConfig struct {
	// TLSH groups findings whose signature text clusters within this
	// distance of each other. Findings shorter than TLSHConfig.MinDataSize
	// bytes fall back to exact signature matching instead.
	TLSH *TLSHConfig

	// Workers bounds the goroutine pool used to compute each finding's
	// hash (the pairwise comparisons run serially afterwards); zero picks
	// ants' own default.
	Workers int
}

// DefaultDedupConfig returns sensible defaults.
func DefaultDedupConfig() *DedupConfig {
	return &DedupConfig{
		TLSH:    DefaultTLSHConfig(),
		Workers: 0,
	}
}

// Cluster is one group of findings judged to be the same underlying bug.
type Cluster struct {
	// Representative is the first (and typically lowest-severity-ID)
	// finding in the cluster, kept as the one surfaced in reports.
	Representative report.Finding

	// Members holds every finding folded into this cluster, including
	// Representative itself.
	Members []report.Finding
}

// FindingDeduplicator clusters report.Finding values by fuzzy similarity
// of their textual signature (function, outcome, abort code, detail).
type FindingDeduplicator struct {
	config   *DedupConfig
	analyzer *TLSHAnalyzer
}

// NewFindingDeduplicator builds a deduplicator. A nil config uses
// DefaultDedupConfig.
func NewFindingDeduplicator(config *DedupConfig) *FindingDeduplicator {
	if config == nil {
		config = DefaultDedupConfig()
	}
	return &FindingDeduplicator{
		config:   config,
		analyzer: NewTLSHAnalyzer(config.TLSH),
	}
}

// signature builds the text a finding is fuzzy-hashed on. Timestamp and
// ID are excluded deliberately: two findings differing only in when or
// which iteration produced them are still the same bug.
func signature(f report.Finding) string {
	return fmt.Sprintf("%s|%s|%d|%s", f.Function, f.Outcome, f.AbortCode, f.Detail)
}

type hashedFinding struct {
	finding report.Finding
	sig     string
	hash    *TLSHHash // nil when sig was too short to hash
}

// Dedup clusters findings, returning one Cluster per distinct bug. Order
// is stable: clusters appear in first-seen order of their representative.
func (d *FindingDeduplicator) Dedup(findings []report.Finding) ([]Cluster, error) {
	if len(findings) == 0 {
		return nil, nil
	}

	hashed := make([]hashedFinding, len(findings))

	pool, err := parallel.NewAntsPool(d.config.Workers)
	if err != nil {
		return nil, fmt.Errorf("build dedup worker pool: %w", err)
	}
	defer pool.Release()

	var mu sync.Mutex
	fns := make([]func(), len(findings))
	for i, f := range findings {
		i, f := i, f
		fns[i] = func() {
			sig := signature(f)
			hash, _ := d.analyzer.ComputeHashString(sig)
			mu.Lock()
			hashed[i] = hashedFinding{finding: f, sig: sig, hash: hash}
			mu.Unlock()
		}
	}
	if err := pool.Wait(fns...); err != nil {
		return nil, fmt.Errorf("compute finding hashes: %w", err)
	}

	var clusters []Cluster
	assigned := make([]bool, len(hashed))

	for i := range hashed {
		if assigned[i] {
			continue
		}
		assigned[i] = true
		cluster := Cluster{Representative: hashed[i].finding, Members: []report.Finding{hashed[i].finding}}

		for j := i + 1; j < len(hashed); j++ {
			if assigned[j] {
				continue
			}
			if d.similar(hashed[i], hashed[j]) {
				assigned[j] = true
				cluster.Members = append(cluster.Members, hashed[j].finding)
			}
		}
		clusters = append(clusters, cluster)
	}

	return clusters, nil
}

// similar reports whether a and b are the same bug: fuzzy-close TLSH
// hashes when both were computed, otherwise an exact signature match.
func (d *FindingDeduplicator) similar(a, b hashedFinding) bool {
	if a.hash != nil && b.hash != nil {
		return a.hash.Distance(b.hash) <= d.config.TLSH.SimilarityThreshold
	}
	return a.sig == b.sig
}

// Summarize reduces a finding list straight to its cluster
// representatives, sorted by severity (most severe first) then by ID —
// the shape a report.Report's Findings field wants after dedup.
func (d *FindingDeduplicator) Summarize(findings []report.Finding) ([]report.Finding, error) {
	clusters, err := d.Dedup(findings)
	if err != nil {
		return nil, err
	}

	reps := make([]report.Finding, 0, len(clusters))
	for _, c := range clusters {
		reps = append(reps, c.Representative)
	}

	sort.SliceStable(reps, func(i, j int) bool {
		si, sj := severityRank(reps[i].Severity), severityRank(reps[j].Severity)
		if si != sj {
			return si < sj
		}
		return reps[i].ID < reps[j].ID
	})

	return reps, nil
}

func severityRank(s report.Severity) int {
	switch s {
	case report.SeverityCritical:
		return 0
	case report.SeverityHigh:
		return 1
	case report.SeverityMedium:
		return 2
	default:
		return 3
	}
}
