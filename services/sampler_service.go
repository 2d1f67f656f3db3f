package services

import (
	"math/rand"
	"sort"
	"sync"

	"redmatch_server/models"
	"redmatch_server/utils"
)

// length of the per-side text prefix used to deduplicate near-identical pairs
const dedupePrefixLen = 50

// SamplerService selects a bounded, hybrid sample of cross-user post pairs:
// half chosen uniformly at random for topic breadth, half by combined text
// length for substance. This bounds model input cost while keeping both
// variety and meaty content in the prompt.
type SamplerService struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSamplerService creates a sampler seeded for this process. Tests pass a
// fixed seed for determinism.
func NewSamplerService(seed int64) *SamplerService {
	return &SamplerService{rng: rand.New(rand.NewSource(seed))}
}

// SamplePairs returns up to targetCount pairs from the cross product of the
// two post sets. The result may legitimately be shorter than targetCount when
// the cross product is small or deduplication collapses entries; it is empty
// only when either input is empty.
func (s *SamplerService) SamplePairs(postsA, postsB []models.Post, targetCount int) []models.Pair {
	if len(postsA) == 0 || len(postsB) == 0 || targetCount <= 0 {
		return nil
	}

	cross := make([]models.Pair, 0, len(postsA)*len(postsB))
	for _, a := range postsA {
		for _, b := range postsB {
			cross = append(cross, models.Pair{A: a, B: b})
		}
	}

	half := targetCount / 2
	n := half
	if len(cross) < n {
		n = len(cross)
	}

	diversity := s.randomPairs(cross, n)
	substance := longestPairs(cross, n)

	combined := append(diversity, substance...)
	deduped := dedupePairs(combined)

	if len(deduped) > targetCount {
		deduped = deduped[:targetCount]
	}
	return deduped
}

// randomPairs picks n pairs uniformly without replacement.
func (s *SamplerService) randomPairs(cross []models.Pair, n int) []models.Pair {
	s.mu.Lock()
	perm := s.rng.Perm(len(cross))
	s.mu.Unlock()

	picked := make([]models.Pair, 0, n)
	for _, idx := range perm[:n] {
		picked = append(picked, cross[idx])
	}
	return picked
}

// longestPairs picks the n pairs with the greatest combined text length,
// ties broken by cross-product order.
func longestPairs(cross []models.Pair, n int) []models.Pair {
	sorted := make([]models.Pair, len(cross))
	copy(sorted, cross)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].A.Text)+len(sorted[i].B.Text) > len(sorted[j].A.Text)+len(sorted[j].B.Text)
	})
	return sorted[:n]
}

// dedupePairs collapses pairs whose 50-char text prefixes match on both
// sides, preserving first-seen order.
func dedupePairs(pairs []models.Pair) []models.Pair {
	seen := make(map[string]bool, len(pairs))
	out := make([]models.Pair, 0, len(pairs))
	for _, p := range pairs {
		key := utils.Truncate(p.A.Text, dedupePrefixLen) + "|" + utils.Truncate(p.B.Text, dedupePrefixLen)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}
