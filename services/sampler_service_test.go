package services

import (
	"fmt"
	"strings"
	"testing"

	"redmatch_server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makePosts(prefix string, lengths ...int) []models.Post {
	posts := make([]models.Post, 0, len(lengths))
	for i, n := range lengths {
		seed := fmt.Sprintf("%s-%d-", prefix, i)
		text := seed + strings.Repeat("x", n)
		posts = append(posts, models.Post{Text: text, Kind: models.PostKindComment})
	}
	return posts
}

func TestSamplePairs_EmptyInputs(t *testing.T) {
	s := NewSamplerService(1)
	posts := makePosts("a", 20, 30)

	assert.Empty(t, s.SamplePairs(nil, posts, 10))
	assert.Empty(t, s.SamplePairs(posts, nil, 10))
	assert.Empty(t, s.SamplePairs(nil, nil, 10))
}

func TestSamplePairs_NeverExceedsTarget(t *testing.T) {
	s := NewSamplerService(42)
	postsA := makePosts("a", 10, 20, 30, 40, 50, 60)
	postsB := makePosts("b", 15, 25, 35, 45, 55)

	for _, target := range []int{10, 15, 30} {
		pairs := s.SamplePairs(postsA, postsB, target)
		assert.LessOrEqual(t, len(pairs), target, "target %d", target)
		assert.NotEmpty(t, pairs)
	}
}

func TestSamplePairs_SmallCrossProduct(t *testing.T) {
	s := NewSamplerService(7)
	postsA := makePosts("a", 20)
	postsB := makePosts("b", 20, 30)

	// cross product of 2 is far below the target; shorter result is fine
	pairs := s.SamplePairs(postsA, postsB, 10)
	assert.LessOrEqual(t, len(pairs), 2)
	assert.NotEmpty(t, pairs)
}

func TestLongestPairs_DeterministicOrder(t *testing.T) {
	postsA := makePosts("a", 5, 100)
	postsB := makePosts("b", 10, 200)

	var cross []models.Pair
	for _, a := range postsA {
		for _, b := range postsB {
			cross = append(cross, models.Pair{A: a, B: b})
		}
	}

	top := longestPairs(cross, 3)
	require.Len(t, top, 3)

	for i := 1; i < len(top); i++ {
		prev := len(top[i-1].A.Text) + len(top[i-1].B.Text)
		curr := len(top[i].A.Text) + len(top[i].B.Text)
		assert.GreaterOrEqual(t, prev, curr)
	}

	// repeated calls give the identical sequence
	assert.Equal(t, top, longestPairs(cross, 3))
}

func TestLongestPairs_TiesKeepCrossProductOrder(t *testing.T) {
	postsA := makePosts("a", 30, 30)
	postsB := makePosts("b", 30)

	var cross []models.Pair
	for _, a := range postsA {
		for _, b := range postsB {
			cross = append(cross, models.Pair{A: a, B: b})
		}
	}

	top := longestPairs(cross, 2)
	require.Len(t, top, 2)
	assert.Equal(t, cross[0], top[0])
	assert.Equal(t, cross[1], top[1])
}

func TestSamplePairs_DeterministicForFixedSeed(t *testing.T) {
	postsA := makePosts("a", 10, 20, 30, 40)
	postsB := makePosts("b", 15, 25, 35)

	first := NewSamplerService(99).SamplePairs(postsA, postsB, 10)
	second := NewSamplerService(99).SamplePairs(postsA, postsB, 10)
	assert.Equal(t, first, second)
}

func TestDedupePairs_CollapsesMatchingPrefixes(t *testing.T) {
	long := strings.Repeat("y", 80)
	a1 := models.Post{Text: long + " tail one"}
	a2 := models.Post{Text: long + " tail two"} // same 50-char prefix as a1
	b := models.Post{Text: "short and distinct post body"}

	deduped := dedupePairs([]models.Pair{{A: a1, B: b}, {A: a2, B: b}})
	require.Len(t, deduped, 1)
	assert.Equal(t, a1.Text, deduped[0].A.Text)
}

func TestDedupePairs_PreservesFirstSeenOrder(t *testing.T) {
	p1 := models.Pair{A: models.Post{Text: "first post from user a"}, B: models.Post{Text: "first post from user b"}}
	p2 := models.Pair{A: models.Post{Text: "second post from user a"}, B: models.Post{Text: "second post from user b"}}

	deduped := dedupePairs([]models.Pair{p1, p2, p1})
	require.Len(t, deduped, 2)
	assert.Equal(t, p1, deduped[0])
	assert.Equal(t, p2, deduped[1])
}
