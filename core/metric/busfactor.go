package metric

import (
	"math"
	"sort"

	"github.com/huangsam/trustscore/schema"
)

// BusFactor scores how evenly commits spread across authors. The top 1% of
// authors (at least one) are removed and the remaining share of commits is
// the score, so 0 means one author wrote everything.
func BusFactor(commits []schema.Commit) (float64, error) {
	if len(commits) == 0 {
		return 0, ErrInsufficientData
	}

	counts := make(map[string]int)
	for _, c := range commits {
		counts[c.Identity()]++
	}

	perAuthor := make([]int, 0, len(counts))
	for _, n := range counts {
		perAuthor = append(perAuthor, n)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(perAuthor)))

	k := int(math.Ceil(float64(len(perAuthor)) / 100))
	k = max(k, 1)

	top := 0
	for _, n := range perAuthor[:k] {
		top += n
	}
	return schema.Clamp01(1 - float64(top)/float64(len(commits))), nil
}
