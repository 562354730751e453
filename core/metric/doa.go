package metric

import (
	"math"
	"sort"

	"github.com/huangsam/trustscore/schema"
)

// Degree-of-authorship coefficients.
const (
	doaBase        = 3.293
	doaFirstAuthor = 1.098
	doaDeliveries  = 0.164
	doaAcceptances = 0.321

	// An author needs at least this share of the top DOA to count as a key author.
	keyAuthorShare = 0.75
)

// AuthorshipScore is the DOA of one author over a commit sequence.
type AuthorshipScore struct {
	Author     string
	DOA        float64
	Normalized float64 // DOA divided by the highest DOA in the sequence
}

// DOA estimates how much author owns the history in commits.
// Commits must be ordered earliest first.
func DOA(author string, commits []schema.Commit) float64 {
	dl := 0
	for _, c := range commits {
		if c.Identity() == author {
			dl++
		}
	}
	first := len(commits) > 0 && commits[0].Identity() == author
	return doa(first, dl, len(commits)-dl)
}

func doa(firstAuthor bool, deliveries, acceptances int) float64 {
	fa := 0.0
	if firstAuthor {
		fa = 1
	}
	return doaBase + doaFirstAuthor*fa + doaDeliveries*float64(deliveries) - doaAcceptances*math.Log1p(float64(acceptances))
}

// Authorship computes the DOA of every author, highest first, in one pass
// over commits.
func Authorship(commits []schema.Commit) []AuthorshipScore {
	deliveries := make(map[string]int)
	var order []string
	for _, c := range commits {
		id := c.Identity()
		if _, ok := deliveries[id]; !ok {
			order = append(order, id)
		}
		deliveries[id]++
	}

	scores := make([]AuthorshipScore, 0, len(order))
	for i, id := range order {
		dl := deliveries[id]
		scores = append(scores, AuthorshipScore{Author: id, DOA: doa(i == 0, dl, len(commits)-dl)})
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].DOA != scores[j].DOA {
			return scores[i].DOA > scores[j].DOA
		}
		return scores[i].Author < scores[j].Author
	})

	if len(scores) > 0 {
		top := scores[0].DOA
		for i := range scores {
			scores[i].Normalized = scores[i].DOA / top
		}
	}
	return scores
}

// KeyAuthors returns the authors that own the history: a normalized DOA of at
// least 0.75 and an absolute DOA no lower than the baseline.
func KeyAuthors(commits []schema.Commit) []string {
	var authors []string
	for _, s := range Authorship(commits) {
		if s.Normalized >= keyAuthorShare && s.DOA >= doaBase {
			authors = append(authors, s.Author)
		}
	}
	return authors
}
