package metric

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/huangsam/trustscore/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// commitsBy builds a chronological commit sequence, one hour apart.
func commitsBy(authors ...string) []schema.Commit {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	commits := make([]schema.Commit, len(authors))
	for i, a := range authors {
		commits[i] = schema.Commit{Author: a, Time: base.Add(time.Duration(i) * time.Hour)}
	}
	return commits
}

func TestDOA(t *testing.T) {
	commits := commitsBy("A", "A", "B")

	tests := []struct {
		name     string
		author   string
		commits  []schema.Commit
		expected float64
	}{
		{"empty history", "A", nil, 3.293},
		{"first author", "A", commits, 3.293 + 1.098 + 0.164*2 - 0.321*math.Log(2)},
		{"later author", "B", commits, 3.293 + 0.164 - 0.321*math.Log(3)},
		{"absent author", "C", commits, 3.293 - 0.321*math.Log(4)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, DOA(tt.author, tt.commits), 1e-9)
		})
	}
}

func TestAuthorship(t *testing.T) {
	scores := Authorship(commitsBy("A", "A", "B"))
	require.Len(t, scores, 2)
	assert.Equal(t, "A", scores[0].Author)
	assert.InDelta(t, 1.0, scores[0].Normalized, 1e-9)
	assert.Less(t, scores[1].Normalized, 0.75)

	assert.Empty(t, Authorship(nil))
}

func TestAuthorshipMatchesDOA(t *testing.T) {
	authors := make([]string, 0, 500)
	for i := range 500 {
		authors = append(authors, fmt.Sprintf("dev%d", i%7))
	}
	commits := commitsBy(authors...)

	scores := Authorship(commits)
	require.Len(t, scores, 7)
	for _, s := range scores {
		assert.InDelta(t, DOA(s.Author, commits), s.DOA, 1e-9, s.Author)
	}
	assert.Equal(t, "dev0", scores[0].Author, "first author with the most deliveries")
}

func TestKeyAuthors(t *testing.T) {
	assert.Equal(t, []string{"A"}, KeyAuthors(commitsBy("A", "A", "B")))
	assert.Equal(t, []string{"A", "B"}, KeyAuthors(commitsBy("A", "B", "B")))
	assert.Equal(t, []string{"A"}, KeyAuthors(commitsBy("A", "B", "A", "B")))
	assert.Empty(t, KeyAuthors(nil))
}

func TestDOAUsesLogin(t *testing.T) {
	commits := []schema.Commit{
		{Author: "Jane Doe", Login: "jdoe"},
		{Author: "Jane D.", Login: "jdoe"},
	}
	assert.InDelta(t, 3.293+1.098+0.164*2, DOA("jdoe", commits), 1e-9)
}
