package metric

import (
	"fmt"
	"testing"

	"github.com/huangsam/trustscore/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func repeatAuthor(author string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = author
	}
	return out
}

func TestBusFactor(t *testing.T) {
	var concentrated []string
	concentrated = append(concentrated, repeatAuthor("A", 90)...)
	concentrated = append(concentrated, repeatAuthor("B", 5)...)
	concentrated = append(concentrated, repeatAuthor("C", 5)...)

	var crowd []string
	for i := range 200 {
		crowd = append(crowd, fmt.Sprintf("dev-%03d", i))
	}

	tests := []struct {
		name     string
		authors  []string
		expected float64
	}{
		{"single author", []string{"A", "A", "A"}, 0},
		{"one dominant author", concentrated, 0.1},
		{"even pair", []string{"A", "B"}, 0.5},
		{"two hundred authors drop the top two", crowd, 0.99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BusFactor(commitsBy(tt.authors...))
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}

func TestBusFactorInsufficientData(t *testing.T) {
	_, err := BusFactor(nil)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestBusFactorBounds(t *testing.T) {
	samples := [][]schema.Commit{
		commitsBy("A"),
		commitsBy("A", "B", "C", "A"),
		commitsBy(repeatAuthor("Z", 50)...),
	}
	for _, commits := range samples {
		got, err := BusFactor(commits)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 1.0)
	}
}
