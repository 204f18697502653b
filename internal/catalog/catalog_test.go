package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchNoFilter(t *testing.T) {
	c := New()
	grants := c.Search(Filter{})

	require.Len(t, grants, 5)
	for i := 1; i < len(grants); i++ {
		assert.False(t, grants[i].Deadline.Before(grants[i-1].Deadline), "sorted by deadline")
	}
	assert.Equal(t, "grant-003", grants[0].ID, "nearest deadline first")
}

func TestSearchFilters(t *testing.T) {
	c := New()

	byKeyword := c.Search(Filter{Keywords: "research"})
	require.NotEmpty(t, byKeyword)
	for _, g := range byKeyword {
		assert.Contains(t, g.Title+g.Description, "research")
	}

	byCategory := c.Search(Filter{Category: "environment"})
	require.Len(t, byCategory, 1)
	assert.Equal(t, "grant-005", byCategory[0].ID)

	byAmount := c.Search(Filter{MaxAmount: 150000})
	for _, g := range byAmount {
		assert.LessOrEqual(t, g.Amount, 150000)
	}

	byDeadline := c.Search(Filter{DeadlineAfter: time.Now().Add(80 * 24 * time.Hour)})
	require.Len(t, byDeadline, 1)
	assert.Equal(t, "grant-004", byDeadline[0].ID)
}

func TestSearchKeywordCaseInsensitive(t *testing.T) {
	c := New()
	assert.NotEmpty(t, c.Search(Filter{Keywords: "RESEARCH"}))
}

func TestSearchLimit(t *testing.T) {
	c := New()
	assert.Len(t, c.Search(Filter{Limit: 2}), 2)
}

func TestGet(t *testing.T) {
	c := New()

	d, ok := c.Get("grant-002")
	require.True(t, ok)
	assert.Equal(t, "Research and Innovation Grant", d.Title)
	assert.NotEmpty(t, d.SuccessFactors)
	for _, similar := range d.SimilarGrants {
		assert.Equal(t, d.Category, similar.Category)
		assert.NotEqual(t, d.ID, similar.ID)
	}

	_, ok = c.Get("grant-999")
	assert.False(t, ok)
}
