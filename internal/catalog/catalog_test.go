package catalog

import (
	"context"
	"testing"

	"github.com/fjod/holiday-rush/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCatalog() *Catalog {
	return New(NewMemoryRepository(DefaultProducts()))
}

func ids(products []domain.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func TestFindByID_ReturnsProduct(t *testing.T) {
	c := newTestCatalog()

	p, err := c.FindByID(context.Background(), "1")

	require.NoError(t, err)
	assert.Equal(t, "Cozy Winter Sweater", p.Name)
	assert.Equal(t, "89.99", p.Price.String())
	assert.Equal(t, 25, p.Stock)
}

func TestFindByID_NotFound(t *testing.T) {
	c := newTestCatalog()

	p, err := c.FindByID(context.Background(), "404")

	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.Nil(t, p)
}

func TestFilterByCategory(t *testing.T) {
	c := newTestCatalog()
	ctx := context.Background()

	decorations, err := c.FilterByCategory(ctx, "decorations")
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "6", "10"}, ids(decorations))

	all, err := c.FilterByCategory(ctx, AllCategories)
	require.NoError(t, err)
	assert.Len(t, all, 12)

	none, err := c.FilterByCategory(ctx, "garden")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestFilterFeatured(t *testing.T) {
	c := newTestCatalog()

	featured, err := c.FilterFeatured(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "5"}, ids(featured))
}

func TestSearch_MatchesNameDescriptionAndTags(t *testing.T) {
	c := newTestCatalog()
	ctx := context.Background()

	byName, err := c.Search(ctx, "COZY")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "7"}, ids(byName))

	byDescription, err := c.Search(ctx, "nutmeg")
	require.NoError(t, err)
	assert.Equal(t, []string{"11"}, ids(byDescription))

	byTag, err := c.Search(ctx, "handcrafted")
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, ids(byTag))

	byTagOnly, err := c.Search(ctx, "warm drink")
	require.NoError(t, err)
	assert.Equal(t, []string{"5"}, ids(byTagOnly))
}

func TestQuery_Paginates(t *testing.T) {
	c := newTestCatalog()
	ctx := context.Background()

	first, err := c.Query(ctx, Filter{Category: "food", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"5", "9"}, ids(first.Products))
	assert.Equal(t, 3, first.Total)
	assert.Equal(t, 2, first.Count)
	assert.True(t, first.HasMore)

	second, err := c.Query(ctx, Filter{Category: "food", Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"11"}, ids(second.Products))
	assert.Equal(t, 2, second.Offset)
	assert.False(t, second.HasMore)
}

func TestQuery_NoLimitReturnsRest(t *testing.T) {
	c := newTestCatalog()

	page, err := c.Query(context.Background(), Filter{Offset: 10})

	require.NoError(t, err)
	assert.Equal(t, []string{"11", "12"}, ids(page.Products))
	assert.Equal(t, 12, page.Total)
	assert.False(t, page.HasMore)
}

func TestQuery_OffsetOutOfRange(t *testing.T) {
	c := newTestCatalog()

	page, err := c.Query(context.Background(), Filter{Offset: 100, Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, page.Products)
	assert.Equal(t, 12, page.Offset)

	page, err = c.Query(context.Background(), Filter{Offset: -3, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, ids(page.Products))
	assert.Equal(t, 0, page.Offset)
}

func TestQuery_CombinesFilters(t *testing.T) {
	c := newTestCatalog()

	page, err := c.Query(context.Background(), Filter{Category: "decorations", Featured: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, ids(page.Products))

	page, err = c.Query(context.Background(), Filter{Featured: true, Search: "winter"})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "5"}, ids(page.Products))
}

func TestCategories_Counts(t *testing.T) {
	c := newTestCatalog()

	cats, err := c.Categories(context.Background())
	require.NoError(t, err)

	counts := make(map[string]int)
	for _, cat := range cats {
		counts[cat.ID] = cat.Count
	}
	assert.Equal(t, "all", cats[0].ID)
	assert.Equal(t, 12, counts["all"])
	assert.Equal(t, 3, counts["decorations"])
	assert.Equal(t, 3, counts["food"])
	assert.Equal(t, 2, counts["home"])
	assert.Equal(t, 1, counts["entertainment"])
	assert.Len(t, cats, 8)
}

func TestCategories_AppendsUnknown(t *testing.T) {
	products := []domain.Product{{ID: "x", Category: "garden"}}
	c := New(NewMemoryRepository(products))

	cats, err := c.Categories(context.Background())
	require.NoError(t, err)

	last := cats[len(cats)-1]
	assert.Equal(t, "garden", last.ID)
	assert.Equal(t, 1, last.Count)
}

func TestMemoryRepository_CancelledContext(t *testing.T) {
	repo := NewMemoryRepository(DefaultProducts())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.List(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
