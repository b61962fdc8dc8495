package catalog

import (
	"context"
	"strings"

	"github.com/fjod/holiday-rush/internal/domain"
)

const AllCategories = "all"

var categoryNames = []domain.Category{
	{ID: "clothing", Name: "Clothing"},
	{ID: "decorations", Name: "Decorations"},
	{ID: "home", Name: "Home & Living"},
	{ID: "food", Name: "Food & Drinks"},
	{ID: "accessories", Name: "Accessories"},
	{ID: "footwear", Name: "Footwear"},
	{ID: "entertainment", Name: "Entertainment"},
}

type Filter struct {
	Category string
	Featured bool
	Search   string
	Limit    int
	Offset   int
}

type Page struct {
	Products []domain.Product `json:"products"`
	Total    int              `json:"total"`
	Count    int              `json:"count"`
	Offset   int              `json:"offset"`
	HasMore  bool             `json:"has_more"`
}

// Catalog answers read-only product queries.
type Catalog struct {
	repo Repository
}

func New(repo Repository) *Catalog {
	return &Catalog{repo: repo}
}

func (c *Catalog) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	return c.repo.Get(ctx, id)
}

func (c *Catalog) FilterByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	products, err := c.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return filter(products, func(p domain.Product) bool { return inCategory(p, category) }), nil
}

func (c *Catalog) FilterFeatured(ctx context.Context) ([]domain.Product, error) {
	products, err := c.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return filter(products, func(p domain.Product) bool { return p.Featured }), nil
}

func (c *Catalog) Search(ctx context.Context, term string) ([]domain.Product, error) {
	products, err := c.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return filter(products, func(p domain.Product) bool { return matches(p, term) }), nil
}

// Query combines every filter and paginates the result.
func (c *Catalog) Query(ctx context.Context, f Filter) (*Page, error) {
	products, err := c.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	matched := filter(products, func(p domain.Product) bool {
		if !inCategory(p, f.Category) {
			return false
		}
		if f.Featured && !p.Featured {
			return false
		}
		return f.Search == "" || matches(p, f.Search)
	})

	start := max(f.Offset, 0)
	start = min(start, len(matched))
	end := len(matched)
	if f.Limit > 0 {
		end = min(start+f.Limit, len(matched))
	}

	page := matched[start:end]
	return &Page{
		Products: page,
		Total:    len(matched),
		Count:    len(page),
		Offset:   start,
		HasMore:  end < len(matched),
	}, nil
}

// Categories lists known categories with product counts, "all" first.
// Categories not in the display list are appended with their id as name.
func (c *Catalog) Categories(ctx context.Context) ([]domain.Category, error) {
	products, err := c.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	var unknown []string
	for _, p := range products {
		if _, seen := counts[p.Category]; !seen && !isKnownCategory(p.Category) {
			unknown = append(unknown, p.Category)
		}
		counts[p.Category]++
	}

	out := []domain.Category{{ID: AllCategories, Name: "All Products", Count: len(products)}}
	for _, cat := range categoryNames {
		cat.Count = counts[cat.ID]
		out = append(out, cat)
	}
	for _, id := range unknown {
		out = append(out, domain.Category{ID: id, Name: id, Count: counts[id]})
	}
	return out, nil
}

func isKnownCategory(id string) bool {
	for _, c := range categoryNames {
		if c.ID == id {
			return true
		}
	}
	return false
}

func inCategory(p domain.Product, category string) bool {
	return category == "" || category == AllCategories || p.Category == category
}

func matches(p domain.Product, term string) bool {
	term = strings.ToLower(term)
	if strings.Contains(strings.ToLower(p.Name), term) ||
		strings.Contains(strings.ToLower(p.Description), term) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}

func filter(products []domain.Product, keep func(domain.Product) bool) []domain.Product {
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}
