// Package catalog serves the static menu: categories and items.
package catalog

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/models"
	"gopkg.in/yaml.v3"
)

//go:embed menu.yaml
var embeddedMenu []byte

type menuFile struct {
	Categories []models.Category `yaml:"categories"`
	Items      []models.MenuItem `yaml:"items"`
}

type Catalog struct {
	categories []models.Category
	items      []models.MenuItem
	byID       map[int]int
}

// Embedded parses the menu compiled into the binary.
func Embedded() (*Catalog, error) {
	return Parse(embeddedMenu)
}

// Parse builds a catalog from YAML. Every item must have a unique id and
// belong to a declared category.
func Parse(data []byte) (*Catalog, error) {
	var f menuFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse menu: %w", err)
	}

	known := make(map[string]bool, len(f.Categories))
	for _, c := range f.Categories {
		known[c.ID] = true
	}
	c := &Catalog{categories: f.Categories, items: f.Items, byID: make(map[int]int, len(f.Items))}
	for i, item := range f.Items {
		if _, dup := c.byID[item.ID]; dup {
			return nil, fmt.Errorf("duplicate menu item id %d", item.ID)
		}
		if !known[item.Category] {
			return nil, fmt.Errorf("menu item %d has unknown category %q", item.ID, item.Category)
		}
		c.byID[item.ID] = i
	}
	return c, nil
}

func (c *Catalog) Categories() []models.Category {
	return append([]models.Category{}, c.categories...)
}

func (c *Catalog) Items() []models.MenuItem {
	return append([]models.MenuItem{}, c.items...)
}

func (c *Catalog) ItemByID(id int) (models.MenuItem, bool) {
	i, ok := c.byID[id]
	if !ok {
		return models.MenuItem{}, false
	}
	return c.items[i], true
}

func (c *Catalog) CategoryByID(id string) (models.Category, bool) {
	for _, cat := range c.categories {
		if cat.ID == id {
			return cat, true
		}
	}
	return models.Category{}, false
}

func (c *Catalog) ItemsByCategory(id string) []models.MenuItem {
	return c.filter(func(item models.MenuItem) bool { return item.Category == id })
}

func (c *Catalog) Popular() []models.MenuItem {
	return c.filter(func(item models.MenuItem) bool { return item.IsPopular })
}

// Search matches query case-insensitively against name, description and
// category. An empty query matches everything.
func (c *Catalog) Search(query string) []models.MenuItem {
	q := strings.ToLower(query)
	return c.filter(func(item models.MenuItem) bool {
		return strings.Contains(strings.ToLower(item.Name), q) ||
			strings.Contains(strings.ToLower(item.Description), q) ||
			strings.Contains(strings.ToLower(item.Category), q)
	})
}

func (c *Catalog) filter(keep func(models.MenuItem) bool) []models.MenuItem {
	out := []models.MenuItem{}
	for _, item := range c.items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}
