package catalog

import "testing"

func mustEmbedded(t *testing.T) *Catalog {
	t.Helper()
	c, err := Embedded()
	if err != nil {
		t.Fatalf("embedded menu: %v", err)
	}
	return c
}

func TestEmbeddedMenu(t *testing.T) {
	c := mustEmbedded(t)
	if n := len(c.Categories()); n != 11 {
		t.Fatalf("expected 11 categories, got %d", n)
	}
	if n := len(c.Items()); n != 73 {
		t.Fatalf("expected 73 items, got %d", n)
	}
	item, ok := c.ItemByID(3)
	if !ok || item.Name != "Cappuccino" || item.Price != 120 || !item.IsPopular {
		t.Fatalf("unexpected item %+v", item)
	}
	if _, ok := c.ItemByID(999); ok {
		t.Fatalf("expected miss")
	}
	cat, ok := c.CategoryByID("momos")
	if !ok || cat.Name != "Momos" {
		t.Fatalf("unexpected category %+v", cat)
	}
}

func TestItemsByCategoryAndPopular(t *testing.T) {
	c := mustEmbedded(t)
	if n := len(c.ItemsByCategory("hot-beverages")); n != 8 {
		t.Fatalf("expected 8 hot beverages, got %d", n)
	}
	if n := len(c.ItemsByCategory("desserts")); n != 0 {
		t.Fatalf("expected none, got %d", n)
	}
	if n := len(c.Popular()); n != 22 {
		t.Fatalf("expected 22 popular items, got %d", n)
	}
}

func TestSearch(t *testing.T) {
	c := mustEmbedded(t)
	cases := map[string]int{
		"paneer": 8,
		"SHAKE":  6,
		"momo":   6,
		"xyz":    0,
		"":       73,
	}
	for query, want := range cases {
		if got := len(c.Search(query)); got != want {
			t.Fatalf("Search(%q) = %d items, want %d", query, got, want)
		}
	}
}

func TestParseRejectsBadMenus(t *testing.T) {
	dup := []byte(`
categories:
  - id: shakes
items:
  - {id: 1, name: A, category: shakes}
  - {id: 1, name: B, category: shakes}
`)
	if _, err := Parse(dup); err == nil {
		t.Fatalf("expected duplicate id error")
	}
	orphan := []byte(`
categories: []
items:
  - {id: 1, name: A, category: shakes}
`)
	if _, err := Parse(orphan); err == nil {
		t.Fatalf("expected unknown category error")
	}
}
