package models

type MenuItem struct {
	ID          int    `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Price       int    `json:"price" yaml:"price"`
	Category    string `json:"category" yaml:"category"`
	Description string `json:"description" yaml:"description"`
	Image       string `json:"image" yaml:"image"`
	IsVeg       bool   `json:"isVeg" yaml:"isVeg"`
	IsPopular   bool   `json:"isPopular" yaml:"isPopular"`
}

type Category struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Icon  string `json:"icon" yaml:"icon"`
	Emoji string `json:"emoji" yaml:"emoji"`
}

// CartLine pairs a snapshot of a menu item with the quantity ordered. The
// item is embedded so a line encodes flat, as the storefront has always
// persisted it.
type CartLine struct {
	MenuItem
	Quantity int `json:"quantity"`
}

// Amount is price times quantity.
func (l CartLine) Amount() int {
	return l.Price * l.Quantity
}

// OrderItem snapshots the displayable fields of the line.
func (l CartLine) OrderItem() OrderItem {
	return OrderItem{
		ID:       l.ID,
		Name:     l.Name,
		Price:    l.Price,
		Quantity: l.Quantity,
		Image:    l.Image,
	}
}
