package catalog

import (
	"github.com/google/uuid"
)

// Money represents a monetary amount in the smallest currency unit.
// For example, $10.99 USD would be Amount: 1099, Currency: "USD".
type Money struct {
	Amount   int64  `json:"amount"`   // smallest currency unit (cents for USD)
	Currency string `json:"currency"` // ISO 4217 currency code
}

// Feature is a single line item of a plugin's feature list.
type Feature struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Included    bool   `json:"included"`
	ExtraPrice  *Money `json:"extra_price,omitempty"` // set only for paid add-ons
}

// Plugin is a paid optional feature module owners can subscribe to.
// Catalog entries are managed outside the engine and treated as read-only.
type Plugin struct {
	ID       uuid.UUID `json:"id"`
	Slug     string    `json:"slug"` // stable external name
	Name     string    `json:"name"`
	Category string    `json:"category,omitempty"`
	Price    Money     `json:"price"`    // monthly price
	PriceID  string    `json:"price_id"` // billing provider price identifier
	Features []Feature `json:"features,omitempty"`
	Active   bool      `json:"active"`
	Featured bool      `json:"featured"`
}

// Purchasable reports whether new trials and checkouts may be started for the plugin.
// Inactive plugins stay resolvable so existing subscriptions keep working.
func (p Plugin) Purchasable() bool {
	return p.Active
}

// IncludedFeatures returns the features bundled into the base price.
func (p Plugin) IncludedFeatures() []Feature {
	out := make([]Feature, 0, len(p.Features))
	for _, f := range p.Features {
		if f.Included {
			out = append(out, f)
		}
	}
	return out
}
