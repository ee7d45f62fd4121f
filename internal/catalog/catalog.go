// Package catalog holds the static data tables of the service: premium
// themes, currencies and contract templates.
package catalog

import (
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/nurpe/contratpro/internal/model"
)

type Catalog struct {
	options    []model.PremiumOption
	currencies []model.Currency
	templates  []Template
}

// New builds the catalog with every premium option priced at price.
func New(price decimal.Decimal) *Catalog {
	options := []model.PremiumOption{
		{
			ID:          "color-blue",
			Name:        "Thème Bleu Professionnel",
			Description: "Donnez à votre contrat un aspect professionnel avec cette teinte bleue élégante",
			Accent:      "#D3E4FD",
		},
		{
			ID:          "color-green",
			Name:        "Thème Vert Élégant",
			Description: "Un style vert doux pour vos contrats liés à l'environnement ou la santé",
			Accent:      "#F2FCE2",
		},
		{
			ID:          "color-peach",
			Name:        "Thème Pêche Premium",
			Description: "Une teinte chaleureuse et accueillante pour vos contrats",
			Accent:      "#FDE1D3",
		},
		{
			ID:          "color-purple",
			Name:        "Thème Violet Distinctif",
			Description: "Un style unique et mémorable pour vos contrats importants",
			Accent:      "#E5DEFF",
		},
	}
	for i := range options {
		options[i].Price = price
	}
	return &Catalog{
		options:    options,
		currencies: defaultCurrencies(),
		templates:  defaultTemplates(),
	}
}

func (c *Catalog) Options() []model.PremiumOption {
	return append([]model.PremiumOption(nil), c.options...)
}

func (c *Catalog) Option(id string) (model.PremiumOption, bool) {
	return lo.Find(c.options, func(o model.PremiumOption) bool { return o.ID == id })
}

func (c *Catalog) Currencies() []model.Currency {
	return append([]model.Currency(nil), c.currencies...)
}

// Currency resolves a currency by its id or ISO code, case-insensitively.
func (c *Catalog) Currency(key string) (model.Currency, bool) {
	key = strings.TrimSpace(key)
	return lo.Find(c.currencies, func(cur model.Currency) bool {
		return strings.EqualFold(cur.ID, key) || strings.EqualFold(cur.Code, key)
	})
}

// Symbol returns the display symbol for key, falling back to the key
// upper-cased like the form does for unknown currencies.
func (c *Catalog) Symbol(key string) string {
	if cur, ok := c.Currency(key); ok {
		return cur.Symbol
	}
	return strings.ToUpper(key)
}

func (c *Catalog) Templates() []Template {
	return append([]Template(nil), c.templates...)
}

func (c *Catalog) Template(id int) (Template, bool) {
	return lo.Find(c.templates, func(t Template) bool { return t.ID == id })
}

func defaultCurrencies() []model.Currency {
	return []model.Currency{
		{ID: "fcf", Name: "Franc CFA (FCFA)", Symbol: "FCFA", Code: "XOF"},
		{ID: "eur", Name: "Euro (€)", Symbol: "€", Code: "EUR"},
		{ID: "usd", Name: "Dollar US ($)", Symbol: "$", Code: "USD"},
		{ID: "gbp", Name: "Livre Sterling (£)", Symbol: "£", Code: "GBP"},
		{ID: "mad", Name: "Dirham Marocain (MAD)", Symbol: "MAD", Code: "MAD"},
		{ID: "dzd", Name: "Dinar Algérien (DZD)", Symbol: "DZD", Code: "DZD"},
		{ID: "tnd", Name: "Dinar Tunisien (TND)", Symbol: "TND", Code: "TND"},
		{ID: "kes", Name: "Shilling Kényan (KES)", Symbol: "KES", Code: "KES"},
		{ID: "ngn", Name: "Naira Nigérian (₦)", Symbol: "₦", Code: "NGN"},
		{ID: "zar", Name: "Rand Sud-Africain (R)", Symbol: "R", Code: "ZAR"},
		{ID: "cad", Name: "Dollar Canadien (CA$)", Symbol: "CA$", Code: "CAD"},
		{ID: "chf", Name: "Franc Suisse (CHF)", Symbol: "CHF", Code: "CHF"},
	}
}
