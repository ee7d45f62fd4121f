package model

import "github.com/shopspring/decimal"

// PremiumOption is a paid visual theme for the contract preview.
type PremiumOption struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Accent      string          `json:"accent"`
}

type Currency struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Code   string `json:"code"`
}
