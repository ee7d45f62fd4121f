package model

import "github.com/shopspring/decimal"

type Installment struct {
	Index    int             `json:"index"`
	Percent  decimal.Decimal `json:"percent"`
	Amount   decimal.Decimal `json:"amount"`
	DueLabel string          `json:"due_label"`
}
