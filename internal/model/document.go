package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Article struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// ContractDocument is the rendered preview of a draft, shared by the JSON
// preview and the PDF export.
type ContractDocument struct {
	Title     string         `json:"title"`
	Subtype   string         `json:"subtype,omitempty"`
	IssuedOn  time.Time      `json:"issued_on"`
	Client    Party          `json:"client"`
	Provider  Party          `json:"provider"`
	Articles  []Article      `json:"articles"`
	Amount    string         `json:"amount"`
	Currency  Currency       `json:"currency"`
	OpenEnded bool           `json:"open_ended"`
	Schedule  []ScheduleLine `json:"schedule"`
	Theme     *PremiumOption `json:"theme,omitempty"`
}

// ScheduleLine is an installment with its due date worded for the
// document.
type ScheduleLine struct {
	Installment
	Due string `json:"due"`
}

// Accent is the header colour of the document, empty without a theme.
func (d ContractDocument) Accent() string {
	if d.Theme == nil {
		return ""
	}
	return d.Theme.Accent
}

// ScheduleExport is one payment schedule laid out for a spreadsheet.
type ScheduleExport struct {
	Title        string
	Currency     Currency
	Total        decimal.Decimal
	SignedAt     time.Time
	Lines        []ScheduleLine
	DueDates     []time.Time
}
