package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/contratpro/internal/model"
	"github.com/nurpe/contratpro/internal/schedule"
)

func testDocument() model.ContractDocument {
	return model.ContractDocument{
		Title:    "Contrat de prestation de service",
		IssuedOn: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Client:   model.Party{Name: "Awa Diop", Address: "Dakar"},
		Provider: model.Party{Name: "Studio Nurpe", Address: "Thiès", Phone: "+221 77 123 45 67"},
		Articles: []model.Article{
			{Number: 1, Title: "Objet du contrat", Body: "Refonte du site web"},
			{Number: 2, Title: "Durée", Body: "Le présent contrat prend effet à compter du 2 janvier 2025."},
		},
		Amount:   "100 000,00",
		Currency: model.Currency{ID: "fcf", Symbol: "FCFA", Code: "XOF"},
		Schedule: []model.ScheduleLine{
			{Installment: model.Installment{Index: 1, Percent: decimal.NewFromInt(50), Amount: decimal.NewFromInt(50000)}, Due: "à la signature du contrat"},
			{Installment: model.Installment{Index: 2, Percent: decimal.NewFromInt(50), Amount: decimal.NewFromInt(50000)}, Due: "30 jours après la signature"},
		},
	}
}

func TestGenerate(t *testing.T) {
	content, err := NewGenerator().Generate(testDocument())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(content, []byte("%PDF-")))
}

func TestGenerateWithTheme(t *testing.T) {
	doc := testDocument()
	doc.Theme = &model.PremiumOption{ID: "color-blue", Accent: "#D3E4FD"}

	themed, err := NewGenerator().Generate(doc)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(themed, []byte("%PDF-")))
}

func TestScheduleCellsRoundPercentages(t *testing.T) {
	plan := model.PaymentPlan{
		InstallmentCount:    4,
		FirstPaymentPercent: 50,
		Offsets: []model.Offset{
			{Magnitude: 1, Unit: model.DateUnitMonths},
			{Magnitude: 2, Unit: model.DateUnitMonths},
			{Magnitude: 3, Unit: model.DateUnitMonths},
		},
	}
	installments := schedule.Compute("100000", plan)
	require.Len(t, installments, 4)

	doc := testDocument()
	doc.Schedule = nil
	for _, inst := range installments {
		doc.Schedule = append(doc.Schedule, model.ScheduleLine{Installment: inst, Due: "à la signature du contrat"})
	}

	assert.Equal(t, []string{"1", "50 %", "50 000,00", "à la signature du contrat"}, scheduleCells(doc.Schedule[0]))
	for _, line := range doc.Schedule[1:] {
		assert.Equal(t, "16,67 %", scheduleCells(line)[1])
		assert.Equal(t, "16 666,67", scheduleCells(line)[2])
	}

	content, err := NewGenerator().Generate(doc)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(content, []byte("%PDF-")))
}

func TestParseHex(t *testing.T) {
	r, g, b, ok := parseHex("#D3E4FD")
	require.True(t, ok)
	assert.Equal(t, []int{0xD3, 0xE4, 0xFD}, []int{r, g, b})

	for _, bad := range []string{"", "#FFF", "#GGGGGG", "D3E4FD00"} {
		_, _, _, ok := parseHex(bad)
		assert.False(t, ok, bad)
	}
}
