// Package schedule splits a contract amount into its installments.
//
// The first installment is a percentage of the total due at signing; the
// remainder is shared equally by the other installments, each due after its
// own offset. Amounts are rounded to cents independently, so the displayed
// installments may differ from the total by up to half a cent each.
package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nurpe/contratpro/internal/model"
)

const AtSigning = "at signing"

var hundred = decimal.NewFromInt(100)

// Compute returns the installments of plan for the total typed by the user.
// A single-installment plan always yields one full payment at signing. For
// other plans an amount that is not a non-negative number yields nil.
func Compute(total string, plan model.PaymentPlan) []model.Installment {
	amount, ok := ParseAmount(total)
	if plan.SinglePayment() {
		if !ok {
			amount = decimal.Zero
		}
		return []model.Installment{{
			Index:    1,
			Percent:  hundred,
			Amount:   amount.Round(2),
			DueLabel: AtSigning,
		}}
	}
	if !ok {
		return nil
	}
	return split(amount, plan)
}

// ParseAmount parses a user-typed amount. Blank, non-numeric and negative
// input is rejected.
func ParseAmount(raw string) (decimal.Decimal, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, false
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil || amount.IsNegative() {
		return decimal.Zero, false
	}
	return amount, true
}

func split(total decimal.Decimal, plan model.PaymentPlan) []model.Installment {
	n := plan.InstallmentCount
	rest := int64(n - 1)
	firstPercent := decimal.NewFromInt(int64(plan.FirstPaymentPercent))

	firstAmount := total.Mul(firstPercent).Div(hundred)
	shareAmount := total.Sub(firstAmount).Div(decimal.NewFromInt(rest)).Round(2)
	sharePercent := hundred.Sub(firstPercent).Div(decimal.NewFromInt(rest))

	result := make([]model.Installment, 0, n)
	result = append(result, model.Installment{
		Index:    1,
		Percent:  firstPercent,
		Amount:   firstAmount.Round(2),
		DueLabel: AtSigning,
	})

	allocated := firstPercent
	for i := 2; i <= n; i++ {
		percent := sharePercent
		if i == n {
			// the last share absorbs the division remainder so percentages add up to 100
			percent = hundred.Sub(allocated)
		}
		allocated = allocated.Add(percent)
		result = append(result, model.Installment{
			Index:    i,
			Percent:  percent,
			Amount:   shareAmount,
			DueLabel: dueLabel(plan.Offsets, i-2),
		})
	}
	return result
}

func dueLabel(offsets []model.Offset, pos int) string {
	if pos < 0 || pos >= len(offsets) {
		return ""
	}
	return fmt.Sprintf("%s after signing", offsets[pos])
}

// DueDates resolves the calendar date of every installment for a contract
// signed on signedAt. Missing offsets resolve to the signing date.
func DueDates(signedAt time.Time, plan model.PaymentPlan) []time.Time {
	if plan.SinglePayment() {
		return []time.Time{signedAt}
	}
	dates := make([]time.Time, 0, plan.InstallmentCount)
	dates = append(dates, signedAt)
	for i := 0; i < plan.InstallmentCount-1; i++ {
		if i >= len(plan.Offsets) {
			dates = append(dates, signedAt)
			continue
		}
		dates = append(dates, addOffset(signedAt, plan.Offsets[i]))
	}
	return dates
}

func addOffset(t time.Time, offset model.Offset) time.Time {
	switch offset.Unit {
	case model.DateUnitDays:
		return t.AddDate(0, 0, offset.Magnitude)
	case model.DateUnitWeeks:
		return t.AddDate(0, 0, 7*offset.Magnitude)
	case model.DateUnitMonths:
		return t.AddDate(0, offset.Magnitude, 0)
	case model.DateUnitYears:
		return t.AddDate(offset.Magnitude, 0, 0)
	default:
		return t
	}
}

// Total sums the displayed installment amounts.
func Total(installments []model.Installment) decimal.Decimal {
	sum := decimal.Zero
	for _, inst := range installments {
		sum = sum.Add(inst.Amount)
	}
	return sum
}
