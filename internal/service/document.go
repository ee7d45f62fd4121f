package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/nurpe/contratpro/internal/model"
	"github.com/nurpe/contratpro/internal/schedule"
)

var frenchMonths = [...]string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

func (s *ContractService) compose(draft model.ContractDraft) model.ContractDocument {
	cur := s.currency(draft.Currency)
	installments := schedule.Compute(draft.Amount, draft.Plan)

	amount := strings.TrimSpace(draft.Amount)
	if parsed, ok := schedule.ParseAmount(draft.Amount); ok {
		amount = schedule.Format(parsed)
	}

	title := draft.Type.Title()
	if draft.Type == model.ContractTypeNDA {
		title = strings.ToUpper(title)
	}

	articles := []model.Article{
		{Title: "Objet du contrat", Body: strings.TrimSpace(draft.ProjectDescription)},
		{Title: "Durée", Body: durationClause(draft)},
		{Title: "Rémunération", Body: fmt.Sprintf(
			"En contrepartie des prestations définies à l'article 1, le client versera au prestataire la somme de %s %s.",
			amount, cur.Symbol,
		)},
		{Title: "Conditions de paiement", Body: paymentClause(installments, draft.Plan, cur)},
	}
	if details := strings.TrimSpace(draft.Details); details != "" {
		articles = append(articles, model.Article{Title: "Dispositions particulières", Body: details})
	}
	if penalties := strings.TrimSpace(draft.Penalties); penalties != "" {
		articles = append(articles, model.Article{Title: "Pénalités", Body: penalties})
	}
	for i := range articles {
		articles[i].Number = i + 1
	}

	return model.ContractDocument{
		Title:     title,
		Subtype:   draft.Subtype,
		IssuedOn:  dateOnly(s.now()),
		Client:    draft.Client,
		Provider:  draft.Provider,
		Articles:  articles,
		Amount:    amount,
		Currency:  cur,
		OpenEnded: draft.OpenEnded(),
		Schedule:  scheduleLines(installments, draft.Plan),
	}
}

func durationClause(draft model.ContractDraft) string {
	start := formatFrenchDate(draft.StartDate)
	if draft.OpenEnded() {
		return fmt.Sprintf("Le présent contrat prend effet à compter du %s pour une durée indéterminée.", start)
	}
	return fmt.Sprintf("Le présent contrat prend effet à compter du %s et se termine le %s.", start, formatFrenchDate(*draft.EndDate))
}

func paymentClause(installments []model.Installment, plan model.PaymentPlan, cur model.Currency) string {
	if len(installments) == 0 {
		return "Les modalités de paiement seront précisées dès que le montant du contrat sera connu."
	}
	if len(installments) == 1 {
		return "Le paiement s'effectuera en une seule fois à la signature du contrat."
	}

	parts := make([]string, 0, len(installments))
	for i, inst := range installments {
		parts = append(parts, fmt.Sprintf("%s%% (%s %s) %s", schedule.FormatPercent(inst.Percent), schedule.Format(inst.Amount), cur.Symbol, dueClause(plan, i)))
	}
	return "Le paiement s'effectuera selon les modalités suivantes : " + strings.Join(parts, ", ") + "."
}

func scheduleLines(installments []model.Installment, plan model.PaymentPlan) []model.ScheduleLine {
	lines := make([]model.ScheduleLine, 0, len(installments))
	for i, inst := range installments {
		lines = append(lines, model.ScheduleLine{Installment: inst, Due: dueClause(plan, i)})
	}
	return lines
}

// dueClause words when installment i (zero-based) falls due.
func dueClause(plan model.PaymentPlan, i int) string {
	if i == 0 || plan.SinglePayment() || i-1 >= len(plan.Offsets) {
		return "à la signature du contrat"
	}
	return frenchOffset(plan.Offsets[i-1]) + " après la signature"
}

func frenchOffset(o model.Offset) string {
	plural := o.Magnitude > 1
	var unit string
	switch o.Unit {
	case model.DateUnitDays:
		unit = "jour"
	case model.DateUnitWeeks:
		unit = "semaine"
	case model.DateUnitMonths:
		return fmt.Sprintf("%d mois", o.Magnitude)
	case model.DateUnitYears:
		unit = "an"
	default:
		unit = string(o.Unit)
		plural = false
	}
	if plural {
		unit += "s"
	}
	return fmt.Sprintf("%d %s", o.Magnitude, unit)
}

func formatFrenchDate(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return fmt.Sprintf("%d %s %d", t.Day(), frenchMonths[t.Month()-1], t.Year())
}
