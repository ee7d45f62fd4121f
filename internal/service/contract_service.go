package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/nurpe/contratpro/internal/catalog"
	"github.com/nurpe/contratpro/internal/model"
	"github.com/nurpe/contratpro/internal/schedule"
)

type PaymentStore interface {
	ListPaymentsByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.PaymentRecord, error)
	ListUnlockedOptions(ctx context.Context, userID uuid.UUID) ([]string, error)
}

type PDFGenerator interface {
	Generate(doc model.ContractDocument) ([]byte, error)
}

type ExcelGenerator interface {
	Generate(export model.ScheduleExport) ([]byte, error)
}

type ContractService struct {
	catalog  *catalog.Catalog
	payments PaymentStore
	pdf      PDFGenerator
	excel    ExcelGenerator
	log      zerolog.Logger
	now      func() time.Time
}

type ScheduleInput struct {
	Amount    string
	Plan      model.PaymentPlan
	StartDate *time.Time
}

type ScheduleResult struct {
	Installments []model.Installment `json:"installments"`
	Total        decimal.Decimal     `json:"total"`
	DueDates     []time.Time         `json:"due_dates,omitempty"`
}

type PreviewInput struct {
	Draft     model.ContractDraft
	ThemeID   string
	Principal *model.Principal
}

type FileResult struct {
	FileName string
	Content  []byte
}

const defaultHistoryLimit = 50

func NewContractService(cat *catalog.Catalog, payments PaymentStore, pdf PDFGenerator, excel ExcelGenerator, log zerolog.Logger) *ContractService {
	return &ContractService{
		catalog:  cat,
		payments: payments,
		pdf:      pdf,
		excel:    excel,
		log:      log.With().Str("component", "contracts").Logger(),
		now:      time.Now,
	}
}

// Schedule computes the installments of a plan. An amount that is not a
// number gives an empty schedule rather than an error.
func (s *ContractService) Schedule(input ScheduleInput) (*ScheduleResult, error) {
	if err := input.Plan.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	installments := schedule.Compute(input.Amount, input.Plan)
	if installments == nil {
		installments = []model.Installment{}
	}
	result := &ScheduleResult{
		Installments: installments,
		Total:        schedule.Total(installments),
	}
	if input.StartDate != nil && len(installments) > 0 {
		result.DueDates = schedule.DueDates(dateOnly(*input.StartDate), input.Plan)
	}
	return result, nil
}

// Preview renders a draft. A theme is applied only when the caller has paid
// for it.
func (s *ContractService) Preview(ctx context.Context, input PreviewInput) (*model.ContractDocument, error) {
	if err := validateDraft(input.Draft); err != nil {
		return nil, err
	}

	var theme *model.PremiumOption
	if input.ThemeID != "" {
		option, err := s.entitledTheme(ctx, input.Principal, input.ThemeID)
		if err != nil {
			return nil, err
		}
		theme = &option
	}

	doc := s.compose(input.Draft)
	doc.Theme = theme
	return &doc, nil
}

func (s *ContractService) RenderPDF(ctx context.Context, input PreviewInput) (*FileResult, error) {
	doc, err := s.Preview(ctx, input)
	if err != nil {
		return nil, err
	}
	content, err := s.pdf.Generate(*doc)
	if err != nil {
		return nil, err
	}
	return &FileResult{
		FileName: buildFileName("contrat", input.Draft, "pdf"),
		Content:  content,
	}, nil
}

func (s *ContractService) ExportSchedule(draft model.ContractDraft) (*FileResult, error) {
	if err := draft.Plan.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if draft.StartDate.IsZero() {
		return nil, fmt.Errorf("%w: start_date is required", ErrInvalidInput)
	}
	if _, ok := schedule.ParseAmount(draft.Amount); !ok {
		return nil, fmt.Errorf("%w: contract_amount must be a non-negative number", ErrInvalidInput)
	}

	signedAt := dateOnly(draft.StartDate)
	installments := schedule.Compute(draft.Amount, draft.Plan)
	content, err := s.excel.Generate(model.ScheduleExport{
		Title:        draft.Type.Title(),
		Currency:     s.currency(draft.Currency),
		Total:        schedule.Total(installments),
		SignedAt:     signedAt,
		Lines:        scheduleLines(installments, draft.Plan),
		DueDates:     schedule.DueDates(signedAt, draft.Plan),
	})
	if err != nil {
		return nil, err
	}
	return &FileResult{
		FileName: buildFileName("echeancier", draft, "xlsx"),
		Content:  content,
	}, nil
}

func (s *ContractService) Payments(ctx context.Context, principal model.Principal) ([]model.PaymentRecord, error) {
	records, err := s.payments.ListPaymentsByUser(ctx, principal.UserID, defaultHistoryLimit)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []model.PaymentRecord{}
	}
	return records, nil
}

func (s *ContractService) UnlockedOptions(ctx context.Context, principal model.Principal) ([]model.PremiumOption, error) {
	ids, err := s.payments.ListUnlockedOptions(ctx, principal.UserID)
	if err != nil {
		return nil, err
	}
	return lo.FilterMap(ids, func(id string, _ int) (model.PremiumOption, bool) {
		return s.catalog.Option(id)
	}), nil
}

func (s *ContractService) entitledTheme(ctx context.Context, principal *model.Principal, themeID string) (model.PremiumOption, error) {
	option, ok := s.catalog.Option(themeID)
	if !ok {
		return model.PremiumOption{}, fmt.Errorf("%w: theme %q", ErrNotFound, themeID)
	}
	if principal == nil {
		return model.PremiumOption{}, ErrPermissionDenied
	}
	unlocked, err := s.payments.ListUnlockedOptions(ctx, principal.UserID)
	if err != nil {
		return model.PremiumOption{}, err
	}
	if !lo.Contains(unlocked, themeID) {
		s.log.Debug().Str("user_id", principal.UserID.String()).Str("theme", themeID).Msg("theme not unlocked")
		return model.PremiumOption{}, ErrPermissionDenied
	}
	return option, nil
}

func (s *ContractService) currency(key string) model.Currency {
	if cur, ok := s.catalog.Currency(key); ok {
		return cur
	}
	code := strings.ToUpper(strings.TrimSpace(key))
	return model.Currency{ID: key, Name: code, Symbol: code, Code: code}
}

func validateDraft(draft model.ContractDraft) error {
	var problems []string
	if !draft.Type.Valid() {
		problems = append(problems, fmt.Sprintf("unknown contract_type %q", draft.Type))
	}
	if strings.TrimSpace(draft.Client.Name) == "" {
		problems = append(problems, "client name is required")
	}
	if strings.TrimSpace(draft.Provider.Name) == "" {
		problems = append(problems, "provider name is required")
	}
	if draft.StartDate.IsZero() {
		problems = append(problems, "start_date is required")
	}
	if !draft.OpenEnded() && !draft.StartDate.IsZero() && draft.EndDate.Before(draft.StartDate) {
		problems = append(problems, "end_date must not be before start_date")
	}
	if err := draft.Plan.Validate(); err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}

func buildFileName(prefix string, draft model.ContractDraft, ext string) string {
	name := sanitizeFileName(strings.ToLower(string(draft.Type)))
	if name == "" {
		name = "document"
	}
	return fmt.Sprintf("%s-%s-%s.%s", prefix, name, draft.StartDate.Format("20060102"), ext)
}

func dateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sanitizeFileName(input string) string {
	result := make([]rune, 0, len(input))
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z':
			result = append(result, r)
		case r >= 'A' && r <= 'Z':
			result = append(result, r)
		case r >= '0' && r <= '9':
			result = append(result, r)
		case r == '-', r == '_':
			result = append(result, r)
		default:
			result = append(result, '-')
		}
	}
	return strings.Trim(string(result), "-")
}
