package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"saborpos/internal/dto"
	"saborpos/internal/model"
	"saborpos/internal/reconcile"
	"saborpos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReportDispatcher enqueues asynchronous closing-report delivery. Dispatch
// failures never fail the lifecycle transition — the session state is already
// committed when dispatch happens.
type ReportDispatcher interface {
	EnqueueClosingReport(ctx context.Context, sessionID uuid.UUID) error
}

type CashService interface {
	Open(ctx context.Context, actor Actor, req dto.OpenSessionRequest) (*dto.SessionReportResponse, error)
	Close(ctx context.Context, actor Actor, req dto.CloseSessionRequest) (*dto.SessionReportResponse, error)
	Validate(ctx context.Context, actor Actor, sessionID uuid.UUID, req dto.ValidateSessionRequest) (*dto.SessionReportResponse, error)
	RecordMovement(ctx context.Context, actor Actor, req dto.MovementRequest) error

	Report(ctx context.Context, sessionID uuid.UUID) (*dto.SessionReportResponse, error)
	ActiveSession(ctx context.Context, establishmentID uuid.UUID) (*dto.SessionReportResponse, error)
	History(ctx context.Context, establishmentID uuid.UUID, page, limit int) ([]dto.SessionSummary, int64, error)
	ListMovements(ctx context.Context, sessionID uuid.UUID) ([]dto.MovementResponse, error)
	AuditTrail(ctx context.Context, sessionID uuid.UUID) ([]dto.AuditEntryResponse, error)
}

type cashService struct {
	repo    repository.CashRepository
	ledger  repository.LedgerRepository
	ests    repository.EstablishmentRepository
	audit   repository.AuditRepository
	reports ReportDispatcher // optional; nil disables async report delivery
}

func NewCashService(
	repo repository.CashRepository,
	ledger repository.LedgerRepository,
	ests repository.EstablishmentRepository,
	audit repository.AuditRepository,
	reports ReportDispatcher,
) CashService {
	return &cashService{repo: repo, ledger: ledger, ests: ests, audit: audit, reports: reports}
}

// ── Open ─────────────────────────────────────────────────────────────────────

func (s *cashService) Open(ctx context.Context, actor Actor, req dto.OpenSessionRequest) (*dto.SessionReportResponse, error) {
	if req.OpeningFloat.IsNegative() {
		return nil, &ValidationError{Msg: "fundo de troco não pode ser negativo"}
	}

	sess := &model.CashSession{
		EstablishmentID: actor.EstablishmentID,
		OpenedBy:        actor.ID,
		OpeningFloat:    req.OpeningFloat,
		OpeningNote:     req.Note,
		Status:          model.SessionOpen,
		OpenedAt:        time.Now().UTC(),
	}

	err := s.repo.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.repo.CreateSession(ctx, tx, sess); err != nil {
			// The partial unique index on (establishment_id) WHERE status='open'
			// makes the insert itself the atomic conditional check.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return &ConflictError{Msg: "já existe um caixa aberto neste estabelecimento"}
			}
			return err
		}
		return s.audit.Append(ctx, tx, auditEntry(model.AuditCashOpen, sess, actor.ID, map[string]any{
			"opening_float": sess.OpeningFloat,
			"opening_note":  sess.OpeningNote,
			"opened_at":     sess.OpenedAt,
		}))
	})
	if err != nil {
		return nil, err
	}

	return s.buildReport(ctx, sess)
}

// ── Close ────────────────────────────────────────────────────────────────────
// Single entry point for both flows; behavior is selected by the actor's
// capability, not by role strings at call sites. Elevated actors certify the
// drawer directly (terminal close); operators must submit a full count and a
// closing note, and the session stops at pending_review.

func (s *cashService) Close(ctx context.Context, actor Actor, req dto.CloseSessionRequest) (*dto.SessionReportResponse, error) {
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		return nil, &ValidationError{Msg: fmt.Sprintf("session_id inválido: %v", err)}
	}

	var sess *model.CashSession
	err = s.repo.Transaction(ctx, func(tx *gorm.DB) error {
		var err error
		sess, err = s.repo.FindSessionForUpdate(ctx, tx, sessionID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		// A second concurrent Close observes this precondition after the row
		// lock releases — never a silent double-write.
		if sess.Status != model.SessionOpen {
			return &StateError{Msg: "a sessão não está aberta"}
		}

		now := time.Now().UTC()
		exp, err := s.computeExpected(ctx, sess, now)
		if err != nil {
			return err
		}

		sess.ExpectedCash = ptr(exp.Cash)
		sess.ExpectedPix = ptr(exp.Pix)
		sess.ExpectedDebit = ptr(exp.Debit)
		sess.ExpectedCredit = ptr(exp.Credit)
		sess.ExpectedTotal = ptr(exp.Total)
		sess.ClosedAt = &now
		sess.ClosedBy = &actor.ID

		if actor.Role.Elevated() {
			// Elevated actor is trusted to certify the drawer without a
			// second review step. No human count is recorded.
			sess.Difference = ptr(decimal.Zero)
			sess.ClosingNote = req.Note
			sess.Status = model.SessionClosed
		} else {
			counted, err := requireCounted(req.Counted)
			if err != nil {
				return err
			}
			if req.Note == nil || strings.TrimSpace(*req.Note) == "" {
				return &ValidationError{Msg: "observação de fechamento é obrigatória"}
			}
			sess.CountedCash = ptr(counted.Cash)
			sess.CountedPix = ptr(counted.Pix)
			sess.CountedDebit = ptr(counted.Debit)
			sess.CountedCredit = ptr(counted.Credit)
			sess.Difference = ptr(reconcile.Difference(counted, exp))
			sess.ClosingNote = req.Note
			sess.Status = model.SessionPendingReview
			sess.AttendantFlow = true
		}

		if err := s.repo.UpdateSession(ctx, tx, sess); err != nil {
			return err
		}
		return s.audit.Append(ctx, tx, auditEntry(model.AuditCashClose, sess, actor.ID, map[string]any{
			"expected":     expectedSnapshot(sess),
			"counted":      countedSnapshot(sess),
			"difference":   sess.Difference,
			"closing_note": sess.ClosingNote,
			"status":       sess.Status,
		}))
	})
	if err != nil {
		return nil, err
	}

	s.dispatchReport(ctx, sess.ID)
	return s.buildReport(ctx, sess)
}

// ── Validate ─────────────────────────────────────────────────────────────────
// The only path by which a pending_review session becomes terminal: a second
// set of eyes with elevated capability confirms or corrects the attendant's
// physical count against the frozen expected totals.

func (s *cashService) Validate(ctx context.Context, actor Actor, sessionID uuid.UUID, req dto.ValidateSessionRequest) (*dto.SessionReportResponse, error) {
	if !actor.Role.Elevated() {
		return nil, &AuthorizationError{Msg: "apenas gerentes podem validar um fechamento de caixa"}
	}

	var sess *model.CashSession
	err := s.repo.Transaction(ctx, func(tx *gorm.DB) error {
		var err error
		sess, err = s.repo.FindSessionForUpdate(ctx, tx, sessionID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if sess.Status != model.SessionPendingReview {
			return &StateError{Msg: "a sessão não está aguardando validação"}
		}

		counted, err := requireCounted(req.Counted)
		if err != nil {
			return err
		}

		before := countedSnapshot(sess)

		now := time.Now().UTC()
		sess.CountedCash = ptr(counted.Cash)
		sess.CountedPix = ptr(counted.Pix)
		sess.CountedDebit = ptr(counted.Debit)
		sess.CountedCredit = ptr(counted.Credit)
		// Expected totals were frozen at close time; only the counted side
		// and the difference move here.
		sess.Difference = ptr(reconcile.Difference(counted, frozenExpected(sess)))
		sess.ValidationNote = req.Note
		sess.ValidatedAt = &now
		sess.ValidatedBy = &actor.ID
		sess.Status = model.SessionClosed

		if err := s.repo.UpdateSession(ctx, tx, sess); err != nil {
			return err
		}
		return s.audit.Append(ctx, tx, auditEntry(model.AuditCashValidate, sess, actor.ID, map[string]any{
			"counted_before":  before,
			"counted_after":   countedSnapshot(sess),
			"difference":      sess.Difference,
			"validation_note": sess.ValidationNote,
		}))
	})
	if err != nil {
		return nil, err
	}

	s.dispatchReport(ctx, sess.ID)
	return s.buildReport(ctx, sess)
}

// ── RecordMovement ───────────────────────────────────────────────────────────
// Sangria / suprimento. Append-only: no undo is exposed — a mistake is
// corrected with an offsetting movement of the opposite kind.

func (s *cashService) RecordMovement(ctx context.Context, actor Actor, req dto.MovementRequest) error {
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		return &ValidationError{Msg: fmt.Sprintf("session_id inválido: %v", err)}
	}
	if req.Kind != model.MovementWithdrawal && req.Kind != model.MovementDeposit {
		return &ValidationError{Msg: "tipo de movimento deve ser withdrawal ou deposit"}
	}
	if !req.Amount.IsPositive() {
		return &ValidationError{Msg: "valor do movimento deve ser maior que zero"}
	}

	sess, err := s.repo.FindSessionByID(ctx, sessionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if sess.Status != model.SessionOpen {
		return &StateError{Msg: "movimentos só podem ser registrados com o caixa aberto"}
	}

	mov := &model.CashMovement{
		SessionID:   sess.ID,
		Kind:        req.Kind,
		Amount:      req.Amount,
		Description: req.Description,
		ActorID:     actor.ID,
		CreatedAt:   time.Now().UTC(),
	}
	// The session row itself is untouched: expected totals stay derived
	// until close time.
	return s.repo.CreateMovement(ctx, mov)
}

// ── Read operations ──────────────────────────────────────────────────────────

func (s *cashService) Report(ctx context.Context, sessionID uuid.UUID) (*dto.SessionReportResponse, error) {
	sess, err := s.repo.FindSessionByID(ctx, sessionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.buildReport(ctx, sess)
}

func (s *cashService) ActiveSession(ctx context.Context, establishmentID uuid.UUID) (*dto.SessionReportResponse, error) {
	sess, err := s.repo.FindOpenSession(ctx, establishmentID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrNotFound
	}
	return s.buildReport(ctx, sess)
}

func (s *cashService) History(ctx context.Context, establishmentID uuid.UUID, page, limit int) ([]dto.SessionSummary, int64, error) {
	sessions, total, err := s.repo.ListSessions(ctx, establishmentID, page, limit)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.SessionSummary, len(sessions))
	for i, sess := range sessions {
		out[i] = dto.SessionSummary{
			SessionID:     sess.ID.String(),
			Status:        sess.Status,
			AttendantFlow: sess.AttendantFlow,
			OpeningFloat:  sess.OpeningFloat,
			ExpectedTotal: sess.ExpectedTotal,
			Difference:    sess.Difference,
			OpenedAt:      sess.OpenedAt.Format(time.RFC3339),
			ClosedAt:      formatTimePtr(sess.ClosedAt),
		}
	}
	return out, total, nil
}

func (s *cashService) ListMovements(ctx context.Context, sessionID uuid.UUID) ([]dto.MovementResponse, error) {
	movs, err := s.repo.ListMovements(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MovementResponse, len(movs))
	for i, m := range movs {
		out[i] = dto.MovementResponse{
			ID:          m.ID.String(),
			SessionID:   m.SessionID.String(),
			Kind:        m.Kind,
			Amount:      m.Amount,
			Description: m.Description,
			ActorID:     m.ActorID.String(),
			CreatedAt:   m.CreatedAt.Format(time.RFC3339),
		}
	}
	return out, nil
}

func (s *cashService) AuditTrail(ctx context.Context, sessionID uuid.UUID) ([]dto.AuditEntryResponse, error) {
	if _, err := s.repo.FindSessionByID(ctx, sessionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	entries, err := s.audit.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.AuditEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = dto.AuditEntryResponse{
			ID:        e.ID.String(),
			Action:    e.Action,
			ActorID:   e.ActorID.String(),
			Payload:   e.Payload,
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		}
	}
	return out, nil
}

// ── Helpers ──────────────────────────────────────────────────────────────────

// computeExpected runs the reconciliation engine over the session window
// ending at `to`. Idempotent: re-run on demand for live reports while open,
// executed exactly once for the frozen snapshot at close.
func (s *cashService) computeExpected(ctx context.Context, sess *model.CashSession, to time.Time) (reconcile.Expected, error) {
	est, err := s.ests.FindByID(ctx, sess.EstablishmentID)
	if err != nil {
		return reconcile.Expected{}, err
	}
	sales, err := s.ledger.SumByTender(ctx, sess.EstablishmentID, sess.OpenedAt, to, est.ReconcileAcceptedOnly)
	if err != nil {
		return reconcile.Expected{}, err
	}
	movs, err := s.repo.SumMovements(ctx, sess.ID)
	if err != nil {
		return reconcile.Expected{}, err
	}
	exp := reconcile.ComputeExpected(sess.OpeningFloat, sales, movs)
	if exp.NegativeCash() {
		// Data-quality warning, not a rejection: the physical count is the
		// ground truth for audit.
		log.Warn().
			Str("session_id", sess.ID.String()).
			Str("expected_cash", exp.Cash.String()).
			Msg("expected cash is negative — more withdrawn than available")
	}
	return exp, nil
}

func (s *cashService) buildReport(ctx context.Context, sess *model.CashSession) (*dto.SessionReportResponse, error) {
	var exp reconcile.Expected
	if sess.Status == model.SessionOpen {
		var err error
		exp, err = s.computeExpected(ctx, sess, time.Now().UTC())
		if err != nil {
			return nil, err
		}
	} else {
		exp = frozenExpected(sess)
	}

	report := &dto.SessionReportResponse{
		SessionID:       sess.ID.String(),
		EstablishmentID: sess.EstablishmentID.String(),
		Status:          sess.Status,
		AttendantFlow:   sess.AttendantFlow,
		OpeningFloat:    sess.OpeningFloat,
		OpeningNote:     sess.OpeningNote,
		Expected: dto.TenderBreakdown{
			Cash: exp.Cash, Pix: exp.Pix, Debit: exp.Debit, Credit: exp.Credit, Total: exp.Total,
		},
		Difference:     sess.Difference,
		ClosingNote:    sess.ClosingNote,
		ValidationNote: sess.ValidationNote,
		OpenedAt:       sess.OpenedAt.Format(time.RFC3339),
		ClosedAt:       formatTimePtr(sess.ClosedAt),
	}

	if sess.CountedCash != nil {
		counted := dto.TenderBreakdown{
			Cash:   *sess.CountedCash,
			Pix:    *sess.CountedPix,
			Debit:  *sess.CountedDebit,
			Credit: *sess.CountedCredit,
		}
		counted.Total = counted.Cash.Add(counted.Pix).Add(counted.Debit).Add(counted.Credit)
		report.Counted = &counted
	}

	return report, nil
}

func (s *cashService) dispatchReport(ctx context.Context, sessionID uuid.UUID) {
	if s.reports == nil {
		return
	}
	if err := s.reports.EnqueueClosingReport(ctx, sessionID); err != nil {
		log.Error().Err(err).Str("session_id", sessionID.String()).
			Msg("failed to enqueue closing report")
	}
}

// requireCounted validates that all four tender counts are present and
// non-negative, returning them as engine totals.
func requireCounted(c *dto.CountedTotals) (reconcile.Totals, error) {
	if c == nil || c.Cash == nil || c.Pix == nil || c.Debit == nil || c.Credit == nil {
		return reconcile.Totals{}, &ValidationError{Msg: "contagem de todos os meios de pagamento é obrigatória"}
	}
	counted := reconcile.Totals{Cash: *c.Cash, Pix: *c.Pix, Debit: *c.Debit, Credit: *c.Credit}
	if counted.AnyNegative() {
		return reconcile.Totals{}, &ValidationError{Msg: "valores contados não podem ser negativos"}
	}
	return counted, nil
}

// frozenExpected rebuilds the engine snapshot from the close-time columns.
func frozenExpected(sess *model.CashSession) reconcile.Expected {
	exp := reconcile.Expected{}
	if sess.ExpectedCash != nil {
		exp.Cash = *sess.ExpectedCash
		exp.Pix = *sess.ExpectedPix
		exp.Debit = *sess.ExpectedDebit
		exp.Credit = *sess.ExpectedCredit
		exp.Total = *sess.ExpectedTotal
	}
	return exp
}

func expectedSnapshot(sess *model.CashSession) map[string]any {
	return map[string]any{
		"cash": sess.ExpectedCash, "pix": sess.ExpectedPix,
		"debit": sess.ExpectedDebit, "credit": sess.ExpectedCredit,
		"total": sess.ExpectedTotal,
	}
}

func countedSnapshot(sess *model.CashSession) map[string]any {
	return map[string]any{
		"cash": sess.CountedCash, "pix": sess.CountedPix,
		"debit": sess.CountedDebit, "credit": sess.CountedCredit,
	}
}

func auditEntry(action string, sess *model.CashSession, actorID uuid.UUID, payload map[string]any) *model.AuditEntry {
	data, err := json.Marshal(payload)
	if err != nil {
		// Snapshot values come from our own models; marshal cannot fail for
		// them, but an empty payload beats losing the audit row.
		log.Error().Err(err).Str("action", action).Msg("audit payload marshal failed")
		data = []byte("{}")
	}
	return &model.AuditEntry{
		EstablishmentID: sess.EstablishmentID,
		SessionID:       sess.ID,
		Action:          action,
		ActorID:         actorID,
		Payload:         data,
		CreatedAt:       time.Now().UTC(),
	}
}

func ptr(d decimal.Decimal) *decimal.Decimal { return &d }

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
