package worker

// report_worker.go
// Renders the closing-report PDF for a session that left the open state and
// emails it to the establishment contact address. SMTP sends go through the
// circuit breaker so a downed relay fails fast instead of tying up workers.

import (
	"context"
	"encoding/json"
	"fmt"

	"saborpos/internal/infra"
	"saborpos/internal/repository"

	"github.com/rs/zerolog/log"
)

// ReportWorker processes closing-report jobs from QueueClosingReport.
type ReportWorker struct {
	sessions    repository.CashRepository
	ests        repository.EstablishmentRepository
	mailer      *infra.Mailer
	cb          *infra.CircuitBreaker
	storagePath string
}

func NewReportWorker(
	sessions repository.CashRepository,
	ests repository.EstablishmentRepository,
	mailer *infra.Mailer,
	cb *infra.CircuitBreaker,
	storagePath string,
) *ReportWorker {
	return &ReportWorker{
		sessions:    sessions,
		ests:        ests,
		mailer:      mailer,
		cb:          cb,
		storagePath: storagePath,
	}
}

// Process renders and emails the closing report for one session. A returned
// error means the job should be retried; a skip (no contact email) is not
// an error.
func (w *ReportWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ReportJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("report_worker: invalid payload")
		return nil // malformed payloads never become valid — don't retry
	}

	sess, err := w.sessions.FindSessionByID(ctx, payload.SessionID)
	if err != nil {
		return fmt.Errorf("report_worker: load session: %w", err)
	}
	est, err := w.ests.FindByID(ctx, sess.EstablishmentID)
	if err != nil {
		return fmt.Errorf("report_worker: load establishment: %w", err)
	}
	movements, err := w.sessions.ListMovements(ctx, sess.ID)
	if err != nil {
		return fmt.Errorf("report_worker: list movements: %w", err)
	}

	if est.ReportEmail == nil || *est.ReportEmail == "" {
		log.Warn().
			Str("session_id", sess.ID.String()).
			Msg("report_worker: establishment has no report email — skipping")
		return nil
	}

	pdfPath, err := infra.GenerateClosingReportPDF(sess, est, movements, w.storagePath)
	if err != nil {
		return fmt.Errorf("report_worker: generate pdf: %w", err)
	}

	subject := fmt.Sprintf("Fechamento de caixa — %s — %s", est.Name, sess.OpenedAt.Format("02/01/2006"))
	body := fmt.Sprintf("Segue em anexo o relatório de fechamento da sessão %s.", sess.ID)

	sendErr := w.cb.Execute(func() error {
		return w.mailer.SendReport(*est.ReportEmail, subject, body, pdfPath)
	})
	if sendErr != nil {
		return fmt.Errorf("report_worker: send email: %w", sendErr)
	}

	log.Info().
		Str("session_id", sess.ID.String()).
		Str("to", *est.ReportEmail).
		Msg("report_worker: closing report sent")
	return nil
}
