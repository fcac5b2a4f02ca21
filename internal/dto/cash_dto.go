package dto

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OpenSessionRequest struct {
	OpeningFloat decimal.Decimal `json:"opening_float" validate:"min=0"`
	Note         *string         `json:"note"`
}

// CountedTotals carries the operator's physical count per tender. Fields are
// pointers so the service can tell "missing" apart from "counted zero".
type CountedTotals struct {
	Cash   *decimal.Decimal `json:"cash"`
	Pix    *decimal.Decimal `json:"pix"`
	Debit  *decimal.Decimal `json:"debit"`
	Credit *decimal.Decimal `json:"credit"`
}

type CloseSessionRequest struct {
	SessionID string `json:"session_id" validate:"required,uuid"`
	// Counted is required for operator-flow closes and ignored for
	// elevated-flow closes; flow selection happens in the service.
	Counted *CountedTotals `json:"counted"`
	Note    *string        `json:"note"`
}

type ValidateSessionRequest struct {
	Counted *CountedTotals `json:"counted" validate:"required"`
	Note    *string        `json:"note"`
}

type MovementRequest struct {
	SessionID   string          `json:"session_id" validate:"required,uuid"`
	Kind        string          `json:"kind"       validate:"required,oneof=withdrawal deposit"`
	Amount      decimal.Decimal `json:"amount"     validate:"required,gt=0"`
	Description *string         `json:"description"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type TenderBreakdown struct {
	Cash   decimal.Decimal `json:"cash"`
	Pix    decimal.Decimal `json:"pix"`
	Debit  decimal.Decimal `json:"debit"`
	Credit decimal.Decimal `json:"credit"`
	Total  decimal.Decimal `json:"total"`
}

type SessionReportResponse struct {
	SessionID       string           `json:"session_id"`
	EstablishmentID string           `json:"establishment_id"`
	Status          string           `json:"status"`
	AttendantFlow   bool             `json:"attendant_flow"`
	OpeningFloat    decimal.Decimal  `json:"opening_float"`
	OpeningNote     *string          `json:"opening_note"`
	// Expected is live while the session is open and the frozen close-time
	// snapshot afterward.
	Expected       TenderBreakdown  `json:"expected"`
	Counted        *TenderBreakdown `json:"counted"`
	Difference     *decimal.Decimal `json:"difference"`
	ClosingNote    *string          `json:"closing_note"`
	ValidationNote *string          `json:"validation_note"`
	OpenedAt       string           `json:"opened_at"`
	ClosedAt       *string          `json:"closed_at"`
}

type SessionSummary struct {
	SessionID     string           `json:"session_id"`
	Status        string           `json:"status"`
	AttendantFlow bool             `json:"attendant_flow"`
	OpeningFloat  decimal.Decimal  `json:"opening_float"`
	ExpectedTotal *decimal.Decimal `json:"expected_total"`
	Difference    *decimal.Decimal `json:"difference"`
	OpenedAt      string           `json:"opened_at"`
	ClosedAt      *string          `json:"closed_at"`
}

type AuditEntryResponse struct {
	ID        string          `json:"id"`
	Action    string          `json:"action"`
	ActorID   string          `json:"actor_id"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt string          `json:"created_at"`
}

type MovementResponse struct {
	ID          string          `json:"id"`
	SessionID   string          `json:"session_id"`
	Kind        string          `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	Description *string         `json:"description"`
	ActorID     string          `json:"actor_id"`
	CreatedAt   string          `json:"created_at"`
}
