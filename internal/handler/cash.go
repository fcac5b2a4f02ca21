package handler

import (
	"net/http"
	"strconv"

	"saborpos/internal/apierror"
	"saborpos/internal/dto"
	"saborpos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CashHandler struct{ svc service.CashService }

func NewCashHandler(svc service.CashService) *CashHandler { return &CashHandler{svc: svc} }

// Open godoc
// @Summary Abre uma nova sessão de caixa
// @Tags cash
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.OpenSessionRequest true "Dados de abertura"
// @Success 201 {object} dto.SessionReportResponse
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/cash/open [post]
func (h *CashHandler) Open(c *gin.Context) {
	var req dto.OpenSessionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	actor, ok := actorFromClaims(c)
	if !ok {
		return
	}
	resp, err := h.svc.Open(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Close godoc
// @Summary Fecha a sessão de caixa (fluxo gerente ou atendente)
// @Tags cash
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CloseSessionRequest true "Dados de fechamento"
// @Success 200 {object} dto.SessionReportResponse
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/cash/close [post]
func (h *CashHandler) Close(c *gin.Context) {
	var req dto.CloseSessionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	actor, ok := actorFromClaims(c)
	if !ok {
		return
	}
	resp, err := h.svc.Close(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Validate godoc
// @Summary Valida um fechamento pendente de revisão
// @Tags cash
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID da sessão"
// @Param body body dto.ValidateSessionRequest true "Contagem final"
// @Success 200 {object} dto.SessionReportResponse
// @Failure 403 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/cash/{id}/validate [post]
func (h *CashHandler) Validate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	var req dto.ValidateSessionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	actor, ok := actorFromClaims(c)
	if !ok {
		return
	}
	resp, err := h.svc.Validate(c.Request.Context(), actor, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RecordMovement godoc
// @Summary Registra sangria ou suprimento na sessão aberta
// @Tags cash
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.MovementRequest true "Movimento manual"
// @Success 204
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/cash/movement [post]
func (h *CashHandler) RecordMovement(c *gin.Context) {
	var req dto.MovementRequest
	if !bindAndValidate(c, &req) {
		return
	}
	actor, ok := actorFromClaims(c)
	if !ok {
		return
	}
	if err := h.svc.RecordMovement(c.Request.Context(), actor, req); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Report godoc
// @Summary Relatório de uma sessão de caixa
// @Tags cash
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID da sessão"
// @Success 200 {object} dto.SessionReportResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/cash/{id}/report [get]
func (h *CashHandler) Report(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	resp, err := h.svc.Report(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ActiveSession returns the currently open session for the actor's
// establishment, 404 when none is open.
func (h *CashHandler) ActiveSession(c *gin.Context) {
	actor, ok := actorFromClaims(c)
	if !ok {
		return
	}
	resp, err := h.svc.ActiveSession(c.Request.Context(), actor.EstablishmentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListMovements returns the movements of one session, oldest first.
func (h *CashHandler) ListMovements(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	resp, err := h.svc.ListMovements(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AuditTrail returns the immutable lifecycle log of one session.
func (h *CashHandler) AuditTrail(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return
	}
	resp, err := h.svc.AuditTrail(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// History returns a paginated list of the establishment's sessions.
func (h *CashHandler) History(c *gin.Context) {
	actor, ok := actorFromClaims(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	resp, total, err := h.svc.History(c.Request.Context(), actor.EstablishmentID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp, "total": total, "page": page, "limit": limit})
}
