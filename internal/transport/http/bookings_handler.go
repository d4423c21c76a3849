package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"agendaki/internal/domain"
	"agendaki/internal/service/bookings"
	"agendaki/internal/store"
)

type bookingsService interface {
	Create(ctx context.Context, in bookings.CreateInput) (domain.Booking, error)
	List(ctx context.Context) ([]domain.Booking, error)
	Get(ctx context.Context, id int64) (domain.Booking, error)
	Update(ctx context.Context, id int64, in bookings.UpdateInput) error
	Approve(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	OccupiedSlots(ctx context.Context, date string) ([]domain.OccupiedSlot, error)
	ListServices(ctx context.Context) ([]domain.Service, error)
}

type BookingsHandler struct {
	svc bookingsService
	log *slog.Logger
}

func NewBookingsHandler(svc bookingsService, log *slog.Logger) *BookingsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &BookingsHandler{
		svc: svc,
		log: log.With(slog.String("component", "http.bookings")),
	}
}

type serviceResponse struct {
	ID              int64   `json:"id"`
	Name            string  `json:"nome"`
	Description     string  `json:"descricao"`
	Price           float64 `json:"preco"`
	DurationMinutes int     `json:"duracao_minutos"`
}

type bookingResponse struct {
	ID            int64  `json:"id"`
	ClientName    string `json:"cliente_nome"`
	ClientContact string `json:"cliente_whatsapp"`
	ServiceID     int64  `json:"servico_id"`
	ServiceName   string `json:"servico_nome"`
	Date          string `json:"data_agendamento"`
	StartTime     string `json:"hora_inicio"`
	EndTime       string `json:"hora_fim"`
	Status        string `json:"status"`
	CreatedAt     string `json:"data_registro"`
}

func toBookingResponse(b domain.Booking) bookingResponse {
	out := bookingResponse{
		ID:            b.ID,
		ClientName:    b.ClientName,
		ClientContact: b.ClientContact,
		ServiceID:     b.ServiceID,
		Date:          b.Date.Format(domain.DateLayout),
		StartTime:     b.StartTime.String(),
		EndTime:       b.EndTime.String(),
		Status:        b.Status,
		CreatedAt:     b.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if b.Service != nil {
		out.ServiceName = b.Service.Name
	}
	return out
}

func (h *BookingsHandler) ListServices(c *gin.Context) {
	services, err := h.svc.ListServices(c.Request.Context())
	if err != nil {
		h.log.Error("service catalog list failed", slog.Any("err", err))
		c.JSON(http.StatusInternalServerError, gin.H{"erro": "Erro ao buscar serviços"})
		return
	}

	out := make([]serviceResponse, 0, len(services))
	for _, s := range services {
		out = append(out, serviceResponse{
			ID:              s.ID,
			Name:            s.Name,
			Description:     s.Description,
			Price:           s.Price,
			DurationMinutes: s.DurationMinutes,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (h *BookingsHandler) OccupiedSlots(c *gin.Context) {
	slots, err := h.svc.OccupiedSlots(c.Request.Context(), c.Query("data"))
	if err != nil {
		var vErr *bookings.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusBadRequest, gin.H{"erro": vErr.Error()})
			return
		}
		h.log.Error("occupied slots lookup failed", slog.Any("err", err), slog.String("data", c.Query("data")))
		c.JSON(http.StatusInternalServerError, gin.H{"erro": "Erro ao buscar horários ocupados"})
		return
	}
	c.JSON(http.StatusOK, slots)
}

type createBookingRequest struct {
	ClientName    string `json:"cliente_nome"`
	ClientContact string `json:"cliente_whatsapp"`
	ServiceID     int64  `json:"servico_id"`
	Date          string `json:"data_agendamento"`
	StartTime     string `json:"hora_inicio"`
	EndTime       string `json:"hora_fim"`
}

func (h *BookingsHandler) Create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"erro": "Corpo da requisição inválido"})
		return
	}

	booking, err := h.svc.Create(c.Request.Context(), bookings.CreateInput{
		ClientName:    req.ClientName,
		ClientContact: req.ClientContact,
		ServiceID:     req.ServiceID,
		Date:          req.Date,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
	})
	if err != nil {
		var vErr *bookings.ValidationError
		switch {
		case errors.As(err, &vErr):
			c.JSON(http.StatusBadRequest, gin.H{"erro": vErr.Error()})
		case errors.Is(err, bookings.ErrUnknownService):
			c.JSON(http.StatusBadRequest, gin.H{"erro": "Serviço não encontrado. Selecione um serviço válido."})
		case errors.Is(err, store.ErrConflict):
			h.log.Info(
				"booking conflict",
				slog.String("data", req.Date),
				slog.String("hora_inicio", req.StartTime),
				slog.String("hora_fim", req.EndTime),
			)
			c.JSON(http.StatusConflict, gin.H{"erro": "Horário indisponível. Já existe um agendamento nesse intervalo."})
		default:
			h.log.Error("booking create failed", slog.Any("err", err))
			c.JSON(http.StatusInternalServerError, gin.H{"erro": "Erro interno ao processar o agendamento"})
		}
		return
	}

	h.log.Info(
		"booking created",
		slog.Int64("booking_id", booking.ID),
		slog.String("data", booking.Date.Format(domain.DateLayout)),
		slog.String("hora_inicio", booking.StartTime.String()),
		slog.String("hora_fim", booking.EndTime.String()),
	)

	c.JSON(http.StatusCreated, gin.H{
		"mensagem": "Agendamento solicitado com sucesso. Aguardando aprovação.",
		"id":       booking.ID,
		"status":   booking.Status,
	})
}

func (h *BookingsHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.log.Error("booking list failed", slog.Any("err", err))
		c.JSON(http.StatusInternalServerError, gin.H{"erro": "Erro ao buscar agendamentos"})
		return
	}

	out := make([]bookingResponse, 0, len(list))
	for _, b := range list {
		out = append(out, toBookingResponse(b))
	}
	c.JSON(http.StatusOK, out)
}

func (h *BookingsHandler) Get(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}

	booking, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"erro": "Agendamento não encontrado"})
			return
		}
		h.log.Error("booking get failed", slog.Any("err", err), slog.Int64("booking_id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"erro": "Erro ao buscar agendamento"})
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(booking))
}

type updateBookingRequest struct {
	ClientName    *string `json:"cliente_nome"`
	ClientContact *string `json:"cliente_whatsapp"`
	ServiceID     *int64  `json:"servico_id"`
	Date          *string `json:"data_agendamento"`
	StartTime     *string `json:"hora_inicio"`
	EndTime       *string `json:"hora_fim"`
	Status        *string `json:"status"`
}

func (h *BookingsHandler) Update(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}

	var req updateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"erro": "Corpo da requisição inválido"})
		return
	}

	err := h.svc.Update(c.Request.Context(), id, bookings.UpdateInput{
		ClientName:    req.ClientName,
		ClientContact: req.ClientContact,
		ServiceID:     req.ServiceID,
		Date:          req.Date,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		Status:        req.Status,
	})
	if err != nil {
		var vErr *bookings.ValidationError
		switch {
		case errors.As(err, &vErr):
			c.JSON(http.StatusBadRequest, gin.H{"erro": vErr.Error()})
		case errors.Is(err, bookings.ErrUnknownService):
			c.JSON(http.StatusBadRequest, gin.H{"erro": "Serviço não encontrado para atualização."})
		case errors.Is(err, store.ErrInvalidInterval):
			c.JSON(http.StatusBadRequest, gin.H{"erro": "hora_fim deve ser depois de hora_inicio"})
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"erro": "Agendamento não encontrado"})
		case errors.Is(err, store.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"erro": "Horário indisponível. Já existe um agendamento nesse intervalo."})
		default:
			h.log.Error("booking update failed", slog.Any("err", err), slog.Int64("booking_id", id))
			c.JSON(http.StatusInternalServerError, gin.H{"erro": "Erro interno ao atualizar agendamento"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"mensagem": "Agendamento atualizado com sucesso"})
}

func (h *BookingsHandler) Delete(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"erro": "Agendamento não encontrado para exclusão"})
			return
		}
		h.log.Error("booking delete failed", slog.Any("err", err), slog.Int64("booking_id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"erro": "Erro interno ao deletar agendamento"})
		return
	}

	h.log.Info("booking deleted", slog.Int64("booking_id", id))
	c.Status(http.StatusNoContent)
}

func (h *BookingsHandler) Approve(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}

	if err := h.svc.Approve(c.Request.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"erro": "Agendamento não encontrado para aprovação"})
			return
		}
		h.log.Error("booking approve failed", slog.Any("err", err), slog.Int64("booking_id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"erro": "Erro ao aprovar o agendamento"})
		return
	}

	h.log.Info("booking approved", slog.Int64("booking_id", id))
	c.JSON(http.StatusOK, gin.H{
		"mensagem": fmt.Sprintf("Agendamento %d aprovado com sucesso. Este horário está bloqueado para novos clientes.", id),
	})
}

func bookingID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"erro": "Agendamento não encontrado"})
		return 0, false
	}
	return id, true
}
