package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"agendaki/internal/domain"
	"agendaki/internal/store"
)

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

// ErrUnknownService marks a booking that references a service the catalog
// does not have. Distinct from store.ErrNotFound so the transport can answer
// 400 here and 404 for a missing booking id.
var ErrUnknownService = errors.New("unknown service")

type Service struct {
	bookings store.BookingRepository
	services store.ServiceRepository
}

func NewService(bookings store.BookingRepository, services store.ServiceRepository) *Service {
	return &Service{bookings: bookings, services: services}
}

type CreateInput struct {
	ClientName    string
	ClientContact string
	ServiceID     int64
	Date          string
	StartTime     string
	EndTime       string
}

// Create resolves the service, then delegates to the store, where the
// conflict check and the insert run inside one day-locked transaction. New
// bookings always start PENDENTE.
func (s *Service) Create(ctx context.Context, in CreateInput) (domain.Booking, error) {
	clientName := strings.TrimSpace(in.ClientName)
	if clientName == "" {
		return domain.Booking{}, validationError("cliente_nome é obrigatório")
	}
	clientContact := strings.TrimSpace(in.ClientContact)
	if clientContact == "" {
		return domain.Booking{}, validationError("cliente_whatsapp é obrigatório")
	}
	if in.ServiceID <= 0 {
		return domain.Booking{}, validationError("servico_id é obrigatório")
	}

	date, err := domain.ParseDate(in.Date)
	if err != nil {
		return domain.Booking{}, validationError("data_agendamento inválida (use AAAA-MM-DD)")
	}
	start, err := domain.ParseTimeOfDay(in.StartTime)
	if err != nil {
		return domain.Booking{}, validationError("hora_inicio inválida (use HH:MM)")
	}
	end, err := domain.ParseTimeOfDay(in.EndTime)
	if err != nil {
		return domain.Booking{}, validationError("hora_fim inválida (use HH:MM)")
	}
	if end <= start {
		return domain.Booking{}, validationError("hora_fim deve ser depois de hora_inicio")
	}

	svc, err := s.services.GetByID(ctx, in.ServiceID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Booking{}, fmt.Errorf("%w: serviço %d", ErrUnknownService, in.ServiceID)
	}
	if err != nil {
		return domain.Booking{}, err
	}

	return s.bookings.Create(ctx, domain.Booking{
		ClientName:    clientName,
		ClientContact: clientContact,
		ServiceID:     svc.ID,
		Date:          date,
		StartTime:     start,
		EndTime:       end,
		Status:        domain.StatusPending,
	})
}

func (s *Service) List(ctx context.Context) ([]domain.Booking, error) {
	return s.bookings.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (domain.Booking, error) {
	return s.bookings.Get(ctx, id)
}

type UpdateInput struct {
	ClientName    *string
	ClientContact *string
	ServiceID     *int64
	Date          *string
	StartTime     *string
	EndTime       *string
	Status        *string
}

// Update patches only the supplied fields. A new service reference is
// re-resolved; schedule changes are re-conflict-checked by the store.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) error {
	var patch store.BookingPatch

	if in.ClientName != nil {
		name := strings.TrimSpace(*in.ClientName)
		if name == "" {
			return validationError("cliente_nome não pode ser vazio")
		}
		patch.ClientName = &name
	}
	if in.ClientContact != nil {
		contact := strings.TrimSpace(*in.ClientContact)
		if contact == "" {
			return validationError("cliente_whatsapp não pode ser vazio")
		}
		patch.ClientContact = &contact
	}
	if in.ServiceID != nil {
		svc, err := s.services.GetByID(ctx, *in.ServiceID)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: serviço %d", ErrUnknownService, *in.ServiceID)
		}
		if err != nil {
			return err
		}
		patch.ServiceID = &svc.ID
	}
	if in.Date != nil {
		date, err := domain.ParseDate(*in.Date)
		if err != nil {
			return validationError("data_agendamento inválida (use AAAA-MM-DD)")
		}
		patch.Date = &date
	}
	if in.StartTime != nil {
		start, err := domain.ParseTimeOfDay(*in.StartTime)
		if err != nil {
			return validationError("hora_inicio inválida (use HH:MM)")
		}
		patch.StartTime = &start
	}
	if in.EndTime != nil {
		end, err := domain.ParseTimeOfDay(*in.EndTime)
		if err != nil {
			return validationError("hora_fim inválida (use HH:MM)")
		}
		patch.EndTime = &end
	}
	if in.Status != nil {
		status := strings.ToUpper(strings.TrimSpace(*in.Status))
		if !domain.ValidStatus(status) {
			return validationError("status inválido (use PENDENTE ou APROVADO)")
		}
		patch.Status = &status
	}

	if patch.Empty() {
		return validationError("nenhum campo válido para atualização fornecido")
	}

	return s.bookings.Update(ctx, id, patch)
}

// Approve transitions PENDENTE to APROVADO without a fresh conflict check;
// the slot was vetted when the request was created.
func (s *Service) Approve(ctx context.Context, id int64) error {
	return s.bookings.Approve(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.bookings.Delete(ctx, id)
}

// OccupiedSlots returns the taken intervals of one day, a snapshot of store
// state at call time. Consumers sort for display.
func (s *Service) OccupiedSlots(ctx context.Context, dateStr string) ([]domain.OccupiedSlot, error) {
	if strings.TrimSpace(dateStr) == "" {
		return nil, validationError("parâmetro 'data' é obrigatório")
	}
	date, err := domain.ParseDate(dateStr)
	if err != nil {
		return nil, validationError("data inválida (use AAAA-MM-DD)")
	}
	return s.bookings.OccupiedSlots(ctx, date)
}

func (s *Service) ListServices(ctx context.Context) ([]domain.Service, error) {
	return s.services.List(ctx)
}
