package domain

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

const (
	StatusPending  = "PENDENTE"
	StatusApproved = "APROVADO"
)

// ValidStatus reports whether s is one of the two booking states. There are
// no other states; cancellation is handled by deleting the row.
func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusApproved
}

type Service struct {
	bun.BaseModel `bun:"table:servicos,alias:s"`

	ID              int64   `bun:"id,pk,autoincrement"`
	Name            string  `bun:"nome,notnull"`
	Description     string  `bun:"descricao"`
	Price           float64 `bun:"preco,notnull"`
	DurationMinutes int     `bun:"duracao_minutos,notnull"`
}

// Booking occupies the half-open interval [StartTime, EndTime) on Date. Two
// bookings may touch endpoint to endpoint without conflicting.
type Booking struct {
	bun.BaseModel `bun:"table:agendamentos,alias:a"`

	ID            int64     `bun:"id,pk,autoincrement"`
	ClientName    string    `bun:"cliente_nome,notnull"`
	ClientContact string    `bun:"cliente_whatsapp,notnull"`
	ServiceID     int64     `bun:"servico_id,notnull"`
	Date          time.Time `bun:"data_agendamento,type:date,notnull"`
	StartTime     TimeOfDay `bun:"hora_inicio,type:time,notnull"`
	EndTime       TimeOfDay `bun:"hora_fim,type:time,notnull"`
	Status        string    `bun:"status,notnull"`
	CreatedAt     time.Time `bun:"data_registro,notnull"`

	Service *Service `bun:"rel:belongs-to,join:servico_id=id"`
}

func (b *Booking) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok {
		if b.CreatedAt.IsZero() {
			b.CreatedAt = time.Now().UTC()
		}
		if b.Status == "" {
			b.Status = StatusPending
		}
	}
	return nil
}

// Active reports whether the booking holds its slot. Pending requests block
// the calendar just like approved ones (first come, first served).
func (b Booking) Active() bool {
	return b.Status == StatusPending || b.Status == StatusApproved
}

// OccupiedSlot is one taken interval on a given day, with the duration of the
// booked service for display.
type OccupiedSlot struct {
	StartTime       TimeOfDay `json:"hora_inicio"`
	EndTime         TimeOfDay `json:"hora_fim"`
	DurationMinutes int       `json:"duracao_minutos"`
}

type User struct {
	bun.BaseModel `bun:"table:usuarios,alias:u"`

	ID           int64  `bun:"id,pk,autoincrement"`
	Name         string `bun:"nome"`
	Username     string `bun:"username,notnull"`
	Email        string `bun:"email,notnull"`
	PasswordHash string `bun:"password_hash,notnull"`
	IsAdmin      bool   `bun:"is_admin,notnull"`
}
