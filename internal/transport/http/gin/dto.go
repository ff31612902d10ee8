package httpgin

import (
	"github.com/kirinyoku/wedgo/internal/domain"
	"github.com/kirinyoku/wedgo/internal/service/invitation"
)

// ValueBody wraps every single-slice read and write: {"value": ...}.
type ValueBody[T any] struct {
	Value T `json:"value"`
}

type CreateInvitationRequest struct {
	Name        string `json:"name" binding:"required"`
	DisplayName string `json:"displayName"`
}

func (r CreateInvitationRequest) toService() invitation.NewInvitation {
	return invitation.NewInvitation{Name: r.Name, DisplayName: r.DisplayName}
}

// CommentRequest is a guest post when Token is set, otherwise an owner post.
type CommentRequest struct {
	Slug     string            `json:"slug"`
	Token    string            `json:"token"`
	Alias    string            `json:"alias"`
	Text     string            `json:"text" binding:"required"`
	IsComing domain.Attendance `json:"isComing"`
}

type RecordPaymentRequest struct {
	OrderID string `json:"orderId" binding:"required"`
	Amount  int64  `json:"amount" binding:"required,gt=0"`
	Guests  int    `json:"guests" binding:"gte=0"`
	Days    int    `json:"activeDays" binding:"gte=0"`
	Method  string `json:"method"`
}

func (r RecordPaymentRequest) toDomain() domain.Payment {
	return domain.Payment{
		OrderID:    r.OrderID,
		Amount:     r.Amount,
		Guests:     r.Guests,
		ActiveDays: r.Days,
		Method:     r.Method,
	}
}

type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

type DeletedResponse struct {
	Deleted bool `json:"deleted"`
}
