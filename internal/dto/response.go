package dto

import (
	"time"

	"github.com/busbooking/reservation-service/internal/models"
)

type SeatResponse struct {
	SeatNumber    int    `json:"seat_number"`
	PassengerName string `json:"passenger_name"`
	Age           int    `json:"age"`
	Gender        string `json:"gender"`
}

type PaymentResponse struct {
	Amount        float64              `json:"amount"`
	Method        string               `json:"method"`
	Status        models.PaymentStatus `json:"status"`
	TransactionID *string              `json:"transaction_id,omitempty"`
	PaidAt        *time.Time           `json:"paid_at,omitempty"`
}

type BookingResponse struct {
	ID          uint                 `json:"id"`
	Reference   string               `json:"reference"`
	UserID      uint                 `json:"user_id"`
	ScheduleID  uint                 `json:"schedule_id"`
	Status      models.BookingStatus `json:"status"`
	SeatCount   int                  `json:"seat_count"`
	TotalAmount float64              `json:"total_amount"`
	Seats       []SeatResponse       `json:"seats,omitempty"`
	Payment     *PaymentResponse     `json:"payment,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
}

type UserResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Role  string `json:"role"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}

func ToBookingResponse(b *models.Booking) BookingResponse {
	resp := BookingResponse{
		ID:          b.ID,
		Reference:   b.Reference,
		UserID:      b.UserID,
		ScheduleID:  b.ScheduleID,
		Status:      b.Status,
		SeatCount:   b.SeatCount,
		TotalAmount: b.TotalAmount,
		CreatedAt:   b.CreatedAt,
	}
	if len(b.Seats) > 0 {
		resp.Seats = make([]SeatResponse, len(b.Seats))
		for i, s := range b.Seats {
			resp.Seats[i] = SeatResponse{
				SeatNumber:    s.SeatNumber,
				PassengerName: s.PassengerName,
				Age:           s.Age,
				Gender:        s.Gender,
			}
		}
	}
	if b.Payment != nil {
		resp.Payment = &PaymentResponse{
			Amount:        b.Payment.Amount,
			Method:        b.Payment.Method,
			Status:        b.Payment.Status,
			TransactionID: b.Payment.TransactionID,
			PaidAt:        b.Payment.PaidAt,
		}
	}
	return resp
}

func ToUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Phone: u.Phone,
		Role:  u.Role,
	}
}
