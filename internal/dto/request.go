package dto

import "github.com/busbooking/reservation-service/internal/service"

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type PassengerRequest struct {
	Name   string `json:"name"`
	Age    int    `json:"age"`
	Gender string `json:"gender"`
}

type CreateBookingRequest struct {
	ScheduleID    uint               `json:"schedule_id"`
	Passengers    []PassengerRequest `json:"passengers"`
	PaymentMethod string             `json:"payment_method"`
}

type ConfirmPaymentRequest struct {
	TransactionID string `json:"transaction_id"`
	Succeeded     bool   `json:"succeeded"`
}

func (r CreateBookingRequest) ToReserveInput(userID uint) service.ReserveInput {
	passengers := make([]service.PassengerInput, len(r.Passengers))
	for i, p := range r.Passengers {
		passengers[i] = service.PassengerInput{Name: p.Name, Age: p.Age, Gender: p.Gender}
	}
	return service.ReserveInput{
		UserID:        userID,
		ScheduleID:    r.ScheduleID,
		Passengers:    passengers,
		PaymentMethod: r.PaymentMethod,
	}
}
