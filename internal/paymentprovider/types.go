package paymentprovider

// Amount денежная сумма в формате провайдера.
type Amount struct {
	Value    string `json:"value"`    // Десятичная строка, например "1490.00"
	Currency string `json:"currency"` // Код валюты, например "RUB"
}

// Confirmation сценарий подтверждения платежа покупателем.
type Confirmation struct {
	Type      string `json:"type"`                 // Всегда "redirect"
	ReturnURL string `json:"return_url,omitempty"` // Куда вернуть покупателя после оплаты
	URL       string `json:"confirmation_url,omitempty"`
}

// CreatePaymentRequest запрос на создание платежа.
type CreatePaymentRequest struct {
	Amount       Amount       `json:"amount"`
	Capture      bool         `json:"capture"`
	Confirmation Confirmation `json:"confirmation"`
	Description  string       `json:"description,omitempty"`
}

// CreatePaymentResponse ответ провайдера на создание платежа.
type CreatePaymentResponse struct {
	ID           string       `json:"id"`     // Идентификатор платежа у провайдера
	Status       string       `json:"status"` // pending / waiting_for_capture / succeeded / canceled
	Amount       Amount       `json:"amount"`
	Confirmation Confirmation `json:"confirmation"`
}

// Статусы события вебхука провайдера.
const (
	EventPaymentSucceeded = "payment.succeeded"
	EventPaymentCanceled  = "payment.canceled"
)

// PaymentObject платеж внутри события вебхука.
type PaymentObject struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount Amount `json:"amount"`
}

// WebhookEvent уведомление провайдера об изменении статуса платежа.
type WebhookEvent struct {
	Event  string        `json:"event"`
	Object PaymentObject `json:"object"`
}
