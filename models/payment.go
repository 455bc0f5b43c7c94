package models

// PaymentStatusPaid is the checkout session status required before a booking
// may be confirmed.
const PaymentStatusPaid = "paid"

// PaymentSession is a normalized projection of a provider checkout session.
// Metadata carries the fields written at checkout start (mentorId, serviceId,
// date, time, guestName, guestEmail) and doubles as a fallback data source when
// the local booking row is missing.
type PaymentSession struct {
	ID            string            `json:"id"`
	PaymentStatus string            `json:"paymentStatus"`
	Metadata      map[string]string `json:"metadata"`
	CustomerName  string            `json:"customerName,omitempty"`
	CustomerEmail string            `json:"customerEmail,omitempty"`
	AmountTotal   int64             `json:"amountTotal,omitempty"`
	Currency      string            `json:"currency,omitempty"`
}

// Paid reports whether the session completed payment.
func (s *PaymentSession) Paid() bool {
	return s.PaymentStatus == PaymentStatusPaid
}
