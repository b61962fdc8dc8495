package domain

import "time"

type OrderStatus string

const (
	OrderStatusConfirmed OrderStatus = "confirmed"
)

type ShippingInfo struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address"`
	Apartment string `json:"apartment,omitempty"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zip_code"`
	Country   string `json:"country"`
}

// PaymentInfo is transient form state. Only MaskedPayment outlives a checkout.
type PaymentInfo struct {
	CardNumber     string `json:"card_number"`
	ExpiryMonth    string `json:"expiry_month"`
	ExpiryYear     string `json:"expiry_year"`
	CVV            string `json:"cvv"`
	NameOnCard     string `json:"name_on_card"`
	BillingAddress string `json:"billing_address,omitempty"`
	BillingCity    string `json:"billing_city,omitempty"`
	BillingState   string `json:"billing_state,omitempty"`
	BillingZipCode string `json:"billing_zip_code,omitempty"`
	SameAsShipping bool   `json:"same_as_shipping"`
}

type MaskedPayment struct {
	CardLast4  string `json:"card_last4"`
	NameOnCard string `json:"name_on_card"`
}

type Order struct {
	ID                string        `json:"id"`
	Status            OrderStatus   `json:"status"`
	SessionID         string        `json:"session_id"`
	Items             []LineItem    `json:"items"`
	ShippingInfo      ShippingInfo  `json:"shipping_info"`
	PaymentInfo       MaskedPayment `json:"payment_info"`
	Pricing           Pricing       `json:"pricing"`
	AppliedCoupon     *Coupon       `json:"applied_coupon"`
	TransactionID     string        `json:"transaction_id"`
	CreatedAt         time.Time     `json:"created_at"`
	EstimatedDelivery time.Time     `json:"estimated_delivery"`
}

// OrderSummary is what a successful checkout hands back to the caller.
type OrderSummary struct {
	ID                string      `json:"id"`
	Status            OrderStatus `json:"status"`
	Total             string      `json:"total"`
	EstimatedDelivery time.Time   `json:"estimated_delivery"`
}

func (o *Order) Summary() OrderSummary {
	return OrderSummary{
		ID:                o.ID,
		Status:            o.Status,
		Total:             o.Pricing.Total.StringFixed(2),
		EstimatedDelivery: o.EstimatedDelivery,
	}
}
