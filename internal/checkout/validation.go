package checkout

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/fjod/holiday-rush/internal/domain"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	zipPattern   = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	cardPattern  = regexp.MustCompile(`^\d{16}$`)
	cvvPattern   = regexp.MustCompile(`^\d{3,4}$`)
)

const defaultCountry = "US"

func normalizeShipping(info domain.ShippingInfo) domain.ShippingInfo {
	info.FirstName = strings.TrimSpace(info.FirstName)
	info.LastName = strings.TrimSpace(info.LastName)
	info.Email = strings.TrimSpace(info.Email)
	info.ZipCode = strings.TrimSpace(info.ZipCode)
	if strings.TrimSpace(info.Country) == "" {
		info.Country = defaultCountry
	}
	return info
}

func ValidateShipping(info domain.ShippingInfo) error {
	fields := make(map[string]string)
	required(fields, "first_name", info.FirstName, "First name is required")
	required(fields, "last_name", info.LastName, "Last name is required")
	if required(fields, "email", info.Email, "Email is required") && !emailPattern.MatchString(info.Email) {
		fields["email"] = "Email is invalid"
	}
	required(fields, "address", info.Address, "Address is required")
	required(fields, "city", info.City, "City is required")
	required(fields, "state", info.State, "State is required")
	if required(fields, "zip_code", info.ZipCode, "ZIP code is required") && !zipPattern.MatchString(info.ZipCode) {
		fields["zip_code"] = "Invalid ZIP code"
	}
	return result(fields)
}

func ValidatePayment(info domain.PaymentInfo) error {
	fields := make(map[string]string)
	if required(fields, "card_number", info.CardNumber, "Card number is required") && !cardPattern.MatchString(stripSpaces(info.CardNumber)) {
		fields["card_number"] = "Invalid card number"
	}
	required(fields, "expiry_month", info.ExpiryMonth, "Expiry month is required")
	required(fields, "expiry_year", info.ExpiryYear, "Expiry year is required")
	if required(fields, "cvv", info.CVV, "CVV is required") && !cvvPattern.MatchString(info.CVV) {
		fields["cvv"] = "Invalid CVV"
	}
	required(fields, "name_on_card", info.NameOnCard, "Name on card is required")

	if !info.SameAsShipping {
		required(fields, "billing_address", info.BillingAddress, "Billing address is required")
		required(fields, "billing_city", info.BillingCity, "Billing city is required")
		required(fields, "billing_state", info.BillingState, "Billing state is required")
		required(fields, "billing_zip_code", info.BillingZipCode, "Billing ZIP code is required")
	}
	return result(fields)
}

// required records msg when v is blank and reports whether v was present.
func required(fields map[string]string, field, v, msg string) bool {
	if strings.TrimSpace(v) == "" {
		fields[field] = msg
		return false
	}
	return true
}

func result(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func last4(card string) string {
	digits := stripSpaces(card)
	if len(digits) <= 4 {
		return digits
	}
	return digits[len(digits)-4:]
}
