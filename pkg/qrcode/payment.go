package qrcode

import (
	"errors"
	"strconv"
	"strings"
)

// ErrInvalidPayment is returned when payment details cannot form a payload.
var ErrInvalidPayment = errors.New("invalid payment details")

// Payee identifies the bank account that receives invoice payments.
type Payee struct {
	Name        string `env:"PAYEE_NAME"`
	Account     string `env:"PAYEE_ACCOUNT"`
	BankName    string `env:"PAYEE_BANK_NAME"`
	BIC         string `env:"PAYEE_BIC"`
	CorrAccount string `env:"PAYEE_CORR_ACCOUNT"`
	TaxID       string `env:"PAYEE_TAX_ID"`
}

// Payment is one bank transfer encoded in a payment QR code.
type Payment struct {
	Payee   Payee
	Amount  int64 // minor units
	Purpose string
}

// PaymentPayload builds the "ST00012" unified payment string understood by
// Russian banking apps. Field values must not contain the '|' separator.
func PaymentPayload(p Payment) (string, error) {
	if p.Payee.Name == "" || p.Payee.Account == "" || p.Payee.BIC == "" || p.Amount <= 0 {
		return "", ErrInvalidPayment
	}

	fields := [][2]string{
		{"Name", p.Payee.Name},
		{"PersonalAcc", p.Payee.Account},
		{"BankName", p.Payee.BankName},
		{"BIC", p.Payee.BIC},
		{"CorrespAcc", p.Payee.CorrAccount},
		{"PayeeINN", p.Payee.TaxID},
		{"Sum", strconv.FormatInt(p.Amount, 10)},
		{"Purpose", p.Purpose},
	}

	var b strings.Builder
	b.WriteString("ST00012")
	for _, f := range fields {
		if f[1] == "" {
			continue
		}
		if strings.ContainsRune(f[1], '|') {
			return "", errors.Join(ErrInvalidPayment, errors.New(f[0]+" contains '|'"))
		}
		b.WriteByte('|')
		b.WriteString(f[0])
		b.WriteByte('=')
		b.WriteString(f[1])
	}
	return b.String(), nil
}

// GeneratePayment renders the payment payload as a PNG.
func GeneratePayment(p Payment, size int) ([]byte, error) {
	payload, err := PaymentPayload(p)
	if err != nil {
		return nil, err
	}
	return Generate(payload, size)
}
