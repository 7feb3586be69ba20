// Package qrcode renders payment QR codes for invoices using
// github.com/skip2/go-qrcode.
//
// PaymentPayload builds the ST00012 bank transfer string from a Payee and an
// invoice amount; GeneratePayment encodes it as PNG:
//
//	png, err := qrcode.GeneratePayment(qrcode.Payment{
//		Payee:   payee,
//		Amount:  inv.Amount.Amount,
//		Purpose: "Payment for invoice " + inv.Number,
//	}, 0)
//
// Generate and GenerateDataURI encode arbitrary content, for example a
// hosted checkout URL.
package qrcode
