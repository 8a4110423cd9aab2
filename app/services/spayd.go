package services

import (
	"encoding/base64"
	"strings"

	"github.com/shopspring/decimal"
	qrcode "github.com/skip2/go-qrcode"
)

// BuildSPAYD formats a Czech Short Payment Descriptor string:
//
//	SPD*1.0*ACC:<account>*CC:CZK[*AM:<amount>][*MSG:<msg>][*X-VS:<vs>][*X-SS:<ss>]
//
// The message is truncated to 60 characters per the SPAYD spec. amount may
// be nil for a generic "scan and fill in yourself" code.
func BuildSPAYD(accountID string, amount *decimal.Decimal, message, variableSymbol, specificSymbol string) string {
	parts := []string{"SPD*1.0", "ACC:" + accountID, "CC:CZK"}
	if amount != nil {
		parts = append(parts, "AM:"+amount.String())
	}
	if message != "" {
		// Truncate by characters, not bytes; Czech titles are multi-byte.
		if r := []rune(message); len(r) > 60 {
			message = string(r[:60])
		}
		parts = append(parts, "MSG:"+message)
	}
	if variableSymbol != "" {
		parts = append(parts, "X-VS:"+variableSymbol)
	}
	if specificSymbol != "" {
		parts = append(parts, "X-SS:"+specificSymbol)
	}
	return strings.Join(parts, "*")
}

// GenerateSPAYDQR renders the SPAYD string as a base64-encoded PNG suitable
// for an inline <img> data URI. Returns "" when the account id is missing
// or encoding fails; callers render the page without the QR code.
func GenerateSPAYDQR(accountID string, amount *decimal.Decimal, message, variableSymbol, specificSymbol string) string {
	if accountID == "" {
		return ""
	}
	payload := BuildSPAYD(accountID, amount, message, variableSymbol, specificSymbol)
	png, err := qrcode.Encode(payload, qrcode.Medium, 256)
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(png)
}
