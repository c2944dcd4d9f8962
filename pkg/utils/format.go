package utils

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// GenerateID generates a unique identifier for alerts and deliveries
func GenerateID() string {
	return uuid.NewString()
}

// FormatAmount formats a SOL amount for display, trimming trailing zeros
func FormatAmount(amount float64) string {
	s := strconv.FormatFloat(amount, 'f', 9, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}

// ShortenAddress shortens a base58 address for display (e.g. "9xQe...RrWM")
func ShortenAddress(address string) string {
	if len(address) <= 12 {
		return address
	}
	return address[:4] + "..." + address[len(address)-4:]
}

// ShortenSignature shortens a transaction signature for display
func ShortenSignature(signature string) string {
	if len(signature) <= 16 {
		return signature
	}
	return signature[:8] + "..." + signature[len(signature)-8:]
}
