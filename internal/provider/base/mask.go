package base

import (
	"strings"
	"unicode/utf8"
)

const maskSuffix = "***"

// MaskPhone keeps the first four characters: "+37369123456" -> "+373***".
func MaskPhone(phone string) string {
	return keepPrefix(strings.TrimSpace(phone), 4)
}

// MaskIDN keeps the last four characters: "2000000000001" -> "***0001".
func MaskIDN(idn string) string {
	idn = strings.TrimSpace(idn)
	if utf8.RuneCountInString(idn) < 4 {
		return maskSuffix
	}
	r := []rune(idn)
	return maskSuffix + string(r[len(r)-4:])
}

// MaskSecret keeps the first n characters of a credential, or returns "" when unset.
func MaskSecret(secret string, n int) string {
	if secret == "" {
		return ""
	}
	return keepPrefix(secret, n)
}

func keepPrefix(s string, n int) string {
	if s == "" {
		return maskSuffix
	}
	r := []rune(s)
	if len(r) <= n {
		return maskSuffix
	}
	return string(r[:n]) + maskSuffix
}
