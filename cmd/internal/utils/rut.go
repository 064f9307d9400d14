package utils

import "strings"

// RUT lengths without separators: body of 7 or 8 digits plus the verifier.
const (
	RUTMinLength = 8
	RUTMaxLength = 9
)

// NormalizeRUT strips dots and the dash and upper-cases the verifier,
// "76.123.456-k" -> "76123456K".
func NormalizeRUT(rut string) string {
	r := strings.NewReplacer(".", "", "-", "", " ", "")
	return strings.ToUpper(r.Replace(strings.TrimSpace(rut)))
}

// FormatRUT renders a RUT the way it is printed on Chilean documents,
// "76123456K" -> "76.123.456-K". Invalid input is returned normalized.
func FormatRUT(rut string) string {
	n := NormalizeRUT(rut)
	if len(n) < RUTMinLength || len(n) > RUTMaxLength {
		return n
	}

	body, dv := n[:len(n)-1], n[len(n)-1:]
	var b strings.Builder
	for i, ch := range body {
		if i > 0 && (len(body)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(ch)
	}
	return b.String() + "-" + dv
}

func IsRUTValid(rut string) bool {
	n := NormalizeRUT(rut)
	if len(n) < RUTMinLength || len(n) > RUTMaxLength {
		return false
	}

	body, dv := n[:len(n)-1], n[len(n)-1]
	if !IsOnlyNumbers(body) {
		return false
	}

	// "11.111.111-1" and friends pass the modulo but are not issued
	if hasAllSameDigits(body) {
		return false
	}
	return calculateRUTDigit(body) == dv
}

func IsOnlyNumbers(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func hasAllSameDigits(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}

// calculateRUTDigit applies the modulo 11 algorithm with the cyclic 2..7 weights,
// walking the body right to left.
func calculateRUTDigit(body string) byte {
	sum, weight := 0, 2
	for i := len(body) - 1; i >= 0; i-- {
		sum += int(body[i]-'0') * weight
		weight++
		if weight > 7 {
			weight = 2
		}
	}

	switch rest := 11 - sum%11; rest {
	case 11:
		return '0'
	case 10:
		return 'K'
	default:
		return byte('0' + rest)
	}
}
