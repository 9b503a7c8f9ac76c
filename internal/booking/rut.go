package booking

import "strings"

// Chilean RUT validation. The check digit is computed with the standard
// module-11 algorithm: body digits are summed least-significant first with a
// cycling weight of 2..7, then 11-(sum mod 11) maps to the check character
// (11 -> '0', 10 -> 'K').

func cleanRUT(rut string) string {
	r := strings.NewReplacer(".", "", "-", "", " ", "")
	return strings.ToUpper(r.Replace(rut))
}

func rutCheckDigit(body string) (byte, bool) {
	sum := 0
	multiplier := 2
	for i := len(body) - 1; i >= 0; i-- {
		d := body[i]
		if d < '0' || d > '9' {
			return 0, false
		}
		sum += int(d-'0') * multiplier
		if multiplier == 7 {
			multiplier = 2
		} else {
			multiplier++
		}
	}

	switch v := 11 - (sum % 11); v {
	case 11:
		return '0', true
	case 10:
		return 'K', true
	default:
		return byte('0' + v), true
	}
}

// ValidateRUT reports whether a RUT's check digit matches its body.
func ValidateRUT(rut string) bool {
	clean := cleanRUT(rut)
	if len(clean) < 8 || len(clean) > 9 {
		return false
	}

	body := clean[:len(clean)-1]
	verifier := clean[len(clean)-1]

	expected, ok := rutCheckDigit(body)
	if !ok {
		return false
	}
	return verifier == expected
}

// FormatRUT normalizes a RUT to "12.345.678-5" form. Idempotent.
func FormatRUT(rut string) string {
	clean := cleanRUT(rut)
	if len(clean) < 2 {
		return clean
	}

	body := clean[:len(clean)-1]
	verifier := clean[len(clean)-1:]

	var b strings.Builder
	for i, c := range body {
		rest := len(body) - i
		if i > 0 && rest%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(c)
	}
	return b.String() + "-" + verifier
}
