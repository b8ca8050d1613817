package reconcile

import (
	"strings"
)

// codeDigits is the length of the numeric code programmed on the device.
const codeDigits = 4

// DeriveLabel builds the deterministic label identifying a reservation's
// access code on a device: "Guest <firstname><YYYYMMDD>" where the date is
// the check-in date. The label uniquely identifies one reservation's code
// on one lock.
func DeriveLabel(r Reservation) (string, error) {
	first := firstNameToken(r.GuestName)
	if first == "" {
		return "", &ValidationError{Reason: "reservation has no guest name"}
	}
	return GuestLabelPrefix + " " + first + r.Checkin.Format("20060102"), nil
}

// DeriveRawCode extracts the numeric access code from a guest phone number:
// the last four digits after stripping all non-digit characters.
func DeriveRawCode(phone string) (string, error) {
	var digits strings.Builder
	for _, c := range phone {
		if c >= '0' && c <= '9' {
			digits.WriteRune(c)
		}
	}
	cleaned := digits.String()
	if len(cleaned) < codeDigits {
		return "", &ValidationError{Reason: "phone number has fewer than " +
			"4 digits, cannot derive an access code"}
	}
	return cleaned[len(cleaned)-codeDigits:], nil
}

// firstNameToken returns the first whitespace-separated token of a name,
// or "" when the name is empty or blank.
func firstNameToken(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
