package hospitable

import "encoding/json"

// Property is one listing as reported by the provider.
type Property struct {
	ID   json.Number `json:"id"`
	Name string      `json:"name"`
}

// Reservation is one stay as reported by the provider. Checkin and
// Checkout are local-naive ISO-8601 timestamps ("2006-01-02T15:04:05");
// the caller resolves the property timezone.
type Reservation struct {
	Guest    string `json:"guest"`
	Phone    string `json:"phone"`
	Checkin  string `json:"checkin"`
	Checkout string `json:"checkout"`
}

// TimestampLayout is the wire format of reservation times.
const TimestampLayout = "2006-01-02T15:04:05"

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Flow     string `json:"flow"`
}

type loginResponse struct {
	Data struct {
		Token string `json:"token"`
	} `json:"data"`
}

type propertiesResponse struct {
	Data []Property `json:"data"`
}

type reservationsResponse struct {
	Data []Reservation `json:"data"`
}
