package models

// CardTemplate is an immutable card definition. Within a template the
// front and back values have opposite parity, both in [1,9].
type CardTemplate struct {
	ID         int64 `json:"id" redis:"id"`
	FrontValue int   `json:"front_value" redis:"front_value"`
	BackValue  int   `json:"back_value" redis:"back_value"`
	Copies     int   `json:"copies" redis:"copies"`
}
