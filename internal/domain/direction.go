package domain

// Direction selects the ranking order for mover queries.
type Direction string

const (
	DirectionGainers Direction = "gainers"
	DirectionLosers  Direction = "losers"
)

// String returns the string representation of Direction.
func (d Direction) String() string {
	return string(d)
}

// IsValid checks if the direction is a valid value.
func (d Direction) IsValid() bool {
	return d == DirectionGainers || d == DirectionLosers
}
