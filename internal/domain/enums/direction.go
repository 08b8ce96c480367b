package enums

import "strings"

type Direction string

const (
	DirectionRight Direction = "right"
	DirectionLeft  Direction = "left"
)

func (d Direction) Positive() bool {
	return d == DirectionRight
}

func (d Direction) Valid() bool {
	return d == DirectionRight || d == DirectionLeft
}

// ParseDirection accepts the wire values plus the aliases older clients send.
func ParseDirection(raw string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "right", "like", "positive", "yes":
		return DirectionRight, true
	case "left", "dislike", "pass", "negative", "no":
		return DirectionLeft, true
	default:
		return "", false
	}
}
