package medications

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidTimeFormat = errors.New("invalid time format")

// Clock es una hora del día (24h) ya validada.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parsea "HH:MM". Horas 0-23, minutos 0-59.
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}

	h, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	m, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return Clock{}, fmt.Errorf("%w: %q out of range", ErrInvalidTimeFormat, s)
	}

	return Clock{Hour: h, Minute: m}, nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// slot es una entrada válida de Times, con el string original tal cual se guardó.
// Las dismissals comparan contra ese string, no contra el Clock normalizado.
type slot struct {
	raw   string
	clock Clock
}
