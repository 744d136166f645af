// internal/channel/reply.go
package channel

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Reply is a raw controller answer: a status integer followed by
// comma-separated output values
type Reply string

// Status parses the leading status integer. Unparsable replies yield StatusUnparsed.
func (r Reply) Status() int {
	v, ok := r.ScanStatus()
	if !ok {
		return StatusUnparsed
	}
	return v
}

// ScanStatus parses the leading status integer and reports whether there was one
func (r Reply) ScanStatus() (int, bool) {
	v, ok := scanInt(string(r))
	return int(v), ok
}

// Fields splits the reply on commas, status included
func (r Reply) Fields() []string {
	if r == "" {
		return nil
	}
	parts := strings.Split(string(r), ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// Values returns the output values that follow the status
func (r Reply) Values() []string {
	fields := r.Fields()
	if len(fields) <= 1 {
		return nil
	}
	return fields[1:]
}

// Expect reports whether the reply carries at least n output values
func (r Reply) Expect(n int) bool {
	return strings.Count(string(r), ",") >= n
}

// Int parses output value i as an integer
func (r Reply) Int(i int) (int64, error) {
	v, err := r.value(i)
	if err != nil {
		return 0, err
	}
	n, ok := scanInt(v)
	if !ok {
		return 0, fmt.Errorf("value %d %q is not an integer", i, v)
	}
	return n, nil
}

// Decimal parses output value i as an exact decimal (positions, velocities)
func (r Reply) Decimal(i int) (decimal.Decimal, error) {
	v, err := r.value(i)
	if err != nil {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse value %d: %w", i, err)
	}
	return d, nil
}

func (r Reply) value(i int) (string, error) {
	values := r.Values()
	if i < 0 || i >= len(values) {
		return "", fmt.Errorf("value %d out of range (reply has %d)", i, len(values))
	}
	return values[i], nil
}

// Placeholders counts the '*' output arguments a command asks for
func Placeholders(command string) int {
	return strings.Count(command, "*")
}

// scanInt reads a leading integer the way C's %i conversion does:
// optional sign, then 0x-prefixed hex, 0-prefixed octal or decimal.
func scanInt(s string) (int64, bool) {
	s = strings.TrimLeft(s, " \t\r\n")

	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	base := 10
	switch {
	case len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') && isDigit(s[2], 16):
		base = 16
		s = s[2:]
	case s != "" && s[0] == '0':
		base = 8
	}

	end := 0
	for end < len(s) && isDigit(s[end], base) {
		end++
	}
	if end == 0 {
		return 0, false
	}

	v, err := strconv.ParseInt(s[:end], base, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		v = -v
	}
	return v, true
}

func isDigit(c byte, base int) bool {
	switch base {
	case 8:
		return c >= '0' && c <= '7'
	case 16:
		return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
	default:
		return c >= '0' && c <= '9'
	}
}
