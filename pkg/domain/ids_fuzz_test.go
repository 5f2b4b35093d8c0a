//go:build go1.18

package domain

import (
	"testing"
	"unicode/utf8"
)

// FuzzParseEmployeeID checks that parsing never panics and that accepted input
// round-trips through String.
func FuzzParseEmployeeID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add("'; DROP TABLE employees;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))
	f.Add("550e8400-e29b-41d4-a716-446655440000\x00suffix")

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseEmployeeID(input)
		if err == nil {
			roundTrip, err2 := ParseEmployeeID(id.String())
			if err2 != nil {
				t.Errorf("valid ID failed round-trip: %v", err2)
			}
			if roundTrip != id {
				t.Error("round-trip changed ID value")
			}
		}
		if !utf8.ValidString(input) && err == nil {
			t.Error("non-UTF8 input was accepted")
		}
	})
}

// FuzzParseRole checks that only the four known roles parse.
func FuzzParseRole(f *testing.F) {
	f.Add("employee")
	f.Add("SUPER_ADMIN")
	f.Add("root")
	f.Add("")

	f.Fuzz(func(t *testing.T, input string) {
		role, err := ParseRole(input)
		if err == nil && role.Rank() == 0 {
			t.Errorf("parsed role %q has no rank", role)
		}
		if err != nil && role != "" {
			t.Errorf("failed parse returned role %q", role)
		}
	})
}
