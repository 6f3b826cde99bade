// Package params holds the plugin's parameter address table and the
// parameter tree built on top of it.
package params

import (
	"fmt"
	"math"
)

// Address identifies a parameter to the plugin host. Hosts persist
// automation and state by this number, so it is 64-bit unsigned to match
// the host's own address type.
type Address uint64

// Parameter addresses. Append only: never reuse or renumber an entry,
// hosts reference these numbers in saved sessions.
const (
	SendNote       Address = 0
	MIDINoteNumber Address = 1
)

// MaxAddress is the largest address a tree accepts. Address itself is
// 64-bit like the AU address type, but the table is kept within 32 bits so
// it also fits hosts with 32-bit parameter IDs such as VST3. Valid rejects
// anything above it.
const MaxAddress Address = math.MaxUint32

var addressNames = [...]string{
	SendNote:       "sendNote",
	MIDINoteNumber: "midiNoteNumber",
}

// Addresses returns every declared address in declaration order.
func Addresses() []Address {
	out := make([]Address, len(addressNames))
	for i := range addressNames {
		out[i] = Address(i)
	}
	return out
}

// Lookup resolves a symbolic name like "midiNoteNumber" to its address.
func Lookup(name string) (Address, bool) {
	for i, n := range addressNames {
		if n == name {
			return Address(i), true
		}
	}
	return 0, false
}

// Valid reports whether the address fits the host's ID range.
func (a Address) Valid() bool {
	return a <= MaxAddress
}

func (a Address) String() string {
	if a < Address(len(addressNames)) {
		return addressNames[a]
	}
	return fmt.Sprintf("Address(%d)", uint64(a))
}
