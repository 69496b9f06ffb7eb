// api/model/address.go
package model

import (
	"regexp"
	"strings"
)

// Address identifies a principal or target account on the ledger: a
// 0x-prefixed, 40-hex-digit string. Validity is purely syntactic; it says
// nothing about whether the account exists or holds any capability.
type Address string

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

func (a Address) Valid() bool {
	return addressPattern.MatchString(string(a))
}

// Normalize lower-cases the address so that two spellings of the same account
// compare (and cache) identically.
func (a Address) Normalize() Address {
	return Address(strings.ToLower(string(a)))
}

func (a Address) String() string {
	return string(a)
}
