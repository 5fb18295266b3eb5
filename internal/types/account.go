package types

import (
	"fmt"
	"strings"
)

// Account identifies a ledger account. The engine treats it as an opaque
// lowercase identifier supplied by the base ledger.
type Account string

func (a Account) String() string {
	return string(a)
}

// NormalizeAccount lowercases and trims an account identifier so that lookups
// keyed by account identity are case-insensitive.
func NormalizeAccount(raw string) (Account, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("account identifier is empty")
	}
	return Account(strings.ToLower(trimmed)), nil
}
