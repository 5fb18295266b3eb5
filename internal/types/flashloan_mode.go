package types

import "fmt"

// Enum values for the anti-flashloan policy. PENALIZE applies the maximum
// bracket rate to a flagged transfer; REJECT additionally fails the transfer.
type AntiFlashloanMode string

const (
	AntiFlashloanOff      AntiFlashloanMode = "OFF"
	AntiFlashloanPenalize AntiFlashloanMode = "PENALIZE"
	AntiFlashloanReject   AntiFlashloanMode = "REJECT"
)

func (m AntiFlashloanMode) String() string {
	return string(m)
}

func (m AntiFlashloanMode) Enabled() bool {
	return m == AntiFlashloanPenalize || m == AntiFlashloanReject
}

func ParseAntiFlashloanMode(raw string) (AntiFlashloanMode, error) {
	switch AntiFlashloanMode(raw) {
	case AntiFlashloanOff, AntiFlashloanPenalize, AntiFlashloanReject:
		return AntiFlashloanMode(raw), nil
	}
	return "", fmt.Errorf("anti-flashloan mode %q is not one of {%s, %s, %s}",
		raw, AntiFlashloanOff, AntiFlashloanPenalize, AntiFlashloanReject)
}
