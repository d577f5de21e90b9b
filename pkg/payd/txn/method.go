package txn

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Method is a mobile-money payment channel tag
type Method string

const (
	MethodWave        Method = "wave"
	MethodOrangeMoney Method = "orange_money"
	MethodFreeMoney   Method = "free_money"
	MethodEMoney      Method = "e_money"
)

func (m Method) String() string {
	return string(m)
}

// Valid reports whether the method is a known payment channel
func (m Method) Valid() bool {
	_, ok := methodPhonePattern[m]
	return ok
}

var (
	// ErrUnknownMethod is returned when no payment channel matches the tag
	ErrUnknownMethod = errors.New("unknown payment method")
	// ErrInvalidPhone is returned when a subscriber number fails the
	// channel-specific format check
	ErrInvalidPhone = errors.New("invalid phone number for payment method")
)

const countryCode = "221"

// subscriber number patterns per channel, normalized form
//
// Orange Money runs on the 77/78 prefixes, Free Money on 76,
// E-Money (Expresso) on 70. Wave accepts wallets on any local
// mobile operator.
var methodPhonePattern = map[Method]*regexp.Regexp{
	MethodWave:        regexp.MustCompile(`^221(70|75|76|77|78)\d{7}$`),
	MethodOrangeMoney: regexp.MustCompile(`^221(77|78)\d{7}$`),
	MethodFreeMoney:   regexp.MustCompile(`^22176\d{7}$`),
	MethodEMoney:      regexp.MustCompile(`^22170\d{7}$`),
}

var phoneStrip = strings.NewReplacer(" ", "", "-", "", ".", "", "(", "", ")", "")

// NormalizePhone reduces a user-entered subscriber number to digits only
// with the country code applied
func NormalizePhone(phone string) string {
	p := phoneStrip.Replace(strings.TrimSpace(phone))
	p = strings.TrimPrefix(p, "+")
	p = strings.TrimPrefix(p, "00")
	if len(p) == 9 && p[0] == '7' {
		p = countryCode + p
	}
	return p
}

// ValidatePhone checks a normalized subscriber number against the
// channel-specific format
//
// This is a local check. It must pass before any gateway call is made.
func ValidatePhone(m Method, phone string) error {
	pattern, ok := methodPhonePattern[m]
	if !ok {
		return ErrUnknownMethod
	}
	if !pattern.MatchString(phone) {
		return fmt.Errorf("%w %s: %s", ErrInvalidPhone, m, phone)
	}
	return nil
}
