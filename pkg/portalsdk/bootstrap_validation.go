package portalsdk

import (
	"net/mail"
	"strings"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 128
	maxFundNameLength = 100
)

// Validate checks the request and returns field errors, or nil.
func (r *BootstrapRequest) Validate() map[string]string {
	errs := make(map[string]string)

	name := strings.TrimSpace(r.FundName)
	switch {
	case name == "":
		errs["fundName"] = "fund name is required"
	case len(name) > maxFundNameLength:
		errs["fundName"] = "fund name must be at most 100 characters"
	}

	if _, err := mail.ParseAddress(strings.TrimSpace(r.OperatorEmail)); err != nil {
		errs["operatorEmail"] = "operator email is invalid"
	}

	switch {
	case len(r.OperatorPassword) < minPasswordLength:
		errs["operatorPassword"] = "password must be at least 8 characters"
	case len(r.OperatorPassword) > maxPasswordLength:
		errs["operatorPassword"] = "password must be at most 128 characters"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
