package core

// validation.go holds the contact-field rules applied to users. Values that
// fail a rule are not errors: they are replaced with the Missing placeholder
// and counted per column.
//
// Rules see the cell exactly as it appears in the file. A phone number with
// surrounding spaces is rejected rather than trimmed into shape.

import (
	"regexp"
)

// Missing replaces phone numbers and emails that are empty or invalid.
const Missing = "MISSING"

var (
	// PhonePattern accepts 10 to 15 digits with an optional leading '+'.
	PhonePattern = regexp.MustCompile(`^\+?\d{10,15}$`)

	// EmailPattern requires a local@domain.tld prefix; anything may follow it.
	EmailPattern = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+`)
)
