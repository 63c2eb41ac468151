// Package bank validates US bank account details for payout destinations.
// Every function returns a structured verdict and never panics; the aggregate
// check collects all failing reasons so a caller can surface them together.
package bank

import (
	"regexp"
	"strings"

	"coaching-platform/internal/models"
)

// routingWeights are the ABA check-digit weights applied to the nine digits
// of a routing number in order.
var routingWeights = [9]int{3, 7, 1, 3, 7, 1, 3, 7, 1}

// knownBankFragments is a best-effort allow-list of US bank name fragments.
// Matching is case-insensitive substring membership; it is a heuristic guard
// against typos, not an exhaustive registry.
var knownBankFragments = []string{
	"chase",
	"bank of america",
	"wells fargo",
	"citibank",
	"citi",
	"u.s. bank",
	"us bank",
	"pnc",
	"goldman sachs",
	"truist",
	"capital one",
	"td bank",
	"fifth third",
	"citizens",
	"keybank",
	"regions",
	"m&t",
	"huntington",
	"ally",
	"bmo",
	"first republic",
	"santander",
	"navy federal",
	"charles schwab",
	"discover",
	"synchrony",
	"credit union",
}

var (
	digitsOnly     = regexp.MustCompile(`^[0-9]+$`)
	lettersAndSpace = regexp.MustCompile(`^[A-Za-z ]+$`)
)

// ValidateRoutingNumber checks that the value is exactly nine ASCII digits
// and satisfies the ABA checksum: the weighted digit sum must be divisible
// by ten.
func ValidateRoutingNumber(value string) bool {
	if len(value) != 9 || !digitsOnly.MatchString(value) {
		return false
	}
	sum := 0
	for i := 0; i < 9; i++ {
		sum += int(value[i]-'0') * routingWeights[i]
	}
	return sum%10 == 0
}

// ValidateAccountNumber checks that the value is 4 to 17 digits
func ValidateAccountNumber(value string) bool {
	if len(value) < 4 || len(value) > 17 {
		return false
	}
	return digitsOnly.MatchString(value)
}

// ValidateBankName checks the value against the known bank fragment list
func ValidateBankName(value string) bool {
	name := strings.ToLower(strings.TrimSpace(value))
	if name == "" {
		return false
	}
	for _, fragment := range knownBankFragments {
		if strings.Contains(name, fragment) {
			return true
		}
	}
	return false
}

// ValidateAccountHolderName checks for at least two space-separated name
// tokens of two or more letters each, letters and spaces only.
func ValidateAccountHolderName(value string) bool {
	if !lettersAndSpace.MatchString(value) {
		return false
	}
	tokens := strings.Fields(value)
	if len(tokens) < 2 {
		return false
	}
	for _, token := range tokens {
		if len(token) < 2 {
			return false
		}
	}
	return true
}

// Result aggregates the outcome of validating a full bank account record
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// ValidateAccount runs every check against the record and reports all
// failures, not just the first.
func ValidateAccount(account models.BankAccount) Result {
	var errs []string
	if !ValidateRoutingNumber(account.RoutingNumber) {
		errs = append(errs, "routing number must be 9 digits with a valid ABA checksum")
	}
	if !ValidateAccountNumber(account.AccountNumber) {
		errs = append(errs, "account number must be 4 to 17 digits")
	}
	if !ValidateBankName(account.BankName) {
		errs = append(errs, "bank name is not a recognized US bank")
	}
	if !ValidateAccountHolderName(account.HolderName) {
		errs = append(errs, "account holder name must be a full name using letters only")
	}
	return Result{Valid: len(errs) == 0, Errors: errs}
}
