// internal/costing/errors.go
package costing

import (
	"fmt"
	"strings"
)

// Validation codes returned by Calculate.
const (
	CodeSelectionRequired       = "selection_required"
	CodeNoEntries               = "no_entries"
	CodeInvalidQuantity         = "invalid_quantity"
	CodeInvalidEfficiencyFactor = "invalid_efficiency_factor"
	CodeProductInactive         = "product_inactive"
	CodeColorUnavailable        = "color_unavailable"
	CodeInvalidSubstitution     = "invalid_substitution"
)

// ValidationError blocks a calculation. Details carries the offending names
// (colors, yarns) when there are any.
type ValidationError struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, strings.Join(e.Details, ", "))
}

func newValidationError(code, message string, details ...string) *ValidationError {
	return &ValidationError{Code: code, Message: message, Details: details}
}

// MissingPriceWarning lists yarns that have a proportion but no price for the
// pricing date. The calculation still completes, using zero for them.
type MissingPriceWarning struct {
	Yarns []string `json:"yarns"`
}

func (w *MissingPriceWarning) String() string {
	return "missing yarn price: " + strings.Join(w.Yarns, ", ")
}
