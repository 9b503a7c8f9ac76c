package booking

import "github.com/centrobenavente/booking-server/internal/apperr"

// Local aliases keep call sites short inside the package.
var (
	validationError = apperr.Validation
	identifierError = apperr.InvalidIdentifier
	notFoundError   = apperr.NotFound
	conflictError   = apperr.Conflict
	policyError     = apperr.Policy
	transitionError = apperr.InvalidTransition
)
