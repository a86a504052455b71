package interfaces

import "errors"

// Error taxonomy shared by the access registry and the token ledger. Every
// failed operation wraps exactly one of these sentinels, and every failure
// leaves ledger state untouched.
var (
	// ErrUnauthorized is returned when the caller lacks the role or approval
	// an operation requires.
	ErrUnauthorized = errors.New("caller not authorized")

	// ErrNonExistentToken is returned when a token id has never been minted
	// or has been burned.
	ErrNonExistentToken = errors.New("token does not exist")

	// ErrZeroAddress is returned when the null principal appears where a
	// real identity is required.
	ErrZeroAddress = errors.New("zero principal not allowed")

	// ErrInvalidTokenID is returned for the reserved token id 0.
	ErrInvalidTokenID = errors.New("invalid token id")

	// ErrInvalidRole is returned for a role value outside the enumeration.
	ErrInvalidRole = errors.New("invalid role")

	// ErrAlreadyGranted is returned when granting a role the principal
	// already holds.
	ErrAlreadyGranted = errors.New("role already granted")

	// ErrNotGranted is returned when revoking a role the principal does not
	// hold.
	ErrNotGranted = errors.New("role not granted")

	// ErrRoleConflict is returned when a grant would violate the
	// creator/gallery mutual exclusion.
	ErrRoleConflict = errors.New("conflicting role held")

	// ErrDuplicateAffiliation is returned when adding an affiliation edge
	// that already exists.
	ErrDuplicateAffiliation = errors.New("affiliation already exists")

	// ErrNotAffiliated is returned when removing an affiliation edge that
	// does not exist.
	ErrNotAffiliated = errors.New("affiliation does not exist")

	// ErrSelfApproval is returned when approving the token's owner for its
	// own token, or naming oneself as operator.
	ErrSelfApproval = errors.New("self approval not allowed")

	// ErrRecipientRejected is returned when a safe transfer's receiver
	// acknowledgement fails; the transfer is rolled back in full.
	ErrRecipientRejected = errors.New("recipient rejected transfer")
)
