package interfaces

// AccessControl is the narrow authorization surface the token ledger depends
// on. Keeping it to a single method lets the ledger be tested against a mock
// without dragging in the full registry contract.
type AccessControl interface {
	// HasRole reports whether the principal currently holds the role. Pure
	// lookup, no side effects.
	HasRole(role Role, principal Principal) bool
}

// AccessRegistry manages role assignments and the gallery/artist affiliation
// graph. All mutations are caller-gated; the caller is always the first
// argument and is never inferred from ambient state.
type AccessRegistry interface {
	AccessControl

	// GrantRole assigns a role. The caller must hold the role's admin role
	// (Administrator unless reassigned).
	GrantRole(caller Principal, role Role, principal Principal) error

	// RevokeRole removes a role. Revoking Gallery or Creator also removes
	// the principal's affiliation edges in the same atomic update.
	RevokeRole(caller Principal, role Role, principal Principal) error

	// AddAffiliation links a gallery principal to an artist principal.
	AddAffiliation(caller, gallery, artist Principal) error

	// RemoveAffiliation unlinks a gallery principal from an artist principal.
	RemoveAffiliation(caller, gallery, artist Principal) error

	// ReassignRoleAdmin changes which role governs grant and revoke
	// authority over role.
	ReassignRoleAdmin(caller Principal, role Role, adminRole Role) error

	// RoleAdmin returns the role currently governing role.
	RoleAdmin(role Role) Role

	// AffiliatedArtists lists the artists linked to a gallery.
	AffiliatedArtists(gallery Principal) []Principal

	// AffiliatedGalleries lists the galleries linked to an artist.
	AffiliatedGalleries(artist Principal) []Principal
}

// TokenLedger owns token existence, ownership, approvals, and metadata.
// Every operation is atomic: it runs to completion or leaves no trace.
type TokenLedger interface {
	// Name returns the collection name constant.
	Name() string

	// Symbol returns the collection symbol constant.
	Symbol() string

	// Mint creates the next token for to. The caller must hold the
	// contract-whitelist role.
	Mint(caller, to Principal, uri string) (TokenID, error)

	// SetTokenURI overwrites a token's metadata URI. Administrator only.
	SetTokenURI(caller Principal, id TokenID, uri string) error

	// TokenURI returns a token's metadata URI.
	TokenURI(id TokenID) (string, error)

	// Exists reports whether the token id refers to a live token.
	Exists(id TokenID) bool

	// Burn destroys a token. Only the current owner may burn; approved
	// delegates and operators may not.
	Burn(caller Principal, id TokenID) error

	// Approve sets the token's single approval slot. The zero principal
	// clears it.
	Approve(caller, approved Principal, id TokenID) error

	// SetApprovalForAll grants or revokes operator rights over all of the
	// caller's tokens.
	SetApprovalForAll(caller, operator Principal, approved bool) error

	// TransferFrom reassigns ownership, clearing any per-token approval.
	TransferFrom(caller, from, to Principal, id TokenID) error

	// SafeTransferFrom transfers and then requires the recipient's
	// acknowledgement if the recipient is callback-capable. A rejected
	// acknowledgement rolls the whole transfer back.
	SafeTransferFrom(caller, from, to Principal, id TokenID, data []byte) error

	// BalanceOf returns the number of tokens owned by owner.
	BalanceOf(owner Principal) (uint64, error)

	// OwnerOf returns the token's current owner.
	OwnerOf(id TokenID) (Principal, error)

	// GetApproved returns the token's approved principal, zero if none.
	GetApproved(id TokenID) (Principal, error)

	// IsApprovedForAll reports whether operator is approved for all of
	// owner's tokens.
	IsApprovedForAll(owner, operator Principal) bool

	// TokenTransferCount returns the token's ownership-change counter.
	// Minting sets it to 1; every transfer increments it.
	TokenTransferCount(id TokenID) (uint64, error)

	// TotalSupply returns the number of live tokens.
	TotalSupply() uint64

	// LastTokenID returns the most recently allocated token id.
	LastTokenID() TokenID
}

// TokenReceiver is the acknowledgement callback a callback-capable recipient
// must satisfy. The returned selector must equal ReceiverAcceptanceMarker for
// the transfer to stand; anything else, or an error, rejects it.
type TokenReceiver interface {
	OnTokenReceived(operator, from Principal, id TokenID, data []byte) (CapabilitySelector, error)
}

// ReceiverResolver decides whether a principal is a callback-capable
// recipient. A nil result means a plain account: the acknowledgement step is
// skipped entirely.
type ReceiverResolver interface {
	ReceiverFor(principal Principal) TokenReceiver
}

// ReceiverResolverFunc adapts a function to the ReceiverResolver interface.
type ReceiverResolverFunc func(Principal) TokenReceiver

// ReceiverFor implements ReceiverResolver.
func (f ReceiverResolverFunc) ReceiverFor(principal Principal) TokenReceiver {
	if f == nil {
		return nil
	}
	return f(principal)
}

// CapabilityRegistrar receives the ledger's capability flags. Registration
// happens once, at construction.
type CapabilityRegistrar interface {
	RegisterCapability(selector CapabilitySelector)
}
