package interfaces

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// Principal is an opaque 20-byte account identity, the ledger's analog of an
// Ethereum address. The zero value represents absence: an unset owner, a
// cleared approval slot.
type Principal [20]byte

// ZeroPrincipal is the distinguished null identity.
var ZeroPrincipal Principal

// NewPrincipalFromBytes creates a principal from a raw 20-byte slice.
func NewPrincipalFromBytes(b []byte) (Principal, error) {
	if len(b) != 20 {
		return Principal{}, errors.New("invalid principal length: must be 20 bytes")
	}

	var p Principal
	copy(p[:], b)
	return p, nil
}

// NewPrincipalFromHex creates a principal from a 40-character hex string,
// with or without a 0x prefix.
func NewPrincipalFromHex(s string) (Principal, error) {
	clean := strings.TrimPrefix(s, "0x")
	if len(clean) != 40 {
		return Principal{}, errors.New("invalid principal length: hex string must be 40 characters")
	}

	b, err := hex.DecodeString(clean)
	if err != nil {
		return Principal{}, fmt.Errorf("invalid hex format: %w", err)
	}

	return NewPrincipalFromBytes(b)
}

// String returns the hex representation of the principal.
func (p Principal) String() string {
	return hex.EncodeToString(p[:])
}

// Bytes returns the raw 20-byte identity.
func (p Principal) Bytes() []byte {
	return p[:]
}

// IsZero reports whether the principal is the null identity.
func (p Principal) IsZero() bool {
	return p == ZeroPrincipal
}

// Equal compares two principals for equality.
func (p Principal) Equal(other Principal) bool {
	return p == other
}

// MarshalText implements encoding.TextMarshaler so principals can key JSON
// maps in persisted ledger state.
func (p Principal) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Principal) UnmarshalText(text []byte) error {
	parsed, err := NewPrincipalFromHex(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// TokenID identifies a token. Ids are allocated sequentially starting at 1;
// id 0 is reserved and never refers to a token.
type TokenID uint64

// Valid reports whether the id could ever refer to a token.
func (id TokenID) Valid() bool {
	return id != 0
}

// Role enumerates the authorization roles recognized by the access registry.
type Role uint8

const (
	// RoleAdministrator governs role grants, metadata overwrites, and the
	// affiliation graph.
	RoleAdministrator Role = iota

	// RoleCreator marks an artist principal. Mutually exclusive with
	// RoleGallery.
	RoleCreator

	// RoleGallery marks a gallery principal. Mutually exclusive with
	// RoleCreator.
	RoleGallery

	// RoleContractWhitelist marks a contract principal allowed to mint.
	RoleContractWhitelist

	roleCount
)

var roleNames = map[Role]string{
	RoleAdministrator:     "administrator",
	RoleCreator:           "creator",
	RoleGallery:           "gallery",
	RoleContractWhitelist: "contract-whitelist",
}

// String returns the canonical lowercase role name.
func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("role(%d)", uint8(r))
}

// Valid reports whether r is a recognized role.
func (r Role) Valid() bool {
	return r < roleCount
}

// ParseRole converts a canonical role name back to its Role value.
func ParseRole(s string) (Role, error) {
	for role, name := range roleNames {
		if name == s {
			return role, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

// RoleSet is the set of roles held by a single principal, stored as a
// bitmask.
type RoleSet uint8

// Has reports whether the set contains role r.
func (s RoleSet) Has(r Role) bool {
	return s&(1<<r) != 0
}

// With returns the set extended by role r.
func (s RoleSet) With(r Role) RoleSet {
	return s | (1 << r)
}

// Without returns the set with role r removed.
func (s RoleSet) Without(r Role) RoleSet {
	return s &^ (1 << r)
}

// Roles expands the bitmask into the roles it contains, in enum order.
func (s RoleSet) Roles() []Role {
	var roles []Role
	for r := Role(0); r < roleCount; r++ {
		if s.Has(r) {
			roles = append(roles, r)
		}
	}
	return roles
}

// CapabilitySelector is a fixed 4-byte capability identifier, the ledger's
// analog of an ERC-165 interface id.
type CapabilitySelector [4]byte

// SelectorFromSignature derives a selector from a canonical signature string:
// the first four bytes of its keccak-256 hash.
func SelectorFromSignature(sig string) CapabilitySelector {
	var sel CapabilitySelector
	copy(sel[:], crypto.Keccak256([]byte(sig))[:4])
	return sel
}

// String returns the 0x-prefixed hex form of the selector.
func (s CapabilitySelector) String() string {
	return "0x" + hex.EncodeToString(s[:])
}

var (
	// CapabilityOwnership is the base ownership interface identifier
	// (ERC-721, 0x80ac58cd).
	CapabilityOwnership = CapabilitySelector{0x80, 0xac, 0x58, 0xcd}

	// CapabilityMetadata is the metadata interface identifier
	// (ERC-721 Metadata, 0x5b5e139f).
	CapabilityMetadata = CapabilitySelector{0x5b, 0x5e, 0x13, 0x9f}

	// ReceiverAcceptanceMarker is the value a receiver callback must return
	// for a safe transfer to stand. Derived from the canonical callback
	// signature, matching onERC721Received's magic value 0x150b7a02.
	ReceiverAcceptanceMarker = SelectorFromSignature("onERC721Received(address,address,uint256,bytes)")
)
