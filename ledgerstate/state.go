package ledgerstate

import (
	"github.com/artledger/nft-registry-backend/interfaces"
)

// State is the single authoritative mapping set: token ownership, approvals,
// balances, metadata, role assignments, and the affiliation graph. It is a
// plain value with no behavior beyond deep copying; the registries own all
// invariants.
type State struct {
	// Roles maps each principal to the set of roles it holds.
	Roles map[interfaces.Principal]interfaces.RoleSet `json:"roles"`

	// RoleAdmins maps a role to the role governing its grants and revokes.
	// Roles absent from the map default to Administrator.
	RoleAdmins map[interfaces.Role]interfaces.Role `json:"role_admins"`

	// GalleryArtists and ArtistGalleries store the affiliation relation
	// bidirectionally for O(1) lookup from either side. The two maps are
	// mirror images by construction.
	GalleryArtists  map[interfaces.Principal]map[interfaces.Principal]bool `json:"gallery_artists"`
	ArtistGalleries map[interfaces.Principal]map[interfaces.Principal]bool `json:"artist_galleries"`

	// Owners maps live token ids to their owner. Absence of an entry IS
	// non-existence; a burned token's entry is deleted, never zeroed.
	Owners map[interfaces.TokenID]interfaces.Principal `json:"owners"`

	// Approvals maps token ids to the single approved principal. Entries
	// for burned tokens are deleted together with ownership.
	Approvals map[interfaces.TokenID]interfaces.Principal `json:"approvals"`

	// Operators is the sparse owner -> operator -> approved relation.
	Operators map[interfaces.Principal]map[interfaces.Principal]bool `json:"operators"`

	// Balances maps owners to their live token count.
	Balances map[interfaces.Principal]uint64 `json:"balances"`

	// TokenURIs maps token ids to their metadata URI.
	TokenURIs map[interfaces.TokenID]string `json:"token_uris"`

	// TransferCounts maps token ids to their ownership-change counter.
	// Minting writes 1, not 0; the asymmetry is preserved deliberately.
	TransferCounts map[interfaces.TokenID]uint64 `json:"transfer_counts"`

	// TokenPointer is the last allocated token id, monotonic. Burned ids
	// are never reused.
	TokenPointer interfaces.TokenID `json:"token_pointer"`

	// TotalSupply is the live token count, decremented on burn.
	TotalSupply uint64 `json:"total_supply"`
}

// NewState returns an empty state with all maps initialized.
func NewState() *State {
	return &State{
		Roles:           make(map[interfaces.Principal]interfaces.RoleSet),
		RoleAdmins:      make(map[interfaces.Role]interfaces.Role),
		GalleryArtists:  make(map[interfaces.Principal]map[interfaces.Principal]bool),
		ArtistGalleries: make(map[interfaces.Principal]map[interfaces.Principal]bool),
		Owners:          make(map[interfaces.TokenID]interfaces.Principal),
		Approvals:       make(map[interfaces.TokenID]interfaces.Principal),
		Operators:       make(map[interfaces.Principal]map[interfaces.Principal]bool),
		Balances:        make(map[interfaces.Principal]uint64),
		TokenURIs:       make(map[interfaces.TokenID]string),
		TransferCounts:  make(map[interfaces.TokenID]uint64),
	}
}

// Clone returns a deep copy of the state. Updates mutate a clone and swap it
// in atomically on success.
func (s *State) Clone() *State {
	c := &State{
		Roles:           make(map[interfaces.Principal]interfaces.RoleSet, len(s.Roles)),
		RoleAdmins:      make(map[interfaces.Role]interfaces.Role, len(s.RoleAdmins)),
		GalleryArtists:  clonePrincipalSetMap(s.GalleryArtists),
		ArtistGalleries: clonePrincipalSetMap(s.ArtistGalleries),
		Owners:          make(map[interfaces.TokenID]interfaces.Principal, len(s.Owners)),
		Approvals:       make(map[interfaces.TokenID]interfaces.Principal, len(s.Approvals)),
		Operators:       clonePrincipalSetMap(s.Operators),
		Balances:        make(map[interfaces.Principal]uint64, len(s.Balances)),
		TokenURIs:       make(map[interfaces.TokenID]string, len(s.TokenURIs)),
		TransferCounts:  make(map[interfaces.TokenID]uint64, len(s.TransferCounts)),
		TokenPointer:    s.TokenPointer,
		TotalSupply:     s.TotalSupply,
	}

	for k, v := range s.Roles {
		c.Roles[k] = v
	}
	for k, v := range s.RoleAdmins {
		c.RoleAdmins[k] = v
	}
	for k, v := range s.Owners {
		c.Owners[k] = v
	}
	for k, v := range s.Approvals {
		c.Approvals[k] = v
	}
	for k, v := range s.Balances {
		c.Balances[k] = v
	}
	for k, v := range s.TokenURIs {
		c.TokenURIs[k] = v
	}
	for k, v := range s.TransferCounts {
		c.TransferCounts[k] = v
	}

	return c
}

// normalize re-initializes any nil maps. Needed after decoding a persisted
// snapshot that was written before a field existed.
func (s *State) normalize() {
	if s.Roles == nil {
		s.Roles = make(map[interfaces.Principal]interfaces.RoleSet)
	}
	if s.RoleAdmins == nil {
		s.RoleAdmins = make(map[interfaces.Role]interfaces.Role)
	}
	if s.GalleryArtists == nil {
		s.GalleryArtists = make(map[interfaces.Principal]map[interfaces.Principal]bool)
	}
	if s.ArtistGalleries == nil {
		s.ArtistGalleries = make(map[interfaces.Principal]map[interfaces.Principal]bool)
	}
	if s.Owners == nil {
		s.Owners = make(map[interfaces.TokenID]interfaces.Principal)
	}
	if s.Approvals == nil {
		s.Approvals = make(map[interfaces.TokenID]interfaces.Principal)
	}
	if s.Operators == nil {
		s.Operators = make(map[interfaces.Principal]map[interfaces.Principal]bool)
	}
	if s.Balances == nil {
		s.Balances = make(map[interfaces.Principal]uint64)
	}
	if s.TokenURIs == nil {
		s.TokenURIs = make(map[interfaces.TokenID]string)
	}
	if s.TransferCounts == nil {
		s.TransferCounts = make(map[interfaces.TokenID]uint64)
	}
}

func clonePrincipalSetMap(m map[interfaces.Principal]map[interfaces.Principal]bool) map[interfaces.Principal]map[interfaces.Principal]bool {
	c := make(map[interfaces.Principal]map[interfaces.Principal]bool, len(m))
	for k, set := range m {
		inner := make(map[interfaces.Principal]bool, len(set))
		for p, v := range set {
			inner[p] = v
		}
		c[k] = inner
	}
	return c
}
