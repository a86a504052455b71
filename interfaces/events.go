package interfaces

import (
	"encoding/hex"
	"strconv"

	"github.com/ethereum/go-ethereum/crypto"
)

// EventTopic is the keccak-256 hash of an event's canonical signature, the
// same value an EVM indexer would match on.
type EventTopic [32]byte

// TopicFromSignature derives an event topic from a canonical signature.
func TopicFromSignature(sig string) EventTopic {
	var t EventTopic
	copy(t[:], crypto.Keccak256([]byte(sig)))
	return t
}

// String returns the 0x-prefixed hex form of the topic.
func (t EventTopic) String() string {
	return "0x" + hex.EncodeToString(t[:])
}

var (
	TransferTopic           = TopicFromSignature("Transfer(address,address,uint256)")
	ApprovalTopic           = TopicFromSignature("Approval(address,address,uint256)")
	ApprovalForAllTopic     = TopicFromSignature("ApprovalForAll(address,address,bool)")
	RoleGrantedTopic        = TopicFromSignature("RoleGranted(uint8,address)")
	RoleRevokedTopic        = TopicFromSignature("RoleRevoked(uint8,address)")
	RoleAdminChangedTopic   = TopicFromSignature("RoleAdminChanged(uint8,uint8,uint8)")
	AffiliationAddedTopic   = TopicFromSignature("GalleryArtistAffiliated(address,address)")
	AffiliationRemovedTopic = TopicFromSignature("GalleryArtistUnaffiliated(address,address)")
)

// Event is a notification emitted for external indexers. Events are never
// consumed internally; failed operations emit nothing.
type Event struct {
	Name   string
	Topic  EventTopic
	Fields map[string]string
}

// EventSink receives emitted events. Implementations must tolerate being
// called while the ledger lock is held and must not call back into the
// registries.
type EventSink interface {
	Emit(Event)
}

// NewTransferEvent builds an ownership-change notification. Mints emit the
// zero principal as from; burns emit it as to.
func NewTransferEvent(from, to Principal, id TokenID) Event {
	return Event{
		Name:  "Transfer",
		Topic: TransferTopic,
		Fields: map[string]string{
			"from":    from.String(),
			"to":      to.String(),
			"tokenId": tokenIDField(id),
		},
	}
}

// NewApprovalEvent builds a single-token approval notification.
func NewApprovalEvent(owner, approved Principal, id TokenID) Event {
	return Event{
		Name:  "Approval",
		Topic: ApprovalTopic,
		Fields: map[string]string{
			"owner":    owner.String(),
			"approved": approved.String(),
			"tokenId":  tokenIDField(id),
		},
	}
}

// NewApprovalForAllEvent builds an operator approval notification.
func NewApprovalForAllEvent(owner, operator Principal, approved bool) Event {
	return Event{
		Name:  "ApprovalForAll",
		Topic: ApprovalForAllTopic,
		Fields: map[string]string{
			"owner":    owner.String(),
			"operator": operator.String(),
			"approved": boolField(approved),
		},
	}
}

// NewRoleGrantedEvent builds a role grant notification.
func NewRoleGrantedEvent(role Role, principal Principal) Event {
	return Event{
		Name:  "RoleGranted",
		Topic: RoleGrantedTopic,
		Fields: map[string]string{
			"role":      role.String(),
			"principal": principal.String(),
		},
	}
}

// NewRoleRevokedEvent builds a role revocation notification.
func NewRoleRevokedEvent(role Role, principal Principal) Event {
	return Event{
		Name:  "RoleRevoked",
		Topic: RoleRevokedTopic,
		Fields: map[string]string{
			"role":      role.String(),
			"principal": principal.String(),
		},
	}
}

// NewRoleAdminChangedEvent builds a notification that the role governing
// grants of another role changed.
func NewRoleAdminChangedEvent(role, previousAdmin, newAdmin Role) Event {
	return Event{
		Name:  "RoleAdminChanged",
		Topic: RoleAdminChangedTopic,
		Fields: map[string]string{
			"role":          role.String(),
			"previousAdmin": previousAdmin.String(),
			"newAdmin":      newAdmin.String(),
		},
	}
}

// NewAffiliationAddedEvent builds a gallery/artist affiliation notification.
func NewAffiliationAddedEvent(gallery, artist Principal) Event {
	return Event{
		Name:  "AffiliationAdded",
		Topic: AffiliationAddedTopic,
		Fields: map[string]string{
			"gallery": gallery.String(),
			"artist":  artist.String(),
		},
	}
}

// NewAffiliationRemovedEvent builds an affiliation removal notification.
func NewAffiliationRemovedEvent(gallery, artist Principal) Event {
	return Event{
		Name:  "AffiliationRemoved",
		Topic: AffiliationRemovedTopic,
		Fields: map[string]string{
			"gallery": gallery.String(),
			"artist":  artist.String(),
		},
	}
}

func tokenIDField(id TokenID) string {
	// Decimal, matching how indexers render uint256 token ids.
	return strconv.FormatUint(uint64(id), 10)
}

func boolField(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
