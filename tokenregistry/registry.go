package tokenregistry

import (
	"fmt"
	"log/slog"

	"github.com/artledger/nft-registry-backend/interfaces"
	"github.com/artledger/nft-registry-backend/ledgerstate"
)

// Collection constants advertised through Name and Symbol.
const (
	CollectionName   = "ArtLedger"
	CollectionSymbol = "ARTL"
)

// Registry implements interfaces.TokenLedger on top of an injected store.
type Registry struct {
	store     ledgerstate.Store
	access    interfaces.AccessControl
	events    interfaces.EventSink
	receivers interfaces.ReceiverResolver
	log       *slog.Logger
}

// New creates a token registry and publishes its capability flags to the
// registrar. The receiver resolver defaults to treating every recipient as a
// plain account; use SetReceiverResolver to enable acknowledgement callbacks.
func New(store ledgerstate.Store, access interfaces.AccessControl, events interfaces.EventSink, registrar interfaces.CapabilityRegistrar, log *slog.Logger) *Registry {
	if registrar != nil {
		registrar.RegisterCapability(interfaces.CapabilityOwnership)
		registrar.RegisterCapability(interfaces.CapabilityMetadata)
	}

	return &Registry{
		store:  store,
		access: access,
		events: events,
		log:    log,
	}
}

// SetReceiverResolver installs the collaborator deciding which recipients
// are callback-capable. This must be called before safe transfers are
// expected to run acknowledgements.
func (r *Registry) SetReceiverResolver(resolver interfaces.ReceiverResolver) {
	r.receivers = resolver
}

// Name returns the collection name constant.
func (r *Registry) Name() string { return CollectionName }

// Symbol returns the collection symbol constant.
func (r *Registry) Symbol() string { return CollectionSymbol }

// Mint implements interfaces.TokenLedger. The caller must hold the
// contract-whitelist role; ids are allocated sequentially and the transfer
// counter starts at 1, preserved from the source ledger's behavior.
func (r *Registry) Mint(caller, to interfaces.Principal, uri string) (interfaces.TokenID, error) {
	if caller.IsZero() || to.IsZero() {
		return 0, interfaces.ErrZeroAddress
	}
	if !r.access.HasRole(interfaces.RoleContractWhitelist, caller) {
		return 0, fmt.Errorf("%w: %s is not a whitelisted contract", interfaces.ErrUnauthorized, caller)
	}

	var id interfaces.TokenID
	err := r.store.Update(func(s *ledgerstate.State) error {
		id = s.TokenPointer + 1
		s.TokenPointer = id
		s.Owners[id] = to
		s.TokenURIs[id] = uri
		s.TransferCounts[id] = 1
		s.Balances[to]++
		s.TotalSupply++
		return nil
	})
	if err != nil {
		return 0, err
	}

	r.events.Emit(interfaces.NewTransferEvent(interfaces.ZeroPrincipal, to, id))
	r.log.Info("Token minted",
		slog.Uint64("tokenId", uint64(id)),
		slog.String("to", to.String()),
		slog.String("minter", caller.String()))
	return id, nil
}

// SetTokenURI implements interfaces.TokenLedger. Administrator only; pure
// metadata overwrite with no ownership side effects.
func (r *Registry) SetTokenURI(caller interfaces.Principal, id interfaces.TokenID, uri string) error {
	if caller.IsZero() {
		return interfaces.ErrZeroAddress
	}
	if !r.access.HasRole(interfaces.RoleAdministrator, caller) {
		return fmt.Errorf("%w: %s is not an administrator", interfaces.ErrUnauthorized, caller)
	}

	err := r.store.Update(func(s *ledgerstate.State) error {
		if _, ok := s.Owners[id]; !ok {
			return fmt.Errorf("%w: %d", interfaces.ErrNonExistentToken, id)
		}
		s.TokenURIs[id] = uri
		return nil
	})
	if err != nil {
		return err
	}

	r.log.Info("Token URI updated", slog.Uint64("tokenId", uint64(id)))
	return nil
}

// TokenURI implements interfaces.TokenLedger.
func (r *Registry) TokenURI(id interfaces.TokenID) (string, error) {
	var uri string
	err := r.store.View(func(s *ledgerstate.State) error {
		if _, ok := s.Owners[id]; !ok {
			return fmt.Errorf("%w: %d", interfaces.ErrNonExistentToken, id)
		}
		uri = s.TokenURIs[id]
		return nil
	})
	return uri, err
}

// Exists implements interfaces.TokenLedger.
func (r *Registry) Exists(id interfaces.TokenID) bool {
	var ok bool
	_ = r.store.View(func(s *ledgerstate.State) error {
		_, ok = s.Owners[id]
		return nil
	})
	return ok
}

// Burn implements interfaces.TokenLedger. Only the current owner may burn;
// approved delegates and operators deliberately may not, a stricter rule
// than transfer authorization.
func (r *Registry) Burn(caller interfaces.Principal, id interfaces.TokenID) error {
	if caller.IsZero() {
		return interfaces.ErrZeroAddress
	}

	var owner interfaces.Principal
	err := r.store.Update(func(s *ledgerstate.State) error {
		var ok bool
		owner, ok = s.Owners[id]
		if !ok {
			return fmt.Errorf("%w: %d", interfaces.ErrNonExistentToken, id)
		}
		if owner != caller {
			return fmt.Errorf("%w: only the owner may burn", interfaces.ErrUnauthorized)
		}

		delete(s.Owners, id)
		delete(s.Approvals, id)
		delete(s.TokenURIs, id)
		delete(s.TransferCounts, id)
		if s.Balances[owner] <= 1 {
			delete(s.Balances, owner)
		} else {
			s.Balances[owner]--
		}
		s.TotalSupply--
		return nil
	})
	if err != nil {
		return err
	}

	r.events.Emit(interfaces.NewTransferEvent(owner, interfaces.ZeroPrincipal, id))
	r.log.Info("Token burned",
		slog.Uint64("tokenId", uint64(id)),
		slog.String("owner", owner.String()))
	return nil
}

// Approve implements interfaces.TokenLedger. The caller must be the owner or
// an operator approved for all of the owner's tokens; approving the owner to
// itself is rejected as semantically void.
func (r *Registry) Approve(caller, approved interfaces.Principal, id interfaces.TokenID) error {
	if caller.IsZero() {
		return interfaces.ErrZeroAddress
	}

	var owner interfaces.Principal
	err := r.store.Update(func(s *ledgerstate.State) error {
		var ok bool
		owner, ok = s.Owners[id]
		if !ok {
			return fmt.Errorf("%w: %d", interfaces.ErrNonExistentToken, id)
		}
		if approved == owner {
			return fmt.Errorf("%w: approval to current owner", interfaces.ErrSelfApproval)
		}
		if caller != owner && !s.Operators[owner][caller] {
			return fmt.Errorf("%w: %s may not approve for token %d", interfaces.ErrUnauthorized, caller, id)
		}

		if approved.IsZero() {
			delete(s.Approvals, id)
		} else {
			s.Approvals[id] = approved
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.events.Emit(interfaces.NewApprovalEvent(owner, approved, id))
	return nil
}

// SetApprovalForAll implements interfaces.TokenLedger. The relation is a
// sparse table; there is no bound on operators per owner.
func (r *Registry) SetApprovalForAll(caller, operator interfaces.Principal, approved bool) error {
	if caller.IsZero() || operator.IsZero() {
		return interfaces.ErrZeroAddress
	}
	if operator == caller {
		return fmt.Errorf("%w: caller named itself as operator", interfaces.ErrSelfApproval)
	}

	err := r.store.Update(func(s *ledgerstate.State) error {
		if approved {
			if s.Operators[caller] == nil {
				s.Operators[caller] = make(map[interfaces.Principal]bool)
			}
			s.Operators[caller][operator] = true
		} else {
			delete(s.Operators[caller], operator)
			if len(s.Operators[caller]) == 0 {
				delete(s.Operators, caller)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.events.Emit(interfaces.NewApprovalForAllEvent(caller, operator, approved))
	return nil
}

// TransferFrom implements interfaces.TokenLedger. Ownership, balances, the
// approval slot, and the transfer counter change in one atomic update; any
// stale per-token approval is cleared so it can never survive a transfer.
func (r *Registry) TransferFrom(caller, from, to interfaces.Principal, id interfaces.TokenID) error {
	if _, _, err := r.applyTransfer(caller, from, to, id); err != nil {
		return err
	}

	r.emitTransfer(caller, from, to, id)
	return nil
}

// applyTransfer validates and commits the ownership mutation without
// emitting. It returns the approval slot it cleared so a rejected safe
// transfer can reinstate it.
func (r *Registry) applyTransfer(caller, from, to interfaces.Principal, id interfaces.TokenID) (prevApproval interfaces.Principal, hadApproval bool, err error) {
	if caller.IsZero() || from.IsZero() || to.IsZero() {
		return interfaces.ZeroPrincipal, false, interfaces.ErrZeroAddress
	}
	if !id.Valid() {
		return interfaces.ZeroPrincipal, false, interfaces.ErrInvalidTokenID
	}

	err = r.store.Update(func(s *ledgerstate.State) error {
		owner, ok := s.Owners[id]
		if !ok {
			return fmt.Errorf("%w: %d", interfaces.ErrNonExistentToken, id)
		}
		if owner != from {
			return fmt.Errorf("%w: %s is not the owner of token %d", interfaces.ErrUnauthorized, from, id)
		}
		if caller != owner && !s.Operators[owner][caller] && s.Approvals[id] != caller {
			return fmt.Errorf("%w: %s may not transfer token %d", interfaces.ErrUnauthorized, caller, id)
		}

		prevApproval, hadApproval = s.Approvals[id]
		delete(s.Approvals, id)
		s.Owners[id] = to
		if s.Balances[from] <= 1 {
			delete(s.Balances, from)
		} else {
			s.Balances[from]--
		}
		s.Balances[to]++
		s.TransferCounts[id]++
		return nil
	})
	return prevApproval, hadApproval, err
}

func (r *Registry) emitTransfer(caller, from, to interfaces.Principal, id interfaces.TokenID) {
	r.events.Emit(interfaces.NewTransferEvent(from, to, id))
	r.log.Info("Token transferred",
		slog.Uint64("tokenId", uint64(id)),
		slog.String("from", from.String()),
		slog.String("to", to.String()),
		slog.String("caller", caller.String()))
}

// SafeTransferFrom implements interfaces.TokenLedger. The transfer is
// committed before the recipient is notified, so a reentrant callback
// observes post-transfer state. A rejected or failing acknowledgement
// reverts the transfer with an inverse update touching only the fields the
// transfer changed; operations committed between the transfer and the
// revert stand, and the Transfer event is emitted only once the transfer is
// final.
func (r *Registry) SafeTransferFrom(caller, from, to interfaces.Principal, id interfaces.TokenID, data []byte) error {
	prevApproval, hadApproval, err := r.applyTransfer(caller, from, to, id)
	if err != nil {
		return err
	}

	var receiver interfaces.TokenReceiver
	if r.receivers != nil {
		receiver = r.receivers.ReceiverFor(to)
	}
	if receiver == nil {
		r.emitTransfer(caller, from, to, id)
		return nil
	}

	marker, ackErr := receiver.OnTokenReceived(caller, from, id, data)
	if ackErr == nil && marker == interfaces.ReceiverAcceptanceMarker {
		r.emitTransfer(caller, from, to, id)
		return nil
	}

	if revertErr := r.revertTransfer(from, to, id, prevApproval, hadApproval); revertErr != nil {
		// State is committed but unacknowledged and could not be rewound;
		// nothing safe can be done except surfacing both failures.
		return fmt.Errorf("%w: rollback failed after rejection: %v", interfaces.ErrRecipientRejected, revertErr)
	}

	r.log.Warn("Safe transfer rejected by recipient",
		slog.Uint64("tokenId", uint64(id)),
		slog.String("to", to.String()),
		slog.Any("err", ackErr))
	if ackErr != nil {
		return fmt.Errorf("%w: %v", interfaces.ErrRecipientRejected, ackErr)
	}
	return fmt.Errorf("%w: unexpected acknowledgement marker %s", interfaces.ErrRecipientRejected, marker)
}

// revertTransfer undoes exactly the fields applyTransfer changed. It refuses
// to run when the token is no longer held by the rejecting recipient, since
// the inverse would then corrupt whoever holds it now.
func (r *Registry) revertTransfer(from, to interfaces.Principal, id interfaces.TokenID, prevApproval interfaces.Principal, hadApproval bool) error {
	return r.store.Update(func(s *ledgerstate.State) error {
		owner, ok := s.Owners[id]
		if !ok || owner != to {
			return fmt.Errorf("token %d is no longer held by the rejecting recipient", id)
		}

		s.Owners[id] = from
		if s.Balances[to] <= 1 {
			delete(s.Balances, to)
		} else {
			s.Balances[to]--
		}
		s.Balances[from]++
		if hadApproval {
			s.Approvals[id] = prevApproval
		} else {
			delete(s.Approvals, id)
		}
		s.TransferCounts[id]--
		return nil
	})
}

// BalanceOf implements interfaces.TokenLedger.
func (r *Registry) BalanceOf(owner interfaces.Principal) (uint64, error) {
	if owner.IsZero() {
		return 0, interfaces.ErrZeroAddress
	}

	var balance uint64
	err := r.store.View(func(s *ledgerstate.State) error {
		balance = s.Balances[owner]
		return nil
	})
	return balance, err
}

// OwnerOf implements interfaces.TokenLedger.
func (r *Registry) OwnerOf(id interfaces.TokenID) (interfaces.Principal, error) {
	var owner interfaces.Principal
	err := r.store.View(func(s *ledgerstate.State) error {
		var ok bool
		owner, ok = s.Owners[id]
		if !ok {
			return fmt.Errorf("%w: %d", interfaces.ErrNonExistentToken, id)
		}
		return nil
	})
	return owner, err
}

// GetApproved implements interfaces.TokenLedger. Returns the zero principal
// when no approval is set.
func (r *Registry) GetApproved(id interfaces.TokenID) (interfaces.Principal, error) {
	var approved interfaces.Principal
	err := r.store.View(func(s *ledgerstate.State) error {
		if _, ok := s.Owners[id]; !ok {
			return fmt.Errorf("%w: %d", interfaces.ErrNonExistentToken, id)
		}
		approved = s.Approvals[id]
		return nil
	})
	return approved, err
}

// IsApprovedForAll implements interfaces.TokenLedger.
func (r *Registry) IsApprovedForAll(owner, operator interfaces.Principal) bool {
	var approved bool
	_ = r.store.View(func(s *ledgerstate.State) error {
		approved = s.Operators[owner][operator]
		return nil
	})
	return approved
}

// TokenTransferCount implements interfaces.TokenLedger.
func (r *Registry) TokenTransferCount(id interfaces.TokenID) (uint64, error) {
	var count uint64
	err := r.store.View(func(s *ledgerstate.State) error {
		if _, ok := s.Owners[id]; !ok {
			return fmt.Errorf("%w: %d", interfaces.ErrNonExistentToken, id)
		}
		count = s.TransferCounts[id]
		return nil
	})
	return count, err
}

// TotalSupply implements interfaces.TokenLedger.
func (r *Registry) TotalSupply() uint64 {
	var supply uint64
	_ = r.store.View(func(s *ledgerstate.State) error {
		supply = s.TotalSupply
		return nil
	})
	return supply
}

// LastTokenID implements interfaces.TokenLedger.
func (r *Registry) LastTokenID() interfaces.TokenID {
	var last interfaces.TokenID
	_ = r.store.View(func(s *ledgerstate.State) error {
		last = s.TokenPointer
		return nil
	})
	return last
}
