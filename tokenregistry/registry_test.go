package tokenregistry

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artledger/nft-registry-backend/accessregistry"
	"github.com/artledger/nft-registry-backend/events"
	"github.com/artledger/nft-registry-backend/interfaces"
	"github.com/artledger/nft-registry-backend/ledgerstate"
)

func principal(b byte) interfaces.Principal {
	var p interfaces.Principal
	p[19] = b
	return p
}

var (
	admin  = principal(0x01)
	minter = principal(0x02) // whitelisted minting contract
	alice  = principal(0x0a)
	bob    = principal(0x0b)
	carol  = principal(0x0c)
	dave   = principal(0x0d)
)

type fixture struct {
	store  *ledgerstate.MemoryStore
	access *accessregistry.Registry
	ledger *Registry
	caps   *CapabilitySet
	rec    *events.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := ledgerstate.NewMemoryStore()
	rec := events.NewRecorder()
	access := accessregistry.New(store, rec, slog.Default())
	require.NoError(t, access.Bootstrap(admin))
	require.NoError(t, access.GrantRole(admin, interfaces.RoleContractWhitelist, minter))

	caps := NewCapabilitySet()
	ledger := New(store, access, rec, caps, slog.Default())
	rec.Reset()

	return &fixture{store: store, access: access, ledger: ledger, caps: caps, rec: rec}
}

func (f *fixture) mint(t *testing.T, to interfaces.Principal, uri string) interfaces.TokenID {
	t.Helper()
	id, err := f.ledger.Mint(minter, to, uri)
	require.NoError(t, err)
	return id
}

func TestMintByWhitelistedContract(t *testing.T) {
	f := newFixture(t)

	id, err := f.ledger.Mint(minter, alice, "ipfs://x")
	require.NoError(t, err)
	assert.Equal(t, interfaces.TokenID(1), id)

	owner, err := f.ledger.OwnerOf(id)
	require.NoError(t, err)
	assert.Equal(t, alice, owner)
	assert.Equal(t, uint64(1), f.ledger.TotalSupply())

	count, err := f.ledger.TokenTransferCount(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count, "mint initializes the transfer counter to 1")

	uri, err := f.ledger.TokenURI(id)
	require.NoError(t, err)
	assert.Equal(t, "ipfs://x", uri)

	transfers := f.rec.Named("Transfer")
	require.Len(t, transfers, 1)
	assert.Equal(t, interfaces.ZeroPrincipal.String(), transfers[0].Fields["from"])
	assert.Equal(t, alice.String(), transfers[0].Fields["to"])
}

func TestMintUnauthorized(t *testing.T) {
	f := newFixture(t)

	_, err := f.ledger.Mint(dave, alice, "ipfs://x")
	require.ErrorIs(t, err, interfaces.ErrUnauthorized)
	assert.Equal(t, uint64(0), f.ledger.TotalSupply())
	assert.False(t, f.ledger.Exists(1))
	assert.Empty(t, f.rec.Events())
}

func TestMintUsesMockedAccessControl(t *testing.T) {
	store := ledgerstate.NewMemoryStore()
	access := new(accessregistry.MockAccessControl)
	ledger := New(store, access, events.Discard{}, nil, slog.Default())

	access.On("HasRole", interfaces.RoleContractWhitelist, minter).Return(true)

	id, err := ledger.Mint(minter, alice, "ipfs://x")
	require.NoError(t, err)
	assert.Equal(t, interfaces.TokenID(1), id)
	access.AssertExpectations(t)
}

func TestMintZeroRecipient(t *testing.T) {
	f := newFixture(t)

	_, err := f.ledger.Mint(minter, interfaces.ZeroPrincipal, "ipfs://x")
	assert.ErrorIs(t, err, interfaces.ErrZeroAddress)
}

func TestNeverMintedToken(t *testing.T) {
	f := newFixture(t)

	_, err := f.ledger.OwnerOf(42)
	assert.ErrorIs(t, err, interfaces.ErrNonExistentToken)
	assert.False(t, f.ledger.Exists(42))

	_, err = f.ledger.GetApproved(42)
	assert.ErrorIs(t, err, interfaces.ErrNonExistentToken)

	_, err = f.ledger.TokenURI(42)
	assert.ErrorIs(t, err, interfaces.ErrNonExistentToken)
}

func TestMintBurnSupplyAndIdNonReuse(t *testing.T) {
	f := newFixture(t)

	id := f.mint(t, alice, "ipfs://x")
	assert.Equal(t, uint64(1), f.ledger.TotalSupply())

	require.NoError(t, f.ledger.Burn(alice, id))
	assert.Equal(t, uint64(0), f.ledger.TotalSupply())
	assert.False(t, f.ledger.Exists(id))

	balance, err := f.ledger.BalanceOf(alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), balance)

	// A burned id is never reused.
	next := f.mint(t, alice, "ipfs://y")
	assert.Equal(t, id+1, next)

	// Burn emits a transfer to the zero principal.
	transfers := f.rec.Named("Transfer")
	require.Len(t, transfers, 3)
	assert.Equal(t, interfaces.ZeroPrincipal.String(), transfers[1].Fields["to"])
}

func TestBurnRestrictedToOwner(t *testing.T) {
	f := newFixture(t)
	id := f.mint(t, alice, "ipfs://x")

	// Neither the approved address nor an operator may burn.
	require.NoError(t, f.ledger.Approve(alice, bob, id))
	err := f.ledger.Burn(bob, id)
	assert.ErrorIs(t, err, interfaces.ErrUnauthorized)

	require.NoError(t, f.ledger.SetApprovalForAll(alice, carol, true))
	err = f.ledger.Burn(carol, id)
	assert.ErrorIs(t, err, interfaces.ErrUnauthorized)

	assert.True(t, f.ledger.Exists(id))
	require.NoError(t, f.ledger.Burn(alice, id))
	assert.False(t, f.ledger.Exists(id))
}

func TestTransferEffects(t *testing.T) {
	f := newFixture(t)
	id := f.mint(t, alice, "ipfs://x")
	require.NoError(t, f.ledger.Approve(alice, dave, id))

	require.NoError(t, f.ledger.TransferFrom(alice, alice, bob, id))

	owner, err := f.ledger.OwnerOf(id)
	require.NoError(t, err)
	assert.Equal(t, bob, owner)

	aliceBalance, _ := f.ledger.BalanceOf(alice)
	bobBalance, _ := f.ledger.BalanceOf(bob)
	assert.Equal(t, uint64(0), aliceBalance)
	assert.Equal(t, uint64(1), bobBalance)

	// The stale approval must not survive the transfer.
	approved, err := f.ledger.GetApproved(id)
	require.NoError(t, err)
	assert.True(t, approved.IsZero())

	count, err := f.ledger.TokenTransferCount(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}

func TestApprovedAddressCanTransfer(t *testing.T) {
	f := newFixture(t)
	id := f.mint(t, alice, "ipfs://x")

	require.NoError(t, f.ledger.Approve(alice, bob, id))
	require.NoError(t, f.ledger.TransferFrom(bob, alice, carol, id))

	owner, err := f.ledger.OwnerOf(id)
	require.NoError(t, err)
	assert.Equal(t, carol, owner)

	approved, err := f.ledger.GetApproved(id)
	require.NoError(t, err)
	assert.True(t, approved.IsZero())
}

func TestOperatorCanTransfer(t *testing.T) {
	f := newFixture(t)
	id := f.mint(t, alice, "ipfs://x")

	require.NoError(t, f.ledger.SetApprovalForAll(alice, bob, true))
	require.NoError(t, f.ledger.TransferFrom(bob, alice, carol, id))

	owner, err := f.ledger.OwnerOf(id)
	require.NoError(t, err)
	assert.Equal(t, carol, owner)
}

func TestTransferAuthorizationFailures(t *testing.T) {
	f := newFixture(t)
	id := f.mint(t, alice, "ipfs://x")

	// Uninvolved caller.
	err := f.ledger.TransferFrom(dave, alice, bob, id)
	assert.ErrorIs(t, err, interfaces.ErrUnauthorized)

	// from does not match the current owner.
	err = f.ledger.TransferFrom(alice, bob, carol, id)
	assert.ErrorIs(t, err, interfaces.ErrUnauthorized)

	// Zero recipient.
	err = f.ledger.TransferFrom(alice, alice, interfaces.ZeroPrincipal, id)
	assert.ErrorIs(t, err, interfaces.ErrZeroAddress)

	// A revoked operator may no longer transfer.
	require.NoError(t, f.ledger.SetApprovalForAll(alice, bob, true))
	require.NoError(t, f.ledger.SetApprovalForAll(alice, bob, false))
	err = f.ledger.TransferFrom(bob, alice, carol, id)
	assert.ErrorIs(t, err, interfaces.ErrUnauthorized)

	// Nothing moved.
	owner, _ := f.ledger.OwnerOf(id)
	assert.Equal(t, alice, owner)
	count, _ := f.ledger.TokenTransferCount(id)
	assert.Equal(t, uint64(1), count)
}

func TestApproveOwnerRejected(t *testing.T) {
	f := newFixture(t)
	id := f.mint(t, alice, "ipfs://x")

	// Approving the owner to itself is rejected regardless of caller.
	err := f.ledger.Approve(alice, alice, id)
	assert.ErrorIs(t, err, interfaces.ErrSelfApproval)

	require.NoError(t, f.ledger.SetApprovalForAll(alice, bob, true))
	err = f.ledger.Approve(bob, alice, id)
	assert.ErrorIs(t, err, interfaces.ErrSelfApproval)
}

func TestApproveByOperator(t *testing.T) {
	f := newFixture(t)
	id := f.mint(t, alice, "ipfs://x")

	require.NoError(t, f.ledger.SetApprovalForAll(alice, bob, true))
	require.NoError(t, f.ledger.Approve(bob, carol, id))

	approved, err := f.ledger.GetApproved(id)
	require.NoError(t, err)
	assert.Equal(t, carol, approved)
}

func TestApproveUnauthorized(t *testing.T) {
	f := newFixture(t)
	id := f.mint(t, alice, "ipfs://x")

	err := f.ledger.Approve(dave, carol, id)
	assert.ErrorIs(t, err, interfaces.ErrUnauthorized)
}

func TestApproveZeroClearsSlot(t *testing.T) {
	f := newFixture(t)
	id := f.mint(t, alice, "ipfs://x")

	require.NoError(t, f.ledger.Approve(alice, bob, id))
	require.NoError(t, f.ledger.Approve(alice, interfaces.ZeroPrincipal, id))

	approved, err := f.ledger.GetApproved(id)
	require.NoError(t, err)
	assert.True(t, approved.IsZero())
}

func TestSetApprovalForAll(t *testing.T) {
	f := newFixture(t)

	// Naming oneself as operator is rejected.
	err := f.ledger.SetApprovalForAll(alice, alice, true)
	assert.ErrorIs(t, err, interfaces.ErrSelfApproval)

	require.NoError(t, f.ledger.SetApprovalForAll(alice, bob, true))
	assert.True(t, f.ledger.IsApprovedForAll(alice, bob))
	assert.False(t, f.ledger.IsApprovedForAll(bob, alice))

	// Multiple operators per owner are allowed.
	require.NoError(t, f.ledger.SetApprovalForAll(alice, carol, true))
	assert.True(t, f.ledger.IsApprovedForAll(alice, carol))

	require.NoError(t, f.ledger.SetApprovalForAll(alice, bob, false))
	assert.False(t, f.ledger.IsApprovedForAll(alice, bob))
	assert.True(t, f.ledger.IsApprovedForAll(alice, carol))

	forAll := f.rec.Named("ApprovalForAll")
	require.Len(t, forAll, 3)
	assert.Equal(t, "false", forAll[2].Fields["approved"])
}

func TestSetTokenURI(t *testing.T) {
	f := newFixture(t)
	id := f.mint(t, alice, "ipfs://x")

	// Administrator only.
	err := f.ledger.SetTokenURI(alice, id, "ipfs://y")
	assert.ErrorIs(t, err, interfaces.ErrUnauthorized)

	require.NoError(t, f.ledger.SetTokenURI(admin, id, "ipfs://y"))
	uri, err := f.ledger.TokenURI(id)
	require.NoError(t, err)
	assert.Equal(t, "ipfs://y", uri)

	// Ownership is untouched by a metadata overwrite.
	owner, _ := f.ledger.OwnerOf(id)
	assert.Equal(t, alice, owner)

	err = f.ledger.SetTokenURI(admin, 99, "ipfs://z")
	assert.ErrorIs(t, err, interfaces.ErrNonExistentToken)
}

// stubReceiver acknowledges with a fixed marker, or fails.
type stubReceiver struct {
	marker interfaces.CapabilitySelector
	err    error

	gotOperator interfaces.Principal
	gotFrom     interfaces.Principal
	gotID       interfaces.TokenID
	gotData     []byte
}

func (s *stubReceiver) OnTokenReceived(operator, from interfaces.Principal, id interfaces.TokenID, data []byte) (interfaces.CapabilitySelector, error) {
	s.gotOperator = operator
	s.gotFrom = from
	s.gotID = id
	s.gotData = data
	return s.marker, s.err
}

func resolverFor(target interfaces.Principal, recv interfaces.TokenReceiver) interfaces.ReceiverResolver {
	return interfaces.ReceiverResolverFunc(func(p interfaces.Principal) interfaces.TokenReceiver {
		if p == target {
			return recv
		}
		return nil
	})
}

func TestSafeTransferToPlainAccount(t *testing.T) {
	f := newFixture(t)
	id := f.mint(t, alice, "ipfs://x")

	// No resolver configured: acknowledgement step is skipped entirely.
	require.NoError(t, f.ledger.SafeTransferFrom(alice, alice, bob, id, nil))
	owner, _ := f.ledger.OwnerOf(id)
	assert.Equal(t, bob, owner)
}

func TestSafeTransferAccepted(t *testing.T) {
	f := newFixture(t)
	id := f.mint(t, alice, "ipfs://x")

	recv := &stubReceiver{marker: interfaces.ReceiverAcceptanceMarker}
	f.ledger.SetReceiverResolver(resolverFor(bob, recv))

	require.NoError(t, f.ledger.SafeTransferFrom(alice, alice, bob, id, []byte("hello")))

	owner, _ := f.ledger.OwnerOf(id)
	assert.Equal(t, bob, owner)

	// Callback received (caller, from, tokenId, data).
	assert.Equal(t, alice, recv.gotOperator)
	assert.Equal(t, alice, recv.gotFrom)
	assert.Equal(t, id, recv.gotID)
	assert.Equal(t, []byte("hello"), recv.gotData)

	// Exactly one Transfer event for the accepted transfer, after the mint's.
	transfers := f.rec.Named("Transfer")
	require.Len(t, transfers, 2)
	assert.Equal(t, alice.String(), transfers[1].Fields["from"])
	assert.Equal(t, bob.String(), transfers[1].Fields["to"])
}

func TestSafeTransferRejectedRollsBack(t *testing.T) {
	f := newFixture(t)
	id := f.mint(t, alice, "ipfs://x")
	require.NoError(t, f.ledger.Approve(alice, dave, id))

	recv := &stubReceiver{marker: interfaces.CapabilitySelector{0xde, 0xad, 0xbe, 0xef}}
	f.ledger.SetReceiverResolver(resolverFor(bob, recv))

	err := f.ledger.SafeTransferFrom(alice, alice, bob, id, nil)
	require.ErrorIs(t, err, interfaces.ErrRecipientRejected)

	// The entire transfer is rolled back, including the approval clear and
	// the counter increment the transfer had already applied.
	owner, _ := f.ledger.OwnerOf(id)
	assert.Equal(t, alice, owner)

	approved, _ := f.ledger.GetApproved(id)
	assert.Equal(t, dave, approved)

	count, _ := f.ledger.TokenTransferCount(id)
	assert.Equal(t, uint64(1), count)

	aliceBalance, _ := f.ledger.BalanceOf(alice)
	bobBalance, _ := f.ledger.BalanceOf(bob)
	assert.Equal(t, uint64(1), aliceBalance)
	assert.Equal(t, uint64(0), bobBalance)
}

func TestSafeTransferReceiverErrorRollsBack(t *testing.T) {
	f := newFixture(t)
	id := f.mint(t, alice, "ipfs://x")

	recv := &stubReceiver{marker: interfaces.ReceiverAcceptanceMarker, err: errors.New("receiver exploded")}
	f.ledger.SetReceiverResolver(resolverFor(bob, recv))

	err := f.ledger.SafeTransferFrom(alice, alice, bob, id, nil)
	require.ErrorIs(t, err, interfaces.ErrRecipientRejected)

	owner, _ := f.ledger.OwnerOf(id)
	assert.Equal(t, alice, owner)
}

// reentrantReceiver re-enters the registry from inside the callback.
type reentrantReceiver struct {
	ledger *Registry
	marker interfaces.CapabilitySelector

	observedOwner interfaces.Principal
	reenter       func(*Registry)
}

func (r *reentrantReceiver) OnTokenReceived(operator, from interfaces.Principal, id interfaces.TokenID, data []byte) (interfaces.CapabilitySelector, error) {
	r.observedOwner, _ = r.ledger.OwnerOf(id)
	if r.reenter != nil {
		r.reenter(r.ledger)
	}
	return r.marker, nil
}

func TestReentrantCallbackObservesPostTransferState(t *testing.T) {
	f := newFixture(t)
	id := f.mint(t, alice, "ipfs://x")

	recv := &reentrantReceiver{ledger: f.ledger, marker: interfaces.ReceiverAcceptanceMarker}
	f.ledger.SetReceiverResolver(resolverFor(bob, recv))

	require.NoError(t, f.ledger.SafeTransferFrom(alice, alice, bob, id, nil))

	// Effects were committed before the interaction fired.
	assert.Equal(t, bob, recv.observedOwner)
}

func TestRejectedTransferEmitsNoEvents(t *testing.T) {
	f := newFixture(t)
	id := f.mint(t, alice, "ipfs://x")
	f.rec.Reset()

	recv := &stubReceiver{marker: interfaces.CapabilitySelector{0xde, 0xad, 0xbe, 0xef}}
	f.ledger.SetReceiverResolver(resolverFor(bob, recv))

	err := f.ledger.SafeTransferFrom(alice, alice, bob, id, nil)
	require.ErrorIs(t, err, interfaces.ErrRecipientRejected)

	// Indexers must never see a transfer that did not happen.
	assert.Empty(t, f.rec.Named("Transfer"))
	assert.Empty(t, f.rec.Events())
}

func TestRejectedTransferKeepsReentrantCommits(t *testing.T) {
	f := newFixture(t)
	id := f.mint(t, alice, "ipfs://x")

	recv := &reentrantReceiver{
		ledger: f.ledger,
		marker: interfaces.CapabilitySelector{},
		reenter: func(ledger *Registry) {
			// The recipient grants an operator before rejecting. That call
			// committed on its own; only the transfer itself is undone.
			_ = ledger.SetApprovalForAll(bob, carol, true)
		},
	}
	f.ledger.SetReceiverResolver(resolverFor(bob, recv))

	err := f.ledger.SafeTransferFrom(alice, alice, bob, id, nil)
	require.ErrorIs(t, err, interfaces.ErrRecipientRejected)

	owner, _ := f.ledger.OwnerOf(id)
	assert.Equal(t, alice, owner)
	assert.True(t, f.ledger.IsApprovedForAll(bob, carol))
}

func TestRejectedTransferPreservesConcurrentMint(t *testing.T) {
	f := newFixture(t)
	id := f.mint(t, alice, "ipfs://x")

	// Another client's mint lands between the transfer commit and the
	// rejection. The revert must not erase it.
	var concurrentID interfaces.TokenID
	recv := &reentrantReceiver{
		ledger: f.ledger,
		marker: interfaces.CapabilitySelector{},
		reenter: func(ledger *Registry) {
			done := make(chan struct{})
			go func() {
				defer close(done)
				minted, err := ledger.Mint(minter, carol, "ipfs://concurrent")
				if err == nil {
					concurrentID = minted
				}
			}()
			<-done
		},
	}
	f.ledger.SetReceiverResolver(resolverFor(bob, recv))

	err := f.ledger.SafeTransferFrom(alice, alice, bob, id, nil)
	require.ErrorIs(t, err, interfaces.ErrRecipientRejected)

	owner, _ := f.ledger.OwnerOf(id)
	assert.Equal(t, alice, owner)

	require.NotZero(t, concurrentID)
	assert.True(t, f.ledger.Exists(concurrentID))
	mintedOwner, err := f.ledger.OwnerOf(concurrentID)
	require.NoError(t, err)
	assert.Equal(t, carol, mintedOwner)
	assert.Equal(t, uint64(2), f.ledger.TotalSupply())
}

func TestCapabilityRegistration(t *testing.T) {
	f := newFixture(t)

	assert.True(t, f.caps.Supports(interfaces.CapabilityOwnership))
	assert.True(t, f.caps.Supports(interfaces.CapabilityMetadata))
	assert.Len(t, f.caps.Selectors(), 2)

	// The acceptance marker matches the canonical callback signature hash.
	assert.Equal(t, "0x150b7a02", interfaces.ReceiverAcceptanceMarker.String())
	assert.Equal(t, "0x80ac58cd", interfaces.CapabilityOwnership.String())
	assert.Equal(t, "0x5b5e139f", interfaces.CapabilityMetadata.String())
}

func TestCollectionConstants(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, CollectionName, f.ledger.Name())
	assert.Equal(t, CollectionSymbol, f.ledger.Symbol())
}

func TestBalanceOfZeroPrincipal(t *testing.T) {
	f := newFixture(t)

	_, err := f.ledger.BalanceOf(interfaces.ZeroPrincipal)
	assert.ErrorIs(t, err, interfaces.ErrZeroAddress)
}
