package accessregistry

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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
	admin   = principal(0x01)
	artist  = principal(0x02)
	gallery = principal(0x03)
	minter  = principal(0x04)
	mallory = principal(0x05)
)

func newTestRegistry(t *testing.T) (*Registry, *events.Recorder) {
	t.Helper()
	rec := events.NewRecorder()
	reg := New(ledgerstate.NewMemoryStore(), rec, slog.Default())
	require.NoError(t, reg.Bootstrap(admin))
	rec.Reset()
	return reg, rec
}

func TestGrantAndRevokeRole(t *testing.T) {
	reg, rec := newTestRegistry(t)

	require.NoError(t, reg.GrantRole(admin, interfaces.RoleCreator, artist))
	assert.True(t, reg.HasRole(interfaces.RoleCreator, artist))

	granted := rec.Named("RoleGranted")
	require.Len(t, granted, 1)
	assert.Equal(t, artist.String(), granted[0].Fields["principal"])

	require.NoError(t, reg.RevokeRole(admin, interfaces.RoleCreator, artist))
	assert.False(t, reg.HasRole(interfaces.RoleCreator, artist))
	assert.Len(t, rec.Named("RoleRevoked"), 1)
}

func TestGrantRoleRequiresAdmin(t *testing.T) {
	reg, rec := newTestRegistry(t)

	err := reg.GrantRole(mallory, interfaces.RoleCreator, artist)
	require.ErrorIs(t, err, interfaces.ErrUnauthorized)
	assert.False(t, reg.HasRole(interfaces.RoleCreator, artist))
	assert.Empty(t, rec.Events())
}

func TestGrantRoleTwiceFails(t *testing.T) {
	reg, _ := newTestRegistry(t)

	require.NoError(t, reg.GrantRole(admin, interfaces.RoleGallery, gallery))
	err := reg.GrantRole(admin, interfaces.RoleGallery, gallery)
	assert.ErrorIs(t, err, interfaces.ErrAlreadyGranted)
}

func TestRevokeUnheldRoleFails(t *testing.T) {
	reg, _ := newTestRegistry(t)

	err := reg.RevokeRole(admin, interfaces.RoleGallery, gallery)
	assert.ErrorIs(t, err, interfaces.ErrNotGranted)
}

func TestCreatorGalleryMutualExclusion(t *testing.T) {
	reg, _ := newTestRegistry(t)

	// Creator first, then Gallery.
	require.NoError(t, reg.GrantRole(admin, interfaces.RoleCreator, artist))
	err := reg.GrantRole(admin, interfaces.RoleGallery, artist)
	assert.ErrorIs(t, err, interfaces.ErrRoleConflict)

	// Gallery first, then Creator.
	require.NoError(t, reg.GrantRole(admin, interfaces.RoleGallery, gallery))
	err = reg.GrantRole(admin, interfaces.RoleCreator, gallery)
	assert.ErrorIs(t, err, interfaces.ErrRoleConflict)
}

func TestGrantZeroPrincipalFails(t *testing.T) {
	reg, _ := newTestRegistry(t)

	err := reg.GrantRole(admin, interfaces.RoleCreator, interfaces.ZeroPrincipal)
	assert.ErrorIs(t, err, interfaces.ErrZeroAddress)
}

func TestAffiliationLifecycle(t *testing.T) {
	reg, rec := newTestRegistry(t)

	require.NoError(t, reg.GrantRole(admin, interfaces.RoleGallery, gallery))
	require.NoError(t, reg.GrantRole(admin, interfaces.RoleCreator, artist))

	// Add succeeds and is visible from both sides.
	require.NoError(t, reg.AddAffiliation(admin, gallery, artist))
	assert.Equal(t, []interfaces.Principal{artist}, reg.AffiliatedArtists(gallery))
	assert.Equal(t, []interfaces.Principal{gallery}, reg.AffiliatedGalleries(artist))
	assert.Len(t, rec.Named("AffiliationAdded"), 1)

	// Duplicate add fails.
	err := reg.AddAffiliation(admin, gallery, artist)
	assert.ErrorIs(t, err, interfaces.ErrDuplicateAffiliation)

	// Remove succeeds once, then fails.
	require.NoError(t, reg.RemoveAffiliation(admin, gallery, artist))
	assert.Empty(t, reg.AffiliatedArtists(gallery))
	assert.Empty(t, reg.AffiliatedGalleries(artist))

	err = reg.RemoveAffiliation(admin, gallery, artist)
	assert.ErrorIs(t, err, interfaces.ErrNotAffiliated)
}

func TestAffiliationRequiresRoles(t *testing.T) {
	reg, _ := newTestRegistry(t)

	require.NoError(t, reg.GrantRole(admin, interfaces.RoleGallery, gallery))

	// Artist lacks the Creator role.
	err := reg.AddAffiliation(admin, gallery, artist)
	assert.ErrorIs(t, err, interfaces.ErrNotGranted)

	// Gallery lacks the Gallery role.
	require.NoError(t, reg.GrantRole(admin, interfaces.RoleCreator, artist))
	err = reg.AddAffiliation(admin, mallory, artist)
	assert.ErrorIs(t, err, interfaces.ErrNotGranted)
}

func TestAffiliationRequiresAdminCaller(t *testing.T) {
	reg, _ := newTestRegistry(t)

	require.NoError(t, reg.GrantRole(admin, interfaces.RoleGallery, gallery))
	require.NoError(t, reg.GrantRole(admin, interfaces.RoleCreator, artist))

	err := reg.AddAffiliation(mallory, gallery, artist)
	assert.ErrorIs(t, err, interfaces.ErrUnauthorized)
}

func TestRevokeRolePrunesAffiliations(t *testing.T) {
	reg, rec := newTestRegistry(t)

	secondArtist := principal(0x06)
	require.NoError(t, reg.GrantRole(admin, interfaces.RoleGallery, gallery))
	require.NoError(t, reg.GrantRole(admin, interfaces.RoleCreator, artist))
	require.NoError(t, reg.GrantRole(admin, interfaces.RoleCreator, secondArtist))
	require.NoError(t, reg.AddAffiliation(admin, gallery, artist))
	require.NoError(t, reg.AddAffiliation(admin, gallery, secondArtist))
	rec.Reset()

	// Revoking the gallery role drops both edges atomically.
	require.NoError(t, reg.RevokeRole(admin, interfaces.RoleGallery, gallery))
	assert.Empty(t, reg.AffiliatedArtists(gallery))
	assert.Empty(t, reg.AffiliatedGalleries(artist))
	assert.Empty(t, reg.AffiliatedGalleries(secondArtist))
	assert.Len(t, rec.Named("AffiliationRemoved"), 2)

	// And the artist side symmetrically.
	require.NoError(t, reg.GrantRole(admin, interfaces.RoleGallery, gallery))
	require.NoError(t, reg.AddAffiliation(admin, gallery, artist))
	require.NoError(t, reg.RevokeRole(admin, interfaces.RoleCreator, artist))
	assert.Empty(t, reg.AffiliatedArtists(gallery))
}

func TestReassignRoleAdmin(t *testing.T) {
	reg, rec := newTestRegistry(t)

	// Default admin role governs the whitelist.
	assert.Equal(t, interfaces.RoleAdministrator, reg.RoleAdmin(interfaces.RoleContractWhitelist))

	// Hand whitelist governance to galleries.
	require.NoError(t, reg.ReassignRoleAdmin(admin, interfaces.RoleContractWhitelist, interfaces.RoleGallery))
	assert.Equal(t, interfaces.RoleGallery, reg.RoleAdmin(interfaces.RoleContractWhitelist))
	assert.Len(t, rec.Named("RoleAdminChanged"), 1)

	// The administrator can no longer grant the whitelist role directly.
	err := reg.GrantRole(admin, interfaces.RoleContractWhitelist, minter)
	assert.ErrorIs(t, err, interfaces.ErrUnauthorized)

	// A gallery-role holder now can.
	require.NoError(t, reg.GrantRole(admin, interfaces.RoleGallery, gallery))
	require.NoError(t, reg.GrantRole(gallery, interfaces.RoleContractWhitelist, minter))
	assert.True(t, reg.HasRole(interfaces.RoleContractWhitelist, minter))
}

func TestReassignRoleAdminRequiresAdministrator(t *testing.T) {
	reg, _ := newTestRegistry(t)

	err := reg.ReassignRoleAdmin(mallory, interfaces.RoleCreator, interfaces.RoleGallery)
	assert.ErrorIs(t, err, interfaces.ErrUnauthorized)
}

func TestFailedMutationLeavesNoTrace(t *testing.T) {
	reg, rec := newTestRegistry(t)

	require.NoError(t, reg.GrantRole(admin, interfaces.RoleCreator, artist))
	rec.Reset()

	// The conflicting grant must not have removed or altered anything.
	err := reg.GrantRole(admin, interfaces.RoleGallery, artist)
	require.ErrorIs(t, err, interfaces.ErrRoleConflict)
	assert.True(t, reg.HasRole(interfaces.RoleCreator, artist))
	assert.False(t, reg.HasRole(interfaces.RoleGallery, artist))
	assert.Empty(t, rec.Events())
}
