package accessregistry

import (
	"github.com/stretchr/testify/mock"

	"github.com/artledger/nft-registry-backend/interfaces"
)

// MockAccessControl mocks the interfaces.AccessControl surface for token
// ledger tests.
type MockAccessControl struct {
	mock.Mock
}

// HasRole mocks the HasRole method
func (m *MockAccessControl) HasRole(role interfaces.Role, principal interfaces.Principal) bool {
	args := m.Called(role, principal)
	return args.Bool(0)
}

// MockAccessRegistry mocks the full interfaces.AccessRegistry interface
type MockAccessRegistry struct {
	mock.Mock
}

// HasRole mocks the HasRole method
func (m *MockAccessRegistry) HasRole(role interfaces.Role, principal interfaces.Principal) bool {
	args := m.Called(role, principal)
	return args.Bool(0)
}

// GrantRole mocks the GrantRole method
func (m *MockAccessRegistry) GrantRole(caller interfaces.Principal, role interfaces.Role, principal interfaces.Principal) error {
	args := m.Called(caller, role, principal)
	return args.Error(0)
}

// RevokeRole mocks the RevokeRole method
func (m *MockAccessRegistry) RevokeRole(caller interfaces.Principal, role interfaces.Role, principal interfaces.Principal) error {
	args := m.Called(caller, role, principal)
	return args.Error(0)
}

// AddAffiliation mocks the AddAffiliation method
func (m *MockAccessRegistry) AddAffiliation(caller, gallery, artist interfaces.Principal) error {
	args := m.Called(caller, gallery, artist)
	return args.Error(0)
}

// RemoveAffiliation mocks the RemoveAffiliation method
func (m *MockAccessRegistry) RemoveAffiliation(caller, gallery, artist interfaces.Principal) error {
	args := m.Called(caller, gallery, artist)
	return args.Error(0)
}

// ReassignRoleAdmin mocks the ReassignRoleAdmin method
func (m *MockAccessRegistry) ReassignRoleAdmin(caller interfaces.Principal, role interfaces.Role, adminRole interfaces.Role) error {
	args := m.Called(caller, role, adminRole)
	return args.Error(0)
}

// RoleAdmin mocks the RoleAdmin method
func (m *MockAccessRegistry) RoleAdmin(role interfaces.Role) interfaces.Role {
	args := m.Called(role)
	return args.Get(0).(interfaces.Role)
}

// AffiliatedArtists mocks the AffiliatedArtists method
func (m *MockAccessRegistry) AffiliatedArtists(gallery interfaces.Principal) []interfaces.Principal {
	args := m.Called(gallery)
	return args.Get(0).([]interfaces.Principal)
}

// AffiliatedGalleries mocks the AffiliatedGalleries method
func (m *MockAccessRegistry) AffiliatedGalleries(artist interfaces.Principal) []interfaces.Principal {
	args := m.Called(artist)
	return args.Get(0).([]interfaces.Principal)
}
