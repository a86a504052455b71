package accessregistry

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/artledger/nft-registry-backend/interfaces"
	"github.com/artledger/nft-registry-backend/ledgerstate"
)

// Registry implements interfaces.AccessRegistry on top of an injected store.
type Registry struct {
	store  ledgerstate.Store
	events interfaces.EventSink
	log    *slog.Logger
}

// New creates an access registry backed by the given store and event sink.
func New(store ledgerstate.Store, events interfaces.EventSink, log *slog.Logger) *Registry {
	return &Registry{
		store:  store,
		events: events,
		log:    log,
	}
}

// Bootstrap grants the Administrator role to the given principal without a
// caller check. Intended for genesis initialization of a fresh store; it is
// a no-op when the principal is already an administrator.
func (r *Registry) Bootstrap(admin interfaces.Principal) error {
	if admin.IsZero() {
		return interfaces.ErrZeroAddress
	}

	var granted bool
	err := r.store.Update(func(s *ledgerstate.State) error {
		if s.Roles[admin].Has(interfaces.RoleAdministrator) {
			return nil
		}
		s.Roles[admin] = s.Roles[admin].With(interfaces.RoleAdministrator)
		granted = true
		return nil
	})
	if err != nil {
		return err
	}

	if granted {
		r.events.Emit(interfaces.NewRoleGrantedEvent(interfaces.RoleAdministrator, admin))
		r.log.Info("Bootstrapped administrator", slog.String("principal", admin.String()))
	}
	return nil
}

// HasRole implements interfaces.AccessControl.
func (r *Registry) HasRole(role interfaces.Role, principal interfaces.Principal) bool {
	var held bool
	_ = r.store.View(func(s *ledgerstate.State) error {
		held = s.Roles[principal].Has(role)
		return nil
	})
	return held
}

// GrantRole implements interfaces.AccessRegistry. The caller must hold the
// role's admin role; granting Creator to a Gallery holder (or vice versa)
// fails with ErrRoleConflict, and granting a held role fails with
// ErrAlreadyGranted.
func (r *Registry) GrantRole(caller interfaces.Principal, role interfaces.Role, principal interfaces.Principal) error {
	if !role.Valid() {
		return fmt.Errorf("%w: %d", interfaces.ErrInvalidRole, role)
	}
	if caller.IsZero() || principal.IsZero() {
		return interfaces.ErrZeroAddress
	}

	err := r.store.Update(func(s *ledgerstate.State) error {
		if err := authorizeRoleMutation(s, caller, role); err != nil {
			return err
		}

		held := s.Roles[principal]
		if held.Has(role) {
			return fmt.Errorf("%w: %s already holds %s", interfaces.ErrAlreadyGranted, principal, role)
		}
		if role == interfaces.RoleCreator && held.Has(interfaces.RoleGallery) {
			return fmt.Errorf("%w: %s holds %s", interfaces.ErrRoleConflict, principal, interfaces.RoleGallery)
		}
		if role == interfaces.RoleGallery && held.Has(interfaces.RoleCreator) {
			return fmt.Errorf("%w: %s holds %s", interfaces.ErrRoleConflict, principal, interfaces.RoleCreator)
		}

		s.Roles[principal] = held.With(role)
		return nil
	})
	if err != nil {
		return err
	}

	r.events.Emit(interfaces.NewRoleGrantedEvent(role, principal))
	r.log.Info("Role granted",
		slog.String("role", role.String()),
		slog.String("principal", principal.String()),
		slog.String("caller", caller.String()))
	return nil
}

// RevokeRole implements interfaces.AccessRegistry. Revoking Gallery or
// Creator removes the principal's affiliation edges in the same update.
func (r *Registry) RevokeRole(caller interfaces.Principal, role interfaces.Role, principal interfaces.Principal) error {
	if !role.Valid() {
		return fmt.Errorf("%w: %d", interfaces.ErrInvalidRole, role)
	}
	if caller.IsZero() || principal.IsZero() {
		return interfaces.ErrZeroAddress
	}

	var removedEdges []interfaces.Event
	err := r.store.Update(func(s *ledgerstate.State) error {
		removedEdges = removedEdges[:0]

		if err := authorizeRoleMutation(s, caller, role); err != nil {
			return err
		}

		held := s.Roles[principal]
		if !held.Has(role) {
			return fmt.Errorf("%w: %s does not hold %s", interfaces.ErrNotGranted, principal, role)
		}

		s.Roles[principal] = held.Without(role)

		switch role {
		case interfaces.RoleGallery:
			for artist := range s.GalleryArtists[principal] {
				delete(s.ArtistGalleries[artist], principal)
				removedEdges = append(removedEdges, interfaces.NewAffiliationRemovedEvent(principal, artist))
			}
			delete(s.GalleryArtists, principal)
		case interfaces.RoleCreator:
			for gallery := range s.ArtistGalleries[principal] {
				delete(s.GalleryArtists[gallery], principal)
				removedEdges = append(removedEdges, interfaces.NewAffiliationRemovedEvent(gallery, principal))
			}
			delete(s.ArtistGalleries, principal)
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.events.Emit(interfaces.NewRoleRevokedEvent(role, principal))
	for _, ev := range removedEdges {
		r.events.Emit(ev)
	}
	r.log.Info("Role revoked",
		slog.String("role", role.String()),
		slog.String("principal", principal.String()),
		slog.Int("affiliationsRemoved", len(removedEdges)))
	return nil
}

// AddAffiliation implements interfaces.AccessRegistry. The caller must be an
// administrator; the gallery must hold Gallery and the artist Creator.
func (r *Registry) AddAffiliation(caller, gallery, artist interfaces.Principal) error {
	if caller.IsZero() || gallery.IsZero() || artist.IsZero() {
		return interfaces.ErrZeroAddress
	}

	err := r.store.Update(func(s *ledgerstate.State) error {
		if !s.Roles[caller].Has(interfaces.RoleAdministrator) {
			return fmt.Errorf("%w: %s is not an administrator", interfaces.ErrUnauthorized, caller)
		}
		if !s.Roles[gallery].Has(interfaces.RoleGallery) {
			return fmt.Errorf("%w: gallery %s does not hold %s", interfaces.ErrNotGranted, gallery, interfaces.RoleGallery)
		}
		if !s.Roles[artist].Has(interfaces.RoleCreator) {
			return fmt.Errorf("%w: artist %s does not hold %s", interfaces.ErrNotGranted, artist, interfaces.RoleCreator)
		}
		if s.GalleryArtists[gallery][artist] {
			return fmt.Errorf("%w: %s and %s", interfaces.ErrDuplicateAffiliation, gallery, artist)
		}

		if s.GalleryArtists[gallery] == nil {
			s.GalleryArtists[gallery] = make(map[interfaces.Principal]bool)
		}
		if s.ArtistGalleries[artist] == nil {
			s.ArtistGalleries[artist] = make(map[interfaces.Principal]bool)
		}
		s.GalleryArtists[gallery][artist] = true
		s.ArtistGalleries[artist][gallery] = true
		return nil
	})
	if err != nil {
		return err
	}

	r.events.Emit(interfaces.NewAffiliationAddedEvent(gallery, artist))
	r.log.Info("Affiliation added",
		slog.String("gallery", gallery.String()),
		slog.String("artist", artist.String()))
	return nil
}

// RemoveAffiliation implements interfaces.AccessRegistry.
func (r *Registry) RemoveAffiliation(caller, gallery, artist interfaces.Principal) error {
	if caller.IsZero() || gallery.IsZero() || artist.IsZero() {
		return interfaces.ErrZeroAddress
	}

	err := r.store.Update(func(s *ledgerstate.State) error {
		if !s.Roles[caller].Has(interfaces.RoleAdministrator) {
			return fmt.Errorf("%w: %s is not an administrator", interfaces.ErrUnauthorized, caller)
		}
		if !s.GalleryArtists[gallery][artist] {
			return fmt.Errorf("%w: %s and %s", interfaces.ErrNotAffiliated, gallery, artist)
		}

		delete(s.GalleryArtists[gallery], artist)
		delete(s.ArtistGalleries[artist], gallery)
		return nil
	})
	if err != nil {
		return err
	}

	r.events.Emit(interfaces.NewAffiliationRemovedEvent(gallery, artist))
	r.log.Info("Affiliation removed",
		slog.String("gallery", gallery.String()),
		slog.String("artist", artist.String()))
	return nil
}

// ReassignRoleAdmin implements interfaces.AccessRegistry. It changes which
// role governs grant/revoke authority over role, enabling governance
// hierarchies beyond the single top-level administrator.
func (r *Registry) ReassignRoleAdmin(caller interfaces.Principal, role interfaces.Role, adminRole interfaces.Role) error {
	if !role.Valid() || !adminRole.Valid() {
		return interfaces.ErrInvalidRole
	}
	if caller.IsZero() {
		return interfaces.ErrZeroAddress
	}

	var previous interfaces.Role
	err := r.store.Update(func(s *ledgerstate.State) error {
		if !s.Roles[caller].Has(interfaces.RoleAdministrator) {
			return fmt.Errorf("%w: %s is not an administrator", interfaces.ErrUnauthorized, caller)
		}
		previous = roleAdminOf(s, role)
		s.RoleAdmins[role] = adminRole
		return nil
	})
	if err != nil {
		return err
	}

	r.events.Emit(interfaces.NewRoleAdminChangedEvent(role, previous, adminRole))
	r.log.Info("Role admin reassigned",
		slog.String("role", role.String()),
		slog.String("previousAdmin", previous.String()),
		slog.String("newAdmin", adminRole.String()))
	return nil
}

// RoleAdmin implements interfaces.AccessRegistry.
func (r *Registry) RoleAdmin(role interfaces.Role) interfaces.Role {
	admin := interfaces.RoleAdministrator
	_ = r.store.View(func(s *ledgerstate.State) error {
		admin = roleAdminOf(s, role)
		return nil
	})
	return admin
}

// AffiliatedArtists implements interfaces.AccessRegistry. Results are sorted
// for deterministic output.
func (r *Registry) AffiliatedArtists(gallery interfaces.Principal) []interfaces.Principal {
	return r.adjacency(gallery, true)
}

// AffiliatedGalleries implements interfaces.AccessRegistry.
func (r *Registry) AffiliatedGalleries(artist interfaces.Principal) []interfaces.Principal {
	return r.adjacency(artist, false)
}

func (r *Registry) adjacency(from interfaces.Principal, galleries bool) []interfaces.Principal {
	var out []interfaces.Principal
	_ = r.store.View(func(s *ledgerstate.State) error {
		var edges map[interfaces.Principal]bool
		if galleries {
			edges = s.GalleryArtists[from]
		} else {
			edges = s.ArtistGalleries[from]
		}
		for p := range edges {
			out = append(out, p)
		}
		return nil
	})

	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})
	return out
}

// authorizeRoleMutation checks that the caller holds the role governing
// mutations of role. Defaults to Administrator unless reassigned.
func authorizeRoleMutation(s *ledgerstate.State, caller interfaces.Principal, role interfaces.Role) error {
	admin := roleAdminOf(s, role)
	if !s.Roles[caller].Has(admin) {
		return fmt.Errorf("%w: %s does not hold %s", interfaces.ErrUnauthorized, caller, admin)
	}
	return nil
}

func roleAdminOf(s *ledgerstate.State, role interfaces.Role) interfaces.Role {
	if admin, ok := s.RoleAdmins[role]; ok {
		return admin
	}
	return interfaces.RoleAdministrator
}
