package sovdev

import (
	"fmt"
	"sort"
	"strings"
)

// peerInternal is the synthetic peer name that always resolves to the
// service's own name.
const peerInternal = "INTERNAL"

// PeerServices exposes the caller-defined peer service names as stable
// constants. Callers write PEER_SERVICES.Get("BRREG") (or the literal name)
// in code; operators control the opaque system identifiers that end up on
// the wire.
type PeerServices struct {
	// INTERNAL marks an operation whose peer is the service itself.
	INTERNAL string

	definitions map[string]string
}

// CreatePeerServices freezes a friendly-name to system-identifier mapping.
// The INTERNAL constant is synthesized and is never part of the mapping.
func CreatePeerServices(definitions map[string]string) *PeerServices {
	defs := make(map[string]string, len(definitions))
	for name, systemID := range definitions {
		defs[name] = systemID
	}
	return &PeerServices{
		INTERNAL:    peerInternal,
		definitions: defs,
	}
}

// Mappings returns a copy of the definitions for passing to Initialize.
// Mutating the returned map does not affect the registry.
func (ps *PeerServices) Mappings() map[string]string {
	out := make(map[string]string, len(ps.definitions))
	for name, systemID := range ps.definitions {
		out[name] = systemID
	}
	return out
}

// Get validates a friendly name at the call site. Defined names and INTERNAL
// come back as themselves; unknown names pass through unchanged.
func (ps *PeerServices) Get(name string) string {
	if name == peerInternal {
		return ps.INTERNAL
	}
	if _, ok := ps.definitions[name]; ok {
		return name
	}
	return name
}

// registry is the post-Initialize resolution table. Immutable once built.
type registry struct {
	ownService string
	systemIDs  map[string]string
}

func newRegistry(ownService string, definitions map[string]string) *registry {
	ids := make(map[string]string, len(definitions)+1)
	for name, systemID := range definitions {
		ids[name] = systemID
	}
	ids[peerInternal] = ownService
	return &registry{ownService: ownService, systemIDs: ids}
}

// resolve maps a friendly peer name to its system identifier. Empty names are
// treated as INTERNAL. Unknown names warn once per call and pass through.
func (r *registry) resolve(name string) string {
	if name == "" || name == peerInternal {
		return r.ownService
	}
	if systemID, ok := r.systemIDs[name]; ok {
		return systemID
	}

	known := make([]string, 0, len(r.systemIDs))
	for k := range r.systemIDs {
		if k != peerInternal {
			known = append(known, k)
		}
	}
	sort.Strings(known)
	diag.Warn(fmt.Sprintf("Unknown peer service: %s. Available: %s or INTERNAL",
		name, strings.Join(known, ", ")))
	return name
}
