package neat

import (
	"fmt"

	"github.com/google/uuid"
)

// NameSource generates the unique suffix of an entity identity. The default
// source draws random UUIDs; tests may install a deterministic one.
type NameSource func() string

func uuidNameSource() string {
	return uuid.NewString()[:8]
}

// NewName builds a process-unique symbolic identity for a domain object of
// the given kind, e.g. "population-3f1c09ab".
func NewName(kind string, source NameSource) string {
	if source == nil {
		source = uuidNameSource
	}
	return fmt.Sprintf("%s-%s", kind, source())
}

// Entity is the common base of every domain object in the framework. It
// owns an immutable identity assigned at construction and a reference to
// the Controller that manages the object. Only the Controller itself (which
// owns itself) and its Settings object are constructed without an owner;
// for everything else a missing owner is a ConfigurationError.
type Entity struct {
	name  string
	owner *Controller
}

// NewEntity constructs the base for an owned domain object.
func NewEntity(kind string, owner *Controller) (Entity, error) {
	if owner == nil {
		return Entity{}, configErrorf("%s requires an owning controller", kind)
	}
	return Entity{name: NewName(kind, owner.nameSource), owner: owner}, nil
}

// newUnownedEntity constructs the base for the two exempt object kinds,
// Controller and Settings.
func newUnownedEntity(kind string, source NameSource) Entity {
	return Entity{name: NewName(kind, source)}
}

// Name returns the entity's immutable symbolic identity.
func (e *Entity) Name() string { return e.name }

// Owner returns the Controller managing this entity. It is nil only for the
// Controller itself and for Settings.
func (e *Entity) Owner() *Controller { return e.owner }

// adopt sets the owner after construction. Used only by the Controller to
// claim its own Settings object.
func (e *Entity) adopt(owner *Controller) {
	e.owner = owner
}
