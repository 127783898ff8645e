package rampart

import "github.com/xraph/rampart/id"

// ID is the primary identifier type for all rampart entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
