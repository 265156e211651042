package keeper

import "github.com/xraph/keeper/id"

// ID is the primary identifier type for all keeper records.
type ID = id.ID

// Prefix identifies the record kind encoded in a TypeID.
type Prefix = id.Prefix
