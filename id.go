package postledger

import "github.com/xraph/postledger/id"

// ID is the primary identifier type for accrual, withdrawal and recovery records.
type ID = id.ID

// Prefix identifies the record type encoded in a TypeID.
type Prefix = id.Prefix
