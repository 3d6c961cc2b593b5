// Package mem defines the requests that flow into the memory hierarchy and
// the functional backing store behind it.
package mem

import "fmt"

// KB is the number of bytes in a kilobyte.
const KB = 1 << 10

// WordSize is the number of bytes moved by one LW or SW.
const WordSize = 4

// AccessKind tells whether an access reads or writes memory.
type AccessKind int

// Access kinds.
const (
	Load AccessKind = iota
	Store
)

func (k AccessKind) String() string {
	switch k {
	case Load:
		return "Load"
	case Store:
		return "Store"
	default:
		return fmt.Sprintf("AccessKind(%d)", int(k))
	}
}

// AccessRequest is a single load or store issued by the executing program.
//
// Address is signed because it is usually computed from a register value;
// the hierarchy rejects negative addresses.
type AccessRequest struct {
	Address    int64
	Kind       AccessKind
	StoreValue int32
}

// LoadReq creates a load request.
func LoadReq(address int64) AccessRequest {
	return AccessRequest{Address: address, Kind: Load}
}

// StoreReq creates a store request.
func StoreReq(address int64, value int32) AccessRequest {
	return AccessRequest{Address: address, Kind: Store, StoreValue: value}
}
