package valueobjects

import (
	"strconv"
)

// Ref is anything that identifies a remote node or connection: a raw ID or a
// materialized Node/Connection. URL construction only ever needs the numeric id.
type Ref interface {
	RefID() int64
}

// ID is a raw backend identifier
type ID int64

// RefID implements Ref
func (id ID) RefID() int64 {
	return int64(id)
}

// String returns the decimal form used in URL paths
func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// IsZero reports whether the id was never assigned by the backend
func (id ID) IsZero() bool {
	return id == 0
}

// RefString renders a reference as a path segment. A nil reference renders as 0.
func RefString(ref Ref) string {
	if ref == nil {
		return "0"
	}
	return strconv.FormatInt(ref.RefID(), 10)
}
