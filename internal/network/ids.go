package network

import "github.com/google/uuid"

// IDFunc supplies opaque identifiers. Only equality between IDs matters.
type IDFunc func() string

func defaultIDFunc(newID IDFunc) IDFunc {
	if newID == nil {
		return uuid.NewString
	}
	return newID
}
