package redisutils

import (
	"strconv"
)

// FormatID() formats a nodeID (uint32) into a string
func FormatID(ID uint32) string {
	return strconv.FormatUint(uint64(ID), 10)
}

// FormatIDs() formats a slice of nodeIDs into a slice of interfaces, ready to
// be passed to variadic commands like SADD.
func FormatIDs(IDs []uint32) []interface{} {
	if len(IDs) == 0 {
		return nil
	}

	strIDs := make([]interface{}, len(IDs))
	for i, ID := range IDs {
		strIDs[i] = FormatID(ID)
	}
	return strIDs
}

// ParseID() parses a nodeID (uint32) from the specified string
func ParseID(strVal string) (uint32, error) {
	parsedVal, err := strconv.ParseUint(strVal, 10, 32)
	return uint32(parsedVal), err
}

// ParseIDs() parses a slice of nodeIDs from the specified strings.
func ParseIDs(strVals []string) ([]uint32, error) {
	IDs := make([]uint32, len(strVals))
	for i, strVal := range strVals {
		ID, err := ParseID(strVal)
		if err != nil {
			return nil, err
		}
		IDs[i] = ID
	}
	return IDs, nil
}
