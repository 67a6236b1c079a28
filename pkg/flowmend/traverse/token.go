package traverse

import (
	"fmt"
	"strconv"
	"strings"
)

// Cursor is the decoded continuation token: the next group to expand, its
// depth, and the remaining not-yet-expanded group IDs at that depth.
//
// The textual format is part of the public contract and must round-trip
// exactly:
//
//	"<groupId>:<depth>"
//	"<groupId>:<depth>:<childId1>,<childId2>,..."
type Cursor struct {
	GroupID string
	Depth   int
	Pending []string
}

// InvalidTokenError indicates a continuation token that is malformed or
// references a group that no longer exists. Callers handle it by restarting
// traversal from the root.
type InvalidTokenError struct {
	Token  string
	Reason string
}

// Error implements the error interface.
func (e *InvalidTokenError) Error() string {
	return fmt.Sprintf("invalid continuation token %q: %s", e.Token, e.Reason)
}

// Encode serializes a cursor into an opaque continuation token.
func Encode(c Cursor) string {
	var sb strings.Builder
	sb.WriteString(c.GroupID)
	sb.WriteByte(':')
	sb.WriteString(strconv.Itoa(c.Depth))
	if len(c.Pending) > 0 {
		sb.WriteByte(':')
		sb.WriteString(strings.Join(c.Pending, ","))
	}
	return sb.String()
}

// Decode parses a continuation token back into a cursor.
// Malformed tokens yield *InvalidTokenError.
func Decode(token string) (Cursor, error) {
	parts := strings.SplitN(token, ":", 3)
	if len(parts) < 2 {
		return Cursor{}, &InvalidTokenError{Token: token, Reason: "expected <groupId>:<depth>"}
	}
	if parts[0] == "" {
		return Cursor{}, &InvalidTokenError{Token: token, Reason: "empty group id"}
	}

	depth, err := strconv.Atoi(parts[1])
	if err != nil || depth < 0 {
		return Cursor{}, &InvalidTokenError{Token: token, Reason: "depth must be a non-negative integer"}
	}

	cursor := Cursor{GroupID: parts[0], Depth: depth}
	if len(parts) == 3 {
		if parts[2] == "" {
			return Cursor{}, &InvalidTokenError{Token: token, Reason: "empty pending children list"}
		}
		cursor.Pending = strings.Split(parts[2], ",")
		for _, id := range cursor.Pending {
			if id == "" {
				return Cursor{}, &InvalidTokenError{Token: token, Reason: "empty pending child id"}
			}
		}
	}
	return cursor, nil
}
