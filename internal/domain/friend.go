package domain

import (
	"fmt"
	"strings"
)

const externalIDLength = 17

// FriendRecord links a chat member's display name to their catalog account.
type FriendRecord struct {
	ExternalID  string
	DisplayName string
}

// ParseFriendInput parses the "<account id> <name>" line users submit when
// adding a friend. The account id must be exactly 17 digits; everything
// after it becomes the display name.
func ParseFriendInput(text string) (FriendRecord, error) {
	parts := strings.Fields(strings.TrimSpace(text))
	if len(parts) < 2 {
		return FriendRecord{}, fmt.Errorf("%w: expected account id followed by a name", ErrInvalidFormat)
	}

	id := parts[0]
	if len(id) != externalIDLength {
		return FriendRecord{}, fmt.Errorf("%w: account id must be %d digits", ErrInvalidFormat, externalIDLength)
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return FriendRecord{}, fmt.Errorf("%w: account id must be numeric", ErrInvalidFormat)
		}
	}

	return FriendRecord{
		ExternalID:  id,
		DisplayName: strings.Join(parts[1:], " "),
	}, nil
}
