/*
Package randx provides functions for generating cryptographically secure random numbers and unique identifiers.

It is primarily used to generate fixed-length Base62 channel codes and the
UUID identifiers used for messages, sessions, and groups.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	// Base62Chars defines the character set used for Base62 encoding (0-9, A-Z, a-z).
	Base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// Base62Len is the total number of characters in the Base62 character set (62).
	Base62Len = int64(len(Base62Chars))

	// ChannelCodeLength is the fixed length of a generated channel code.
	ChannelCodeLength = 6

	// GroupIDPrefix is the prefix of every group session id.
	GroupIDPrefix = "group_"
)

// ChannelCode generates a Base62 channel code using crypto/rand.
// It returns a string of length ChannelCodeLength and any error encountered.
func ChannelCode() (string, error) {
	result := make([]byte, ChannelCodeLength)

	for i := 0; i < ChannelCodeLength; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(Base62Len))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number for channel code: %v", err)
		}

		result[i] = Base62Chars[num.Int64()]
	}

	return string(result), nil
}

// MessageID generates a UUID v4 string to serve as a unique message identifier.
func MessageID() string {
	return uuid.New().String()
}

// SessionID generates a UUID v4 string to serve as a direct session identifier.
func SessionID() string {
	return uuid.New().String()
}

// GroupID generates a group session identifier. The prefix doubles as the
// id of the group's synthetic display profile.
func GroupID() string {
	return GroupIDPrefix + uuid.New().String()
}

// IsGroupID reports whether the given session id belongs to a group.
func IsGroupID(id string) bool {
	return strings.HasPrefix(id, GroupIDPrefix)
}

// IsValidChannelCode checks if the given string is a valid channel code:
// length equals ChannelCodeLength and all characters belong to Base62Chars.
func IsValidChannelCode(code string) bool {
	if len(code) != ChannelCodeLength {
		return false
	}

	for _, char := range code {
		if !strings.ContainsRune(Base62Chars, char) {
			return false
		}
	}

	return true
}
