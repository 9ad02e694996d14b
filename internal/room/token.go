package room

import "strings"

const spectatorSuffix = "spectator"

// Token builds the opaque credential handed to a member: room and member
// ids joined by colons, with a trailing marker for spectators.
func Token(roomID, memberID string, spectator bool) string {
	t := roomID + ":" + memberID
	if spectator {
		t += ":" + spectatorSuffix
	}
	return t
}

// ParseToken splits a token built by Token.
func ParseToken(token string) (roomID, memberID string, spectator bool, err error) {
	parts := strings.Split(token, ":")
	switch {
	case len(parts) == 2:
	case len(parts) == 3 && parts[2] == spectatorSuffix:
		spectator = true
	default:
		return "", "", false, ErrInvalidToken
	}
	if parts[0] == "" || parts[1] == "" {
		return "", "", false, ErrInvalidToken
	}
	return parts[0], parts[1], spectator, nil
}
