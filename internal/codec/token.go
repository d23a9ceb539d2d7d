package codec

import (
	"regexp"
	"strings"
)

// NativeSentinel marks the network's native asset.
const NativeSentinel = "NATIVE"

var (
	addressPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)
	txHashPattern  = regexp.MustCompile(`^0x[a-fA-F0-9]{64}$`)
	hexDataPattern = regexp.MustCompile(`^0x([a-fA-F0-9]{2})*$`)
)

// IsAddress reports whether s is 0x followed by 40 hex characters.
func IsAddress(s string) bool {
	return addressPattern.MatchString(s)
}

// IsTxHash reports whether s is 0x followed by 64 hex characters.
func IsTxHash(s string) bool {
	return txHashPattern.MatchString(s)
}

// IsHexData reports whether s is 0x followed by whole bytes of hex.
func IsHexData(s string) bool {
	return hexDataPattern.MatchString(s)
}

// TokenRef is a resolved token: either the native asset or a contract address.
type TokenRef struct {
	Address string
	Native  bool
}

// ResolveToken maps a token string to a TokenRef. Addresses are returned
// verbatim; anything else is looked up case-insensitively in known, whose keys
// are lowercase symbols. ok is false when the token cannot be resolved.
func ResolveToken(token string, known map[string]string) (ref TokenRef, ok bool) {
	if token == "" {
		return TokenRef{}, false
	}
	if IsAddress(token) {
		return TokenRef{Address: token}, true
	}

	target, found := known[strings.ToLower(token)]
	if !found {
		return TokenRef{}, false
	}
	if target == NativeSentinel {
		return TokenRef{Address: NativeSentinel, Native: true}, true
	}
	return TokenRef{Address: target}, true
}
