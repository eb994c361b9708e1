package snapshot

import (
	"encoding/base64"
	"fmt"
	"strings"
)

const nixBase32Alphabet = "0123456789abcdfghijklmnpqrsvwxyz"

// decodeNixBase32 decodes Nix's base32 encoding, which uses its own
// alphabet and reads characters from the end of the string.
func decodeNixBase32(s string, size int) ([]byte, error) {
	if len(s) != (size*8-1)/5+1 {
		return nil, fmt.Errorf("nix base32: length %d, want %d", len(s), (size*8-1)/5+1)
	}
	out := make([]byte, size)
	for n := 0; n < len(s); n++ {
		c := s[len(s)-n-1]
		digit := strings.IndexByte(nixBase32Alphabet, c)
		if digit < 0 {
			return nil, fmt.Errorf("nix base32: invalid character %q", c)
		}
		b := n * 5
		i, j := b/8, uint(b%8)
		out[i] |= byte(digit << j)
		carry := byte(digit >> (8 - j))
		if i+1 < size {
			out[i+1] |= carry
		} else if carry != 0 {
			return nil, fmt.Errorf("nix base32: invalid trailing bits")
		}
	}
	return out, nil
}

// toSRI converts a sha256 printed by nix-prefetch-url (base32) to SRI
// form. Values already in SRI form are returned unchanged.
func toSRI(h string) (string, error) {
	if strings.HasPrefix(h, "sha256-") {
		return h, nil
	}
	h = strings.TrimPrefix(h, "sha256:")
	raw, err := decodeNixBase32(h, 32)
	if err != nil {
		return "", err
	}
	return "sha256-" + base64.StdEncoding.EncodeToString(raw), nil
}
