package shortener

import "math/big"

// SafeAlphabet is the base62 alphabet every code is drawn from. It has no punctuation so
// codes survive GSM 7-bit SMS encoding and URL handling untouched.
const SafeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// IsSafeCode reports whether code is non-empty and uses only SafeAlphabet characters.
func IsSafeCode(code string) bool {
	if code == "" {
		return false
	}

	for i := 0; i < len(code); i++ {
		c := code[i]

		switch {
		case c >= '0' && c <= '9', c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z':
		default:
			return false
		}
	}

	return true
}

// encodeBase62 returns the length least significant base62 digits of digest, most
// significant first: digest mod 62^length, left-padded with '0'.
func encodeBase62(digest []byte, length int) string {
	n := new(big.Int).SetBytes(digest)
	base := big.NewInt(int64(len(SafeAlphabet)))
	mod := new(big.Int)
	out := make([]byte, length)

	for i := length - 1; i >= 0; i-- {
		n.DivMod(n, base, mod)
		out[i] = SafeAlphabet[mod.Int64()]
	}

	return string(out)
}
