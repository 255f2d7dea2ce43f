package utils

// EqualFoldASCII reports whether a and b are equal when only the ASCII
// letters A-Z and a-z are folded. Every other byte, including each byte of a
// multi-byte UTF-8 sequence, must match exactly.
func EqualFoldASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if lowerASCII(a[i]) != lowerASCII(b[i]) {
			return false
		}
	}
	return true
}

func lowerASCII(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}
