package dvar

import "github.com/cespare/xxhash/v2"

// BucketCount is the size of the name hash table.
const BucketCount = 1024

// HashName returns the case-insensitive hash of a variable name.
func HashName(name string) uint32 {
	var buf [64]byte
	b := buf[:0]
	for i := 0; i < len(name); i++ {
		c := name[i]
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		b = append(b, c)
	}
	return uint32(xxhash.Sum64(b))
}

func bucketOf(hash uint32) int {
	return int(hash & (BucketCount - 1))
}

// IsValidName reports whether name consists only of ASCII letters, digits
// and underscores. The empty name is accepted here and rejected by Register.
func IsValidName(name string) bool {
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9', c == '_':
		default:
			return false
		}
	}
	return true
}

// compareNames orders names case-insensitively.
func compareNames(a, b string) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		ca, cb := lower(a[i]), lower(b[i])
		if ca != cb {
			if ca < cb {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

func lower(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}
