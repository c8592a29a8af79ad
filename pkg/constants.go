package dupefind

import "strings"

// Size filter defaults (both bounds are exclusive)
const (
	DefaultMinSize int64 = 4096
	DefaultMaxSize int64 = 4294967296
)

// Fingerprint window constants
const (
	DefaultWindowSize int64 = 4096    // Bytes sampled from each end of a file
	MaxWindowSize     int64 = 1 << 24 // Upper bound accepted from configuration
)

// Hash type constants
const (
	HashTypeSHA1    uint16 = 1 // SHA-1 (20 bytes)
	HashTypeSHA256  uint16 = 2 // SHA-256 (32 bytes)
	HashTypeSHA512  uint16 = 3 // SHA-512 (64 bytes)
	HashTypeBLAKE2b uint16 = 4 // BLAKE2b-512 (64 bytes)
)

// Hash size constants
const (
	HashSizeSHA1    = 20
	HashSizeSHA256  = 32
	HashSizeSHA512  = 64
	HashSizeBLAKE2b = 64
	MaxDigestSize   = 64 // Largest supported digest, sizes the Digest array
)

// DefaultHashAlgorithm is the algorithm used when nothing else is configured
const DefaultHashAlgorithm = "blake2b"

// Group contexts stored alongside each group in the report index
const (
	SampledContext  = "sampled"  // Members agreed on size, head and tail
	VerifiedContext = "verified" // Members also agreed on a full-content digest
)

// Output formats understood by the command line renderer
const (
	FormatHuman  = "human"
	FormatJSON   = "json"
	FormatYAML   = "yaml"
	FormatFdupes = "fdupes"
)

// HashTypeName returns the human-readable name for a hash type
func HashTypeName(hashType uint16) string {
	switch hashType {
	case HashTypeSHA1:
		return "sha1"
	case HashTypeSHA256:
		return "sha256"
	case HashTypeSHA512:
		return "sha512"
	case HashTypeBLAKE2b:
		return "blake2b"
	default:
		return "unknown"
	}
}

// HashTypeFromName returns the hash type constant from a name (case-insensitive)
func HashTypeFromName(name string) (uint16, bool) {
	switch strings.ToLower(name) {
	case "sha1":
		return HashTypeSHA1, true
	case "sha256":
		return HashTypeSHA256, true
	case "sha512":
		return HashTypeSHA512, true
	case "blake2b", "blake2b-512":
		return HashTypeBLAKE2b, true
	default:
		return 0, false
	}
}
