package dupefind

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// HashAlgorithm represents a hash algorithm configuration
type HashAlgorithm struct {
	Name    string
	TypeID  uint16
	Size    int
	NewFunc func() hash.Hash
}

// newBLAKE2b512 returns an unkeyed BLAKE2b-512 hasher
func newBLAKE2b512() hash.Hash {
	h, err := blake2b.New512(nil)
	if err != nil {
		// Only a key longer than 64 bytes can fail, and we pass none
		panic(fmt.Sprintf("blake2b: %v", err))
	}
	return h
}

// GetHashAlgorithm returns the hash algorithm configuration for the given name
func GetHashAlgorithm(name string) (*HashAlgorithm, error) {
	typeID, ok := HashTypeFromName(name)
	if !ok {
		return nil, fmt.Errorf("unsupported hash algorithm: %s", name)
	}
	return GetHashAlgorithmByType(typeID)
}

// GetHashAlgorithmByType returns the hash algorithm configuration for the given type ID
func GetHashAlgorithmByType(typeID uint16) (*HashAlgorithm, error) {
	switch typeID {
	case HashTypeSHA1:
		return &HashAlgorithm{
			Name:    "sha1",
			TypeID:  HashTypeSHA1,
			Size:    HashSizeSHA1,
			NewFunc: func() hash.Hash { return sha1.New() },
		}, nil
	case HashTypeSHA256:
		return &HashAlgorithm{
			Name:    "sha256",
			TypeID:  HashTypeSHA256,
			Size:    HashSizeSHA256,
			NewFunc: func() hash.Hash { return sha256.New() },
		}, nil
	case HashTypeSHA512:
		return &HashAlgorithm{
			Name:    "sha512",
			TypeID:  HashTypeSHA512,
			Size:    HashSizeSHA512,
			NewFunc: func() hash.Hash { return sha512.New() },
		}, nil
	case HashTypeBLAKE2b:
		return &HashAlgorithm{
			Name:    "blake2b",
			TypeID:  HashTypeBLAKE2b,
			Size:    HashSizeBLAKE2b,
			NewFunc: newBLAKE2b512,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported hash type ID: %d", typeID)
	}
}

// SupportedHashAlgorithms lists the names accepted by GetHashAlgorithm
func SupportedHashAlgorithms() []string {
	return []string{"blake2b", "sha256", "sha512", "sha1"}
}

// ValidateHashAlgorithm validates that a hash algorithm is supported
func ValidateHashAlgorithm(algorithm string) error {
	if _, ok := HashTypeFromName(algorithm); !ok {
		return fmt.Errorf("unsupported hash algorithm: %s (supported: %s)",
			algorithm, strings.Join(SupportedHashAlgorithms(), ", "))
	}
	return nil
}

// Sum hashes data with the algorithm and returns it as a Digest
func (a *HashAlgorithm) Sum(data []byte) Digest {
	hasher := a.NewFunc()
	hasher.Write(data)
	return newDigest(hasher.Sum(nil))
}

// HashFileInterruptible calculates the hash of a file using a configurable buffer size
// and checks for shutdown signals between buffer reads for graceful interruption
func HashFileInterruptible(filePath string, algorithm *HashAlgorithm, bufferSize int, shutdownChan <-chan struct{}) (Digest, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return Digest{}, fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer file.Close()

	hasher := algorithm.NewFunc()
	buffer := make([]byte, bufferSize)

	for {
		select {
		case <-shutdownChan:
			return Digest{}, ErrInterrupted
		default:
		}

		n, err := file.Read(buffer)
		if n > 0 {
			hasher.Write(buffer[:n])
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return Digest{}, fmt.Errorf("failed to read from file %s: %w", filePath, err)
		}
	}

	return newDigest(hasher.Sum(nil)), nil
}
