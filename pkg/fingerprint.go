package dupefind

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sys/unix"
)

// Window selects which end of a file is sampled
type Window int

const (
	HeadWindow Window = iota // First WindowSize bytes
	TailWindow               // Last WindowSize bytes
)

func (w Window) String() string {
	switch w {
	case HeadWindow:
		return "head"
	case TailWindow:
		return "tail"
	default:
		return fmt.Sprintf("window(%d)", int(w))
	}
}

var (
	errNotRegular  = errors.New("not a regular file")
	errFileChanged = errors.New("file size changed since it was listed")
)

// Digest is a fixed-size hash value. It is comparable and can be used as a map key.
type Digest struct {
	sum [MaxDigestSize]byte
	n   uint8
}

func newDigest(b []byte) Digest {
	var d Digest
	d.n = uint8(copy(d.sum[:], b))
	return d
}

// Bytes returns the digest bytes
func (d Digest) Bytes() []byte {
	return d.sum[:d.n]
}

// String returns the digest as lowercase hex
func (d Digest) String() string {
	return hex.EncodeToString(d.Bytes())
}

// IsZero returns true for a digest that was never computed
func (d Digest) IsZero() bool {
	return d.n == 0
}

// Extractor computes fingerprints over bounded windows of a file
type Extractor struct {
	Algorithm  *HashAlgorithm
	WindowSize int64
	BufferSize int // Read buffer for full-content hashing when mmap is unavailable
}

// NewExtractor creates an extractor; a nil algorithm selects the default and a
// non-positive window selects DefaultWindowSize
func NewExtractor(algorithm *HashAlgorithm, windowSize int64) (*Extractor, error) {
	if algorithm == nil {
		var err error
		if algorithm, err = GetHashAlgorithm(DefaultHashAlgorithm); err != nil {
			return nil, err
		}
	}
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	return &Extractor{
		Algorithm:  algorithm,
		WindowSize: windowSize,
		BufferSize: 2 * 1024 * 1024,
	}, nil
}

// windowBounds returns the offset and length of the sampled slice. The length
// is clamped to the file size so the tail offset is never negative.
func windowBounds(size, window int64, w Window) (offset, length int64) {
	length = window
	if size < length {
		length = size
	}
	if w == TailWindow {
		offset = size - length
	}
	return offset, length
}

// openRegular opens path without blocking and checks it is still the regular
// file of the given size that was listed
func openRegular(path string, size int64) (int, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return -1, &ReadError{Path: path, Op: "open", Err: err}
	}

	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		unix.Close(fd)
		return -1, &ReadError{Path: path, Op: "stat", Err: err}
	}
	if st.Mode&unix.S_IFMT != unix.S_IFREG {
		unix.Close(fd)
		return -1, &ReadError{Path: path, Op: "read", Err: errNotRegular}
	}
	if st.Size != size {
		unix.Close(fd)
		return -1, &ReadError{Path: path, Op: "read", Err: errFileChanged}
	}
	return fd, nil
}

// preadFull reads len(buf) bytes starting at offset
func preadFull(fd int, buf []byte, offset int64) error {
	for done := 0; done < len(buf); {
		n, err := unix.Pread(fd, buf[done:], offset+int64(done))
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrUnexpectedEOF
		}
		done += n
	}
	return nil
}

// Fingerprint hashes the head or tail window of a candidate file
func (ex *Extractor) Fingerprint(c Candidate, w Window) (Digest, error) {
	fd, err := openRegular(c.Path, c.Size)
	if err != nil {
		return Digest{}, err
	}
	defer unix.Close(fd)

	offset, length := windowBounds(c.Size, ex.WindowSize, w)
	buf := make([]byte, length)
	if err := preadFull(fd, buf, offset); err != nil {
		return Digest{}, &ReadError{Path: c.Path, Op: "read " + w.String() + " of", Err: err}
	}

	if IsDebugEnabled("hash") {
		DebugLog("hash", "%s window [%d,%d) of %s", w, offset, offset+length, c.Path)
	}
	return ex.Algorithm.Sum(buf), nil
}

// FullDigest hashes the whole file through a read-only mapping, falling back to
// buffered reads when the file cannot be mapped
func (ex *Extractor) FullDigest(c Candidate, shutdownChan <-chan struct{}) (Digest, error) {
	fd, err := openRegular(c.Path, c.Size)
	if err != nil {
		return Digest{}, err
	}
	defer unix.Close(fd)

	if c.Size == 0 {
		return ex.Algorithm.Sum(nil), nil
	}

	data, err := unix.Mmap(fd, 0, int(c.Size), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		VerboseLog(2, "mmap of %s failed (%v), using buffered read", c.Path, err)
		digest, err := HashFileInterruptible(c.Path, ex.Algorithm, ex.BufferSize, shutdownChan)
		if err != nil && !errors.Is(err, ErrInterrupted) {
			return Digest{}, &ReadError{Path: c.Path, Op: "hash", Err: err}
		}
		return digest, err
	}
	defer unix.Munmap(data)
	_ = unix.Madvise(data, unix.MADV_SEQUENTIAL)

	hasher := ex.Algorithm.NewFunc()
	chunk := ex.BufferSize
	if chunk <= 0 {
		chunk = len(data)
	}
	for start := 0; start < len(data); start += chunk {
		select {
		case <-shutdownChan:
			return Digest{}, ErrInterrupted
		default:
		}
		end := start + chunk
		if end > len(data) {
			end = len(data)
		}
		hasher.Write(data[start:end])
	}
	return newDigest(hasher.Sum(nil)), nil
}
