package dupefind

import (
	"fmt"
	"os"
	"syscall"

	"github.com/google/vectorio"
)

// iovMax is the Linux IOV_MAX; writes are chunked so no single writev exceeds it
const iovMax = 1024

// WriteVector writes bufs to f in order using writev, at most iovMax buffers per
// call. A short write is completed with ordinary writes.
func WriteVector(f *os.File, bufs [][]byte) (int, error) {
	pending := make([][]byte, 0, len(bufs))
	iovecs := make([]syscall.Iovec, 0, len(bufs))
	for _, b := range bufs {
		if len(b) == 0 {
			continue
		}
		iov := syscall.Iovec{Base: &b[0]}
		iov.SetLen(len(b))
		iovecs = append(iovecs, iov)
		pending = append(pending, b)
	}

	totalWritten := 0
	fd := uintptr(f.Fd())
	for offset := 0; offset < len(iovecs); offset += iovMax {
		end := offset + iovMax
		if end > len(iovecs) {
			end = len(iovecs)
		}

		want := 0
		for _, b := range pending[offset:end] {
			want += len(b)
		}

		nw, err := vectorio.WritevRaw(fd, iovecs[offset:end])
		if err != nil {
			return totalWritten, fmt.Errorf("failed to write %d buffers with writev: %w", end-offset, err)
		}
		totalWritten += nw
		if nw == want {
			continue
		}

		// finish whatever the kernel did not take
		skip := nw
		for _, b := range pending[offset:end] {
			if skip >= len(b) {
				skip -= len(b)
				continue
			}
			n, err := f.Write(b[skip:])
			totalWritten += n
			if err != nil {
				return totalWritten, fmt.Errorf("write incomplete: %w", err)
			}
			skip = 0
		}
	}
	return totalWritten, nil
}
