// Package channel implements the command channel: a named pipe the daemon
// polls without blocking, and that short-lived selection processes write a
// single entry into.
//
// There is no message framing. A read returns whatever bytes arrived since
// the previous read, up to ReadBufferSize. Writers are expected to send one
// payload that fits in the pipe buffer; larger payloads may be split across
// several reads.
package channel

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// ReadBufferSize is the most a single TryRead returns.
const ReadBufferSize = 64 * 1024

// ErrNoReader is returned by Write when no daemon holds the read end open.
var ErrNoReader = errors.New("no daemon is reading the command channel")

// ChannelTypeError reports a non-FIFO object occupying the channel path.
type ChannelTypeError struct {
	Path string
	Mode fs.FileMode
}

func (e *ChannelTypeError) Error() string {
	return fmt.Sprintf("%s exists and is not a named pipe (mode %s)", e.Path, e.Mode)
}

// Ensure makes sure a FIFO exists at path, creating it when absent.
func Ensure(path string) error {
	info, err := os.Lstat(path)
	switch {
	case err == nil:
		if info.Mode()&fs.ModeNamedPipe == 0 {
			return &ChannelTypeError{Path: path, Mode: info.Mode()}
		}
		return nil
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return fmt.Errorf("failed to create runtime directory: %w", err)
		}
		if err := unix.Mkfifo(path, 0600); err != nil {
			return fmt.Errorf("failed to create fifo %s: %w", path, err)
		}
		return nil
	default:
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
}

// Reader is the daemon's long-lived, non-blocking read handle.
type Reader struct {
	path string
	fd   int
	buf  []byte
}

// OpenOrCreate ensures the FIFO exists and opens it for non-blocking reads.
func OpenOrCreate(path string) (*Reader, error) {
	if err := Ensure(path); err != nil {
		return nil, err
	}
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open fifo %s: %w", path, err)
	}
	return &Reader{
		path: path,
		fd:   fd,
		buf:  make([]byte, ReadBufferSize),
	}, nil
}

func (r *Reader) Path() string { return r.path }

// TryRead returns the bytes currently available, or nil when there are
// none. Only unexpected I/O failures are returned as errors.
//
// The raw descriptor is read directly: wrapping it in an *os.File would hand
// it to the runtime poller, which parks the goroutine instead of reporting
// EAGAIN.
func (r *Reader) TryRead() ([]byte, error) {
	for {
		n, err := unix.Read(r.fd, r.buf)
		switch {
		case err == unix.EINTR:
			continue
		case err == unix.EAGAIN || err == unix.EWOULDBLOCK:
			return nil, nil
		case err != nil:
			return nil, fmt.Errorf("failed to read fifo %s: %w", r.path, err)
		case n == 0:
			// No writer connected
			return nil, nil
		}
		out := make([]byte, n)
		copy(out, r.buf[:n])
		return out, nil
	}
}

func (r *Reader) Close() error {
	if r.fd < 0 {
		return nil
	}
	err := unix.Close(r.fd)
	r.fd = -1
	return err
}

// Write delivers one payload to the daemon: open, write, close.
func Write(path string, payload []byte) error {
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNoReader
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.Mode()&fs.ModeNamedPipe == 0 {
		return &ChannelTypeError{Path: path, Mode: info.Mode()}
	}

	// O_NONBLOCK makes open fail with ENXIO instead of hanging when the
	// daemon is not running.
	fd, err := unix.Open(path, unix.O_WRONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		if err == unix.ENXIO {
			return ErrNoReader
		}
		return fmt.Errorf("failed to open fifo %s: %w", path, err)
	}
	defer unix.Close(fd)

	if err := unix.SetNonblock(fd, false); err != nil {
		return fmt.Errorf("failed to configure fifo %s: %w", path, err)
	}
	for len(payload) > 0 {
		n, err := unix.Write(fd, payload)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to write fifo %s: %w", path, err)
		}
		payload = payload[n:]
	}
	return nil
}
