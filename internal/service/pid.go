package service

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// ErrAlreadyRunning is returned when another daemon owns the PID file.
var ErrAlreadyRunning = errors.New("daemon is already running")

// pidFile guards against two daemons sharing one pair of backing files
type pidFile struct {
	path string
}

func newPIDFile(path string) *pidFile {
	return &pidFile{path: path}
}

// acquire records this process, failing if a live daemon is recorded
func (p *pidFile) acquire() error {
	pid, err := p.read()
	if err != nil {
		return err
	}
	if pid != 0 && pid != os.Getpid() && isRunning(pid) {
		return fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, pid)
	}
	return p.write()
}

// write writes the current process PID to the PID file
func (p *pidFile) write() error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0700); err != nil {
		return fmt.Errorf("failed to create PID directory: %w", err)
	}
	return os.WriteFile(p.path, []byte(strconv.Itoa(os.Getpid())), 0600)
}

// read returns the recorded PID, or 0 when there is no PID file
func (p *pidFile) read() (int, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		// A garbage PID file cannot name a live daemon
		return 0, nil
	}

	return pid, nil
}

// release removes the PID file if it still names this process
func (p *pidFile) release() error {
	pid, err := p.read()
	if err != nil || pid != os.Getpid() {
		return err
	}
	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	return nil
}

// isRunning checks if a process with the given PID is running
func isRunning(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	// On Unix systems, FindProcess always succeeds, so we need to check if the process actually exists
	err = process.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
