// Package lockfile records where a running daemon can be reached.
//
// The file holds a single line "port|pid|secret".
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const Name = "daemon.lock"

// ErrMissing means no daemon has written a lockfile.
var ErrMissing = errors.New("no daemon lockfile")

type Info struct {
	Port   int
	PID    int
	Secret string
}

func (i Info) String() string {
	return fmt.Sprintf("%d|%d|%s", i.Port, i.PID, i.Secret)
}

func Path(dir string) string {
	return filepath.Join(dir, Name)
}

// Write stores info under dir, readable only by the current user.
func Write(dir string, info Info) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create lockfile dir: %w", err)
	}
	return os.WriteFile(Path(dir), []byte(info.String()+"\n"), 0o600)
}

// Remove deletes the lockfile. A missing file is not an error.
func Remove(dir string) error {
	err := os.Remove(Path(dir))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Read loads and validates the lockfile under dir.
func Read(dir string) (Info, error) {
	content, err := os.ReadFile(Path(dir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Info{}, ErrMissing
		}
		return Info{}, err
	}
	return Parse(string(content))
}

func Parse(content string) (Info, error) {
	parts := strings.Split(strings.TrimSpace(content), "|")
	if len(parts) != 3 {
		return Info{}, errors.New("lockfile is malformed")
	}

	port, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Info{}, errors.New("invalid port number in lockfile")
	}
	if port < 1 || port > 65535 {
		return Info{}, fmt.Errorf("port number %d is outside valid range (1-65535)", port)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || pid < 1 {
		return Info{}, errors.New("invalid process ID in lockfile")
	}

	secret := strings.TrimSpace(parts[2])
	if secret == "" {
		return Info{}, errors.New("secret in lockfile is empty")
	}
	return Info{Port: port, PID: pid, Secret: secret}, nil
}
