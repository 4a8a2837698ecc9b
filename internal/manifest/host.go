package manifest

import (
	"fmt"
	"os"
	"runtime"
	"time"
)

// Host carries the facts about the machine an operation runs on. It is
// passed explicitly so that export and healing never read process-global
// state directly.
type Host struct {
	Home     string
	Runtime  string
	Platform string
	Arch     string

	// Clock returns the current time; nil means time.Now.
	Clock func() time.Time
}

// CurrentHost describes the running process's machine.
func CurrentHost() (Host, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Host{}, fmt.Errorf("getting home directory: %w", err)
	}
	return Host{
		Home:     home,
		Runtime:  runtime.Version(),
		Platform: runtime.GOOS,
		Arch:     runtime.GOARCH,
	}, nil
}

// Now returns the host's current time.
func (h Host) Now() time.Time {
	if h.Clock != nil {
		return h.Clock()
	}
	return time.Now()
}
