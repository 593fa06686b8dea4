// SPDX-License-Identifier: MPL-2.0

package providers

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// WDKContentRootEnv points at the root of the installed Windows Driver Kit.
const WDKContentRootEnv = "WDKContentRoot"

// defaultWDKContentRoot is probed when the environment variable is unset.
const defaultWDKContentRoot = `C:\Program Files (x86)\Windows Kits\10`

var (
	// ErrWDKNotFound is returned when no WDK installation can be located.
	ErrWDKNotFound = errors.New("no WDK installation found")

	// ErrWDKVersionUndetectable is returned when a WDK root exists but no
	// versioned include directory can be parsed from it.
	ErrWDKVersionUndetectable = errors.New("unable to detect WDK build number")
)

type (
	// BuildInfo reports the build number of the installed packaging toolkit.
	// The build number is a monotonically increasing integer (for example
	// 22621 or 26100) used to gate known tool bugs by version range.
	BuildInfo interface {
		BuildNumber() (int, error)
	}

	// WDKInfo is the production BuildInfo. It locates the WDK content root
	// via the WDKContentRoot environment variable (falling back to the
	// default install location) and derives the build number from the
	// highest versioned directory under Include, whose names follow the
	// 10.0.<build>.<revision> convention.
	WDKInfo struct {
		fs Filesystem
	}
)

// NewWDKInfo creates the production WDK introspection provider.
func NewWDKInfo(fs Filesystem) *WDKInfo {
	return &WDKInfo{fs: fs}
}

// BuildNumber detects the installed WDK build number.
func (w *WDKInfo) BuildNumber() (int, error) {
	root := os.Getenv(WDKContentRootEnv)
	if root == "" {
		root = defaultWDKContentRoot
	}
	if !w.fs.Exists(root) {
		return 0, fmt.Errorf("%w: %s does not exist (set %s)", ErrWDKNotFound, root, WDKContentRootEnv)
	}

	includeDir := filepath.Join(root, "Include")
	entries, err := w.fs.ReadDir(includeDir)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrWDKVersionUndetectable, err)
	}

	best := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if build, ok := parseWDKVersionDir(entry.Name()); ok && build > best {
			best = build
		}
	}
	if best == 0 {
		return 0, fmt.Errorf("%w: no 10.0.<build>.<rev> directory under %s", ErrWDKVersionUndetectable, includeDir)
	}
	return best, nil
}

// parseWDKVersionDir extracts the build component from a 10.0.<build>.<rev>
// directory name.
func parseWDKVersionDir(name string) (int, bool) {
	parts := strings.Split(name, ".")
	if len(parts) != 4 || parts[0] != "10" || parts[1] != "0" {
		return 0, false
	}
	build, err := strconv.Atoi(parts[2])
	if err != nil || build <= 0 {
		return 0, false
	}
	return build, true
}
