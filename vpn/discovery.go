package vpn

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/nkurtalj/openvpn-manager/common"
)

// ConfigEntry describes one discovered tunnel definition file.
// Entries are immutable after discovery.
type ConfigEntry struct {
	// Name is the base file name, e.g. "office.ovpn".
	Name string
	// FullPath is the absolute path to the file.
	FullPath string
	// Dir is the base name of the containing directory, used as a
	// display label.
	Dir string
	// RequiresAuth reports whether the file carries the auth-user-pass
	// directive and therefore needs a credential file.
	RequiresAuth bool
}

// ListConfigs recursively enumerates tunnel definition files under root.
// Each entry is classified by a one-time content scan for the
// authentication directive. Returns common.ErrNoConfigs when nothing is
// found; that condition is fatal to the session, there is no default.
func ListConfigs(root string) ([]ConfigEntry, error) {
	var entries []ConfigEntry

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped, never fatal to the scan.
			common.LogWarn("Skipping %s during scan: %v", path, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), common.TunnelFileExt) {
			return nil
		}

		requiresAuth, err := needsCredentials(path)
		if err != nil {
			common.LogWarn("Skipping unreadable configuration %s: %v", path, err)
			return nil
		}

		entries = append(entries, ConfigEntry{
			Name:         d.Name(),
			FullPath:     path,
			Dir:          filepath.Base(filepath.Dir(path)),
			RequiresAuth: requiresAuth,
		})
		return nil
	})
	if err != nil {
		return nil, common.WrapError(err, "failed to scan configuration directory")
	}

	if len(entries) == 0 {
		return nil, common.ErrNoConfigs
	}

	return entries, nil
}

// needsCredentials reports whether the tunnel definition at path contains
// the authentication directive. Read-only, side-effect free.
func needsCredentials(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	return strings.Contains(string(data), common.AuthDirective), nil
}
