package vpn

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nkurtalj/openvpn-manager/common"
)

// Prompter supplies the interactive inputs the credential store needs.
// The terminal implementation lives in the cli package; tests substitute
// their own.
type Prompter interface {
	// Confirm asks a yes/no question and reports the answer.
	Confirm(prompt string) (bool, error)
	// ReadLine reads one line of echoed input.
	ReadLine(prompt string) (string, error)
	// ReadSecret reads one line without echoing it to the terminal.
	ReadSecret(prompt string) (string, error)
}

// SecretMirror optionally mirrors saved secrets into a secondary store,
// such as the system keyring. Mirror failures are never fatal.
type SecretMirror interface {
	Store(name, secret string) error
	Delete(name string) error
}

// CredentialStore resolves the credential file for a named configuration,
// offering reuse of a previously stored secret or prompting for and
// persisting a new one under owner-only permissions.
//
// Credential files carry no inter-process locking; the store assumes a
// single operator at a time.
type CredentialStore struct {
	dir      string
	prompter Prompter
	mirror   SecretMirror // may be nil
}

// NewCredentialStore creates a credential store over dir. The mirror is
// optional and may be nil.
func NewCredentialStore(dir string, prompter Prompter, mirror SecretMirror) *CredentialStore {
	return &CredentialStore{
		dir:      dir,
		prompter: prompter,
		mirror:   mirror,
	}
}

// Path derives the credential file path for configName: the tunnel file
// extension is replaced with the credential extension inside the store
// directory.
func (s *CredentialStore) Path(configName string) string {
	base := strings.TrimSuffix(configName, filepath.Ext(configName))
	return filepath.Join(s.dir, base+common.CredentialFileExt)
}

// Exists reports whether a credential file is already stored for configName.
func (s *CredentialStore) Exists(configName string) bool {
	return common.FileExists(s.Path(configName))
}

// Resolve returns the path to the credential file for configName.
//
// If a file already exists the user is offered reuse; on acceptance the
// existing path is returned without reading its contents. Otherwise the
// user is prompted for a username and secret and the pair is persisted as
// two newline-terminated lines. The file is created with mode 0600 before
// any secret byte is written, so the secret is never briefly readable
// under default permissions.
//
// Errors wrap common.ErrCredentialStorage and are fatal to the current
// start attempt only.
func (s *CredentialStore) Resolve(configName string) (string, error) {
	if err := s.ensureDir(); err != nil {
		return "", err
	}

	credPath := s.Path(configName)

	if common.FileExists(credPath) {
		reuse, err := s.prompter.Confirm("Use existing credentials?")
		if err != nil {
			return "", fmt.Errorf("%w: %v", common.ErrCredentialStorage, err)
		}
		if reuse {
			common.LogInfo("Reusing stored credentials for %s", configName)
			return credPath, nil
		}
		// The stored secret is being replaced; drop the stale mirror copy
		// so it cannot outlive a failed rewrite.
		if s.mirror != nil {
			if err := s.mirror.Delete(configName); err != nil {
				common.LogDebug("Could not drop mirrored secret: %v", err)
			}
		}
	}

	username, err := s.prompter.ReadLine("Username: ")
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrCredentialStorage, err)
	}
	secret, err := s.prompter.ReadSecret("Password: ")
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrCredentialStorage, err)
	}

	if err := s.write(credPath, strings.TrimSpace(username), strings.TrimSpace(secret)); err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrCredentialStorage, err)
	}

	if s.mirror != nil {
		if err := s.mirror.Store(configName, secret); err != nil {
			common.LogWarn("Could not mirror secret to keyring: %v", err)
		}
	}

	common.LogInfo("Credentials saved for %s", configName)
	return credPath, nil
}

// ensureDir lazily creates the credential directory with owner-only access.
func (s *CredentialStore) ensureDir() error {
	if err := os.MkdirAll(s.dir, common.CredentialDirMode); err != nil {
		return fmt.Errorf("%w: %v", common.ErrCredentialStorage, err)
	}
	return nil
}

// write persists the credential pair. The restrictive mode is in place
// before contents are written: new files are created 0600, and a
// pre-existing file is chmodded before it is truncated.
func (s *CredentialStore) write(path, username, secret string) error {
	if common.FileExists(path) {
		if err := os.Chmod(path, common.CredentialFileMode); err != nil {
			return err
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, common.CredentialFileMode)
	if err != nil {
		return err
	}

	_, werr := fmt.Fprintf(f, "%s\n%s\n", username, secret)
	cerr := f.Close()
	if werr != nil {
		return werr
	}
	return cerr
}
