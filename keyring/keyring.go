// Package keyring provides secondary secret storage.
// Saved tunnel secrets are mirrored into the system keyring when one is
// available, falling back to an encrypted local file when not. The
// canonical credential store remains the .cred file consumed by the
// client; this package only backs it up.
package keyring

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/zalando/go-keyring"
	"golang.org/x/crypto/scrypt"

	"github.com/nkurtalj/openvpn-manager/common"
)

// serviceName is the identifier used in the system keyring.
const serviceName = "openvpn-manager"

// ErrNotFound is returned when no secret is stored for a configuration.
var ErrNotFound = errors.New("secret not found")

// Storage backend state.
var (
	useLocalStorage bool
	localStoreMu    sync.RWMutex
	localStore      map[string]string
	localStoreFile  string
	encryptionKey   []byte
	initOnce        sync.Once
)

func initStorage() {
	// Probe the system keyring; fall back to the local file when it is
	// unavailable (headless hosts, missing dbus session).
	testKey := serviceName + "-test-init"
	if err := keyring.Set(serviceName, testKey, "test"); err == nil {
		keyring.Delete(serviceName, testKey)
		useLocalStorage = false
		return
	}
	useLocalStorage = true
	initLocalStorage()
}

func initLocalStorage() {
	configDir, err := common.GetConfigDir()
	if err != nil {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config", common.ConfigDirName)
		os.MkdirAll(configDir, 0700)
	}
	localStoreFile = filepath.Join(configDir, ".secrets")

	// Derive the encryption key from machine-specific data. The key only
	// has to be stable per host and user, not secret from the owner.
	hostname, _ := os.Hostname()
	keyData := fmt.Sprintf("%s-%s-%s-%d", serviceName, hostname, machineID(), os.Getuid())
	key, err := scrypt.Key([]byte(keyData), []byte(serviceName), 1<<15, 8, 1, 32)
	if err != nil {
		// scrypt only fails on invalid parameters.
		panic(err)
	}
	encryptionKey = key

	localStore = make(map[string]string)
	loadLocalStore()
}

func machineID() string {
	data, err := os.ReadFile("/etc/machine-id")
	if err == nil {
		return strings.TrimSpace(string(data))
	}
	return "default-machine-id"
}

func loadLocalStore() {
	data, err := os.ReadFile(localStoreFile)
	if err != nil {
		return
	}
	decrypted, err := decrypt(data)
	if err != nil {
		return
	}
	json.Unmarshal(decrypted, &localStore)
}

func saveLocalStore() error {
	localStoreMu.RLock()
	data, err := json.Marshal(localStore)
	localStoreMu.RUnlock()
	if err != nil {
		return err
	}

	encrypted, err := encrypt(data)
	if err != nil {
		return err
	}

	return os.WriteFile(localStoreFile, encrypted, 0600)
}

func encrypt(plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	ciphertext := gcm.Seal(nonce, nonce, plaintext, nil)
	return []byte(base64.StdEncoding.EncodeToString(ciphertext)), nil
}

func decrypt(data []byte) ([]byte, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(string(data))
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}

// Store saves a secret for a tunnel configuration.
func Store(configName string, secret string) error {
	if configName == "" {
		return errors.New("config name cannot be empty")
	}
	if secret == "" {
		return errors.New("secret cannot be empty")
	}
	initOnce.Do(initStorage)

	if useLocalStorage {
		localStoreMu.Lock()
		localStore[configName] = secret
		localStoreMu.Unlock()
		return saveLocalStore()
	}

	if err := keyring.Set(serviceName, configName, secret); err != nil {
		// Fall back to local storage for this and future writes.
		useLocalStorage = true
		initLocalStorage()
		localStoreMu.Lock()
		localStore[configName] = secret
		localStoreMu.Unlock()
		return saveLocalStore()
	}
	return nil
}

// Get retrieves a secret for a tunnel configuration.
func Get(configName string) (string, error) {
	if configName == "" {
		return "", errors.New("config name cannot be empty")
	}
	initOnce.Do(initStorage)

	if useLocalStorage {
		localStoreMu.RLock()
		secret, exists := localStore[configName]
		localStoreMu.RUnlock()
		if !exists {
			return "", ErrNotFound
		}
		return secret, nil
	}

	secret, err := keyring.Get(serviceName, configName)
	if err != nil {
		return "", ErrNotFound
	}
	return secret, nil
}

// Delete removes a secret for a tunnel configuration.
func Delete(configName string) error {
	if configName == "" {
		return errors.New("config name cannot be empty")
	}
	initOnce.Do(initStorage)

	if useLocalStorage {
		localStoreMu.Lock()
		delete(localStore, configName)
		localStoreMu.Unlock()
		return saveLocalStore()
	}

	keyring.Delete(serviceName, configName)
	return nil
}

// Mirror adapts the package to the vpn.SecretMirror interface.
type Mirror struct{}

// Store saves a secret, satisfying vpn.SecretMirror.
func (Mirror) Store(configName, secret string) error {
	return Store(configName, secret)
}

// Delete removes a secret, satisfying vpn.SecretMirror.
func (Mirror) Delete(configName string) error {
	return Delete(configName)
}
