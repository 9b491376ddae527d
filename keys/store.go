package keys

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// KeyStore is a simple local-first keypair store for the CLI.
//
// EXPERIMENTAL: this filesystem-backed surface is a convenience, not part
// of the protocol core. Keys are Ed25519 seeds stored as hex, one file per
// named identity, mode 0600.
type KeyStore struct {
	Directory string
}

// DefaultDirectory returns ~/.imprint/keys.
func DefaultDirectory() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".imprint", "keys"), nil
}

// OpenKeyStore opens (creating if needed) a key store at directory, or the
// default directory when empty.
func OpenKeyStore(directory string) (*KeyStore, error) {
	if directory == "" {
		var err error
		directory, err = DefaultDirectory()
		if err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(directory, 0o700); err != nil {
		return nil, err
	}
	return &KeyStore{Directory: directory}, nil
}

// CheckKeyName restricts identity names to filesystem-safe characters.
func CheckKeyName(name string) error {
	if name == "" {
		return errors.New("key name cannot be empty")
	}
	for _, char := range name {
		if (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || (char >= '0' && char <= '9') || char == '-' || char == '_' {
			continue
		}
		return fmt.Errorf("invalid character %q in key name", char)
	}
	return nil
}

func (ks *KeyStore) pathFor(name string) string {
	return filepath.Join(ks.Directory, name+".key")
}

// Save writes the keypair's seed under name. Refuses to overwrite.
func (ks *KeyStore) Save(name string, kp *KeyPair) error {
	if err := CheckKeyName(name); err != nil {
		return err
	}
	path := ks.pathFor(name)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("key %q already exists", name)
	}
	return os.WriteFile(path, []byte(kp.PrivateHex()+"\n"), 0o600)
}

// Load reads the keypair stored under name.
func (ks *KeyStore) Load(name string) (*KeyPair, error) {
	if err := CheckKeyName(name); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(ks.pathFor(name))
	if err != nil {
		return nil, err
	}
	return ParsePrivateHex(strings.TrimSpace(string(b)))
}

// List returns the stored key names in sorted order.
func (ks *KeyStore) List() ([]string, error) {
	entries, err := os.ReadDir(ks.Directory)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".key") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".key"))
	}
	sort.Strings(names)
	return names, nil
}
