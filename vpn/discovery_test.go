package vpn

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nkurtalj/openvpn-manager/common"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestListConfigs_SkipsUnreadableSubtree(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}

	root := t.TempDir()
	writeConfig(t, root, "plain.ovpn", "client\n")

	blocked := filepath.Join(root, "blocked")
	writeConfig(t, root, filepath.Join("blocked", "hidden.ovpn"), "client\n")
	if err := os.Chmod(blocked, 0000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(blocked, 0755) })

	entries, err := ListConfigs(root)
	if err != nil {
		t.Fatalf("ListConfigs() error = %v, want unreadable subtree skipped", err)
	}
	if len(entries) != 1 || entries[0].Name != "plain.ovpn" {
		t.Errorf("ListConfigs() = %v, want only the readable entry", entries)
	}
}

func TestListConfigs(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "plain.ovpn", "client\nremote vpn.example.com 1194\n")
	writeConfig(t, root, filepath.Join("office", "office.ovpn"),
		"client\nremote office.example.com 1194\nauth-user-pass\n")
	writeConfig(t, root, "notes.txt", "not a tunnel definition")

	entries, err := ListConfigs(root)
	if err != nil {
		t.Fatalf("ListConfigs() error = %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("ListConfigs() returned %d entries, want 2", len(entries))
	}

	byName := make(map[string]ConfigEntry)
	for _, entry := range entries {
		byName[entry.Name] = entry
	}

	plain, ok := byName["plain.ovpn"]
	if !ok {
		t.Fatal("plain.ovpn not discovered")
	}
	if plain.RequiresAuth {
		t.Error("plain.ovpn should not require auth")
	}

	office, ok := byName["office.ovpn"]
	if !ok {
		t.Fatal("office.ovpn not discovered")
	}
	if !office.RequiresAuth {
		t.Error("office.ovpn should require auth")
	}
	if office.Dir != "office" {
		t.Errorf("office.ovpn Dir = %q, want %q", office.Dir, "office")
	}
	if office.FullPath != filepath.Join(root, "office", "office.ovpn") {
		t.Errorf("office.ovpn FullPath = %q", office.FullPath)
	}
}

func TestListConfigs_Empty(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "readme.md", "nothing here")

	_, err := ListConfigs(root)
	if !errors.Is(err, common.ErrNoConfigs) {
		t.Errorf("ListConfigs() error = %v, want ErrNoConfigs", err)
	}
}

func TestListConfigs_CountMatchesFiles(t *testing.T) {
	root := t.TempDir()
	names := []string{"a.ovpn", "b.ovpn", "sub/c.ovpn", "sub/deep/d.ovpn"}
	for _, name := range names {
		writeConfig(t, root, filepath.FromSlash(name), "client\n")
	}

	entries, err := ListConfigs(root)
	if err != nil {
		t.Fatalf("ListConfigs() error = %v", err)
	}
	if len(entries) != len(names) {
		t.Errorf("ListConfigs() returned %d entries, want %d", len(entries), len(names))
	}
}
