package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// IsolateRepo creates an empty repository root, marked by a .git
// directory, and makes it the working directory for the rest of the test.
//
// Config discovery stops at the .git marker, so files outside the test never
// leak in.
func IsolateRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, ".git"), 0o755); err != nil {
		t.Fatalf("create repo marker: %v", err)
	}
	t.Chdir(root)
	return root
}
