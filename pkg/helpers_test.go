package dupefind

import (
	"os"
	"path/filepath"
	"testing"
)

// writeTestFile creates path below dir with the given content, making parents as needed
func writeTestFile(t *testing.T, dir, rel string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", rel, err)
	}
	return path
}

// patterned returns n bytes of deterministic content seeded by seed
func patterned(n int, seed byte) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i*31) ^ seed
	}
	return data
}

func testExtractor(t *testing.T) *Extractor {
	t.Helper()
	ex, err := NewExtractor(nil, DefaultWindowSize)
	if err != nil {
		t.Fatalf("Failed to create extractor: %v", err)
	}
	return ex
}
