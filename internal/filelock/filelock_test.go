package filelock

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestLockUnlock(t *testing.T) {
	tmpDir := t.TempDir()
	lock := NewFileLock(filepath.Join(tmpDir, "cache.json.lock"))

	if err := lock.Lock(); err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}
	if err := lock.Unlock(); err != nil {
		t.Fatalf("Failed to release lock: %v", err)
	}
}

func TestTryLock(t *testing.T) {
	tmpDir := t.TempDir()
	lockPath := filepath.Join(tmpDir, "cache.json.lock")

	lock := NewFileLock(lockPath)
	acquired, err := lock.TryLock()
	if err != nil {
		t.Fatalf("TryLock failed: %v", err)
	}
	if !acquired {
		t.Fatal("Expected to acquire uncontended lock")
	}
	defer lock.Unlock()
}

func TestAtomicWrite(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "nested", "cache.json")

	if err := AtomicWrite(target, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("AtomicWrite failed: %v", err)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("Failed to read back: %v", err)
	}
	if string(data) != `{"a":1}` {
		t.Errorf("Unexpected content: %s", data)
	}

	// Overwrite replaces content completely.
	if err := AtomicWrite(target, []byte(`{"b":2}`)); err != nil {
		t.Fatalf("AtomicWrite overwrite failed: %v", err)
	}
	data, _ = os.ReadFile(target)
	if string(data) != `{"b":2}` {
		t.Errorf("Unexpected content after overwrite: %s", data)
	}

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(target))
	if err != nil {
		t.Fatalf("Failed to list dir: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".tmp-") {
			t.Errorf("Leftover temp file: %s", e.Name())
		}
	}
}

func TestLockAndWriteCreatesParentDirs(t *testing.T) {
	target := filepath.Join(t.TempDir(), ".archivist", "cache.json")

	if err := LockAndWrite(target, []byte(`{"files":{}}`)); err != nil {
		t.Fatalf("LockAndWrite failed: %v", err)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("Failed to read back: %v", err)
	}
	if string(data) != `{"files":{}}` {
		t.Errorf("Unexpected content: %s", data)
	}
}

func TestAppendLine(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, ".archivist", "moves.jsonl")

	for i := 0; i < 3; i++ {
		if err := AppendLine(logPath, []byte(fmt.Sprintf(`{"n":%d}`, i))); err != nil {
			t.Fatalf("AppendLine failed: %v", err)
		}
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Failed to read log: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines, got %d: %q", len(lines), data)
	}
	if lines[0] != `{"n":0}` || lines[2] != `{"n":2}` {
		t.Errorf("Unexpected line content: %v", lines)
	}
}

func TestConcurrentAppend(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "moves.jsonl")

	const goroutines = 8
	const perGoroutine = 5

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				if err := AppendLine(logPath, []byte(fmt.Sprintf(`{"g":%d,"n":%d}`, id, j))); err != nil {
					t.Errorf("AppendLine failed: %v", err)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Failed to read log: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != goroutines*perGoroutine {
		t.Fatalf("Expected %d lines, got %d", goroutines*perGoroutine, len(lines))
	}
	// Appends must not interleave at the byte level.
	for _, ln := range lines {
		if !strings.HasPrefix(ln, `{"g":`) || !strings.HasSuffix(ln, "}") {
			t.Errorf("Torn line: %q", ln)
		}
	}
}
