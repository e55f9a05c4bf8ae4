package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"
)

func currentLogFile(dir string) string {
	return filepath.Join(dir, filePrefix+getWeekKey(time.Now())+".log")
}

func TestRotatingLogger(t *testing.T) {
	tempDir := t.TempDir()
	rl := NewRotatingLogger(tempDir, 1)

	rl.mu.Lock()
	err := rl.doRotate(getWeekKey(time.Now()))
	rl.mu.Unlock()
	if err != nil {
		t.Fatalf("Failed to rotate: %v", err)
	}

	expectedFileName := currentLogFile(tempDir)
	if _, statErr := os.Stat(expectedFileName); os.IsNotExist(statErr) {
		t.Errorf("Expected log file %s was not created", expectedFileName)
	}

	testMessage := "Test log message"
	if _, err = rl.Write([]byte(testMessage)); err != nil {
		t.Fatalf("Failed to write to log: %v", err)
	}

	content, err := os.ReadFile(expectedFileName)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(content), testMessage) {
		t.Errorf("Log file does not contain test message: %s", string(content))
	}

	if err = rl.Close(); err != nil {
		t.Fatalf("Failed to close logger: %v", err)
	}
}

func TestGetWeekKey(t *testing.T) {
	tests := []struct {
		date time.Time
		want string
	}{
		{time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), "2025-W01"},
		{time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC), "2025-W01"},
		{time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), "2025-W24"},
	}
	for _, tt := range tests {
		if got := getWeekKey(tt.date); got != tt.want {
			t.Errorf("getWeekKey(%s) = %s, want %s", tt.date.Format(time.DateOnly), got, tt.want)
		}
	}
}

func TestCleanupOldLogs(t *testing.T) {
	tempDir := t.TempDir()
	rl := NewRotatingLogger(tempDir, 1)

	oldFile := filepath.Join(tempDir, "slim-2025-W30.log")
	newFile := currentLogFile(tempDir)
	foreign := filepath.Join(tempDir, "other.log")

	for _, f := range []string{oldFile, newFile, foreign} {
		if err := os.WriteFile(f, []byte("content"), 0644); err != nil {
			t.Fatalf("Failed to create %s: %v", f, err)
		}
	}

	threeWeeksAgo := time.Now().AddDate(0, 0, -21)
	for _, f := range []string{oldFile, foreign} {
		if err := os.Chtimes(f, threeWeeksAgo, threeWeeksAgo); err != nil {
			t.Fatalf("Failed to set modification time: %v", err)
		}
	}

	if err := rl.cleanupOldLogs(); err != nil {
		t.Fatalf("Failed to cleanup old logs: %v", err)
	}

	if _, err := os.Stat(oldFile); !os.IsNotExist(err) {
		t.Errorf("Old log file %s was not deleted", oldFile)
	}
	if _, err := os.Stat(newFile); err != nil {
		t.Errorf("New log file %s was incorrectly deleted", newFile)
	}
	if _, err := os.Stat(foreign); err != nil {
		t.Errorf("Files not owned by the logger must be kept: %v", err)
	}
}

func TestRotatingLoggerWithSizeLimit(t *testing.T) {
	tempDir := t.TempDir()
	rl := NewRotatingLoggerWithSizeLimit(tempDir, 1, 100)
	defer func() { _ = rl.Close() }()

	if err := rl.doRotate(getWeekKey(time.Now())); err != nil {
		t.Fatalf("Failed to rotate: %v", err)
	}

	if _, err := rl.Write([]byte("Small message")); err != nil {
		t.Fatalf("Failed to write small message: %v", err)
	}

	largeMessage := strings.Repeat("This is a very long log message that should trigger rotation. ", 10)
	if _, err := rl.Write([]byte(largeMessage)); err != nil {
		t.Fatalf("Failed to write large message: %v", err)
	}

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		t.Fatalf("Failed to read log directory: %v", err)
	}

	numberedPattern := regexp.MustCompile(`^slim-\d{4}-W\d{2}_\d{2}\.log$`)
	logFiles, numbered := 0, 0
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), filePrefix) {
			logFiles++
		}
		if numberedPattern.MatchString(entry.Name()) {
			numbered++
		}
	}

	if logFiles < 2 {
		t.Errorf("Expected at least 2 log files due to size rotation, got %d", logFiles)
	}
	if numbered == 0 {
		t.Error("Expected at least one numbered file due to large write")
	}
}

func TestParseNumberedFile(t *testing.T) {
	tempDir := t.TempDir()
	rl := NewRotatingLogger(tempDir, 1)

	path := filepath.Join(tempDir, "slim-2025-W10_07.log")
	if err := os.WriteFile(path, []byte("12345"), 0644); err != nil {
		t.Fatal(err)
	}

	num, size := rl.parseNumberedFile(path)
	if num != 7 || size != 5 {
		t.Errorf("parseNumberedFile = (%d, %d), want (7, 5)", num, size)
	}

	if num, _ := rl.parseNumberedFile(filepath.Join(tempDir, "app-2025-W10_07.log")); num != 0 {
		t.Errorf("Expected foreign file to be ignored, got %d", num)
	}
}

func TestRotatingLoggerErrorCases(t *testing.T) {
	rl := NewRotatingLogger("/invalid/directory/that/does/not/exist", 1)

	if err := rl.doRotate(getWeekKey(time.Now())); err == nil {
		t.Error("Expected error when rotating with invalid directory")
	}
	if _, err := rl.Write([]byte("test")); err == nil {
		t.Error("Expected error when writing without a log file")
	}
	if err := rl.Close(); err != nil {
		t.Errorf("Unexpected error when closing logger with invalid directory: %v", err)
	}
}

func TestRotatingLoggerConcurrentWrites(t *testing.T) {
	tempDir := t.TempDir()
	rl := NewRotatingLogger(tempDir, 1)
	defer func() { _ = rl.Close() }()

	if err := rl.doRotate(getWeekKey(time.Now())); err != nil {
		t.Fatalf("Failed to rotate: %v", err)
	}

	const numGoroutines = 10
	const numWrites = 5

	var wg sync.WaitGroup
	for i := range numGoroutines {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := range numWrites {
				message := fmt.Sprintf("Goroutine %d, Write %d\n", id, j)
				if _, err := rl.Write([]byte(message)); err != nil {
					t.Errorf("Concurrent write failed: %v", err)
				}
			}
		}(i)
	}
	wg.Wait()

	content, err := os.ReadFile(currentLogFile(tempDir))
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if lines := strings.Count(string(content), "\n"); lines != numGoroutines*numWrites {
		t.Errorf("Expected %d lines, got %d", numGoroutines*numWrites, lines)
	}
}

func TestSetupLogger(t *testing.T) {
	tempDir := t.TempDir()

	logger, file := SetupLogger(Options{Dir: tempDir, Level: "warn"})
	if file == nil {
		t.Fatal("Expected a rotating file")
	}

	logger.Info("hidden below warn")
	logger.Warn("signin failed", "email", "a@example.com", "password", "hunter22")
	if err := file.Close(); err != nil {
		t.Fatalf("Failed to close: %v", err)
	}

	content, err := os.ReadFile(currentLogFile(tempDir))
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	logs := string(content)
	if strings.Contains(logs, "hidden below warn") {
		t.Error("Info record written despite warn level")
	}
	if !strings.Contains(logs, `"msg":"signin failed"`) {
		t.Errorf("Expected JSON record in file, got %s", logs)
	}
	if strings.Contains(logs, "hunter22") || !strings.Contains(logs, redacted) {
		t.Errorf("Password was not redacted: %s", logs)
	}
}

func TestSetupLoggerFallsBackToConsole(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}

	logger, file := SetupLogger(Options{Dir: filepath.Join(blocker, "logs")})
	if logger == nil {
		t.Fatal("Expected a console logger")
	}
	if file != nil {
		t.Error("Expected no rotating file")
	}
}

func TestMultiHandlerMethods(t *testing.T) {
	var info, errs strings.Builder
	multi := &multiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewTextHandler(&errs, &slog.HandlerOptions{Level: slog.LevelError}),
	}}

	if !multi.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("Expected Enabled() to return true for info level")
	}
	if multi.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Expected Enabled() to return false for debug level")
	}

	logger := slog.New(multi).With("component", "test").WithGroup("req")
	logger.Info("only info", "id", 1)
	logger.Error("both", "id", 2)

	if !strings.Contains(info.String(), "only info") || !strings.Contains(info.String(), "both") {
		t.Errorf("Info handler missing records: %s", info.String())
	}
	if strings.Contains(errs.String(), "only info") || !strings.Contains(errs.String(), "req.id=2") {
		t.Errorf("Error handler got unexpected records: %s", errs.String())
	}
	if !strings.Contains(info.String(), "component=test") {
		t.Errorf("WithAttrs not propagated: %s", info.String())
	}
}
