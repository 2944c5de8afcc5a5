package datecheck

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func stampedDoc(datetime string) string {
	return "# 競合分析\n実行日時: <!-- TODO_EXECUTION_DATE -->\n" + datetime + "\n<!-- /TODO_EXECUTION_DATE -->\n"
}

func writeProject(t *testing.T, outDir, folder string, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(outDir, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestScanDetectsMismatch(t *testing.T) {
	outDir := t.TempDir()
	writeProject(t, outDir, "20250101", map[string]string{
		"01_competitor-analysis.md": stampedDoc("2025年06月15日 10:00:00"),
	})

	mismatches, err := Scan(outDir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(mismatches) != 1 {
		t.Fatalf("expected 1 mismatch, got %d", len(mismatches))
	}
	m := mismatches[0]
	if m.FolderDate != "20250101" || m.ExecutionDate != "20250615" {
		t.Errorf("unexpected mismatch: %+v", m)
	}
	if m.ExecutionDatetime != "2025年06月15日 10:00:00" {
		t.Errorf("unexpected datetime: %s", m.ExecutionDatetime)
	}
}

func TestScanIgnoresMatchingAndUnrelated(t *testing.T) {
	outDir := t.TempDir()
	writeProject(t, outDir, "20250615", map[string]string{
		"01_competitor-analysis.md": stampedDoc("2025年06月15日 10:00:00"),
	})
	writeProject(t, outDir, "not-a-project", map[string]string{
		"doc.md": stampedDoc("2025年01月01日 00:00:00"),
	})

	mismatches, err := Scan(outDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(mismatches) != 0 {
		t.Errorf("expected no mismatches, got %v", mismatches)
	}
}

func TestScanSkipsReadme(t *testing.T) {
	outDir := t.TempDir()
	writeProject(t, outDir, "20250101", map[string]string{
		"README.md": stampedDoc("2025年06月15日 10:00:00"),
	})

	mismatches, err := Scan(outDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(mismatches) != 0 {
		t.Errorf("README.md must not trigger a mismatch, got %v", mismatches)
	}
}

func TestRename(t *testing.T) {
	outDir := t.TempDir()
	writeProject(t, outDir, "20250101", map[string]string{
		"01_competitor-analysis.md": stampedDoc("2025年06月15日 10:00:00"),
	})

	mismatches, err := Scan(outDir)
	if err != nil || len(mismatches) != 1 {
		t.Fatalf("setup failed: %v %v", err, mismatches)
	}

	newPath, err := Rename(mismatches[0])
	if err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if filepath.Base(newPath) != "20250615" {
		t.Errorf("unexpected new path: %s", newPath)
	}
	if _, err := os.Stat(filepath.Join(outDir, "20250101")); !os.IsNotExist(err) {
		t.Error("old folder should be gone")
	}
}

func TestRenameRefusesExistingDestination(t *testing.T) {
	outDir := t.TempDir()
	writeProject(t, outDir, "20250101", map[string]string{
		"01_competitor-analysis.md": stampedDoc("2025年06月15日 10:00:00"),
	})
	writeProject(t, outDir, "20250615", map[string]string{})

	mismatches, _ := Scan(outDir)
	if len(mismatches) != 1 {
		t.Fatalf("setup failed: %v", mismatches)
	}
	if _, err := Rename(mismatches[0]); err == nil {
		t.Error("expected refusal when destination exists")
	}
}

func TestRestamp(t *testing.T) {
	outDir := t.TempDir()
	dir := writeProject(t, outDir, "20250101", map[string]string{
		"01_competitor-analysis.md": stampedDoc("2025年06月15日 10:00:00"),
		"02_branding.md":            stampedDoc("2025年06月15日 10:00:00"),
		"README.md":                 stampedDoc("2025年06月15日 10:00:00"),
	})

	mismatches, _ := Scan(outDir)
	if len(mismatches) != 1 {
		t.Fatalf("setup failed: %v", mismatches)
	}

	updated, err := Restamp(mismatches[0])
	if err != nil {
		t.Fatalf("Restamp failed: %v", err)
	}
	if len(updated) != 2 {
		t.Errorf("expected 2 updated files, got %v", updated)
	}

	data, _ := os.ReadFile(filepath.Join(dir, "01_competitor-analysis.md"))
	if !strings.Contains(string(data), "2025年01月01日 00:00:00") {
		t.Errorf("stamp should be the folder date at midnight, got %s", data)
	}

	readme, _ := os.ReadFile(filepath.Join(dir, "README.md"))
	if !strings.Contains(string(readme), "2025年06月15日 10:00:00") {
		t.Error("README.md must be left untouched")
	}

	if again, _ := Scan(outDir); len(again) != 0 {
		t.Errorf("restamped project should scan clean, got %v", again)
	}
}
