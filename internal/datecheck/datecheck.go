// Package datecheck finds project folders whose YYYYMMDD name disagrees with
// the execution datetime stamped inside their documents, and offers two
// repairs: rename the folder to the recorded date, or restamp the documents
// with the folder date.
package datecheck

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var (
	folderDateRe    = regexp.MustCompile(`^\d{8}$`)
	executionDateRe = regexp.MustCompile(`<!-- TODO_EXECUTION_DATE -->\s*(\d{4}年\d{2}月\d{2}日 \d{2}:\d{2}:\d{2})\s*<!-- /TODO_EXECUTION_DATE -->`)
	restampRe       = regexp.MustCompile(`(<!-- TODO_EXECUTION_DATE -->\s*)\d{4}年\d{2}月\d{2}日 \d{2}:\d{2}:\d{2}(\s*<!-- /TODO_EXECUTION_DATE -->)`)
)

// Mismatch is one project whose folder date and recorded execution date
// disagree.
type Mismatch struct {
	ProjectDir        string // full path
	FolderDate        string // YYYYMMDD from the folder name
	ExecutionDate     string // YYYYMMDD from the document stamp
	ExecutionDatetime string // full recorded stamp
	SourceFile        string // document the stamp was read from
}

// Scan walks the dated project folders under outDir and returns every date
// mismatch. The first stamped document decides a project's execution date.
// README.md is skipped; it intentionally carries the folder date.
func Scan(outDir string) ([]Mismatch, error) {
	entries, err := os.ReadDir(outDir)
	if err != nil {
		return nil, fmt.Errorf("reading output directory %s: %w", outDir, err)
	}

	var mismatches []Mismatch
	for _, entry := range entries {
		if !entry.IsDir() || !folderDateRe.MatchString(entry.Name()) {
			continue
		}
		projectDir := filepath.Join(outDir, entry.Name())

		mismatch, ok, err := scanProject(projectDir, entry.Name())
		if err != nil {
			return nil, err
		}
		if ok {
			mismatches = append(mismatches, mismatch)
		}
	}
	return mismatches, nil
}

func scanProject(projectDir, folderDate string) (Mismatch, bool, error) {
	files, err := os.ReadDir(projectDir)
	if err != nil {
		return Mismatch{}, false, fmt.Errorf("reading project %s: %w", projectDir, err)
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".md") || file.Name() == "README.md" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(projectDir, file.Name()))
		if err != nil {
			continue
		}

		m := executionDateRe.FindStringSubmatch(string(data))
		if m == nil {
			continue
		}
		stamp := m[1]
		parsed, err := time.Parse("2006年01月02日 15:04:05", stamp)
		if err != nil {
			continue
		}
		executionDate := parsed.Format("20060102")

		if executionDate == folderDate {
			return Mismatch{}, false, nil
		}
		return Mismatch{
			ProjectDir:        projectDir,
			FolderDate:        folderDate,
			ExecutionDate:     executionDate,
			ExecutionDatetime: stamp,
			SourceFile:        file.Name(),
		}, true, nil
	}
	return Mismatch{}, false, nil
}

// Rename moves the project folder to the recorded execution date. It refuses
// to overwrite an existing folder.
func Rename(m Mismatch) (string, error) {
	newPath := filepath.Join(filepath.Dir(m.ProjectDir), m.ExecutionDate)
	if _, err := os.Stat(newPath); err == nil {
		return "", fmt.Errorf("destination %s already exists", newPath)
	}
	if err := os.Rename(m.ProjectDir, newPath); err != nil {
		return "", fmt.Errorf("renaming project folder: %w", err)
	}
	return newPath, nil
}

// Restamp rewrites the execution-date markers in every stamped document to
// the folder date at midnight, and returns the updated file names.
func Restamp(m Mismatch) ([]string, error) {
	folderTime, err := time.Parse("20060102", m.FolderDate)
	if err != nil {
		return nil, fmt.Errorf("invalid folder date %s: %w", m.FolderDate, err)
	}
	stamp := folderTime.Format("2006年01月02日 15:04:05")

	files, err := os.ReadDir(m.ProjectDir)
	if err != nil {
		return nil, fmt.Errorf("reading project %s: %w", m.ProjectDir, err)
	}

	var updated []string
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".md") || file.Name() == "README.md" {
			continue
		}
		path := filepath.Join(m.ProjectDir, file.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		content := string(data)
		rewritten := restampRe.ReplaceAllString(content, "${1}"+stamp+"${2}")
		if rewritten == content {
			continue
		}
		if err := os.WriteFile(path, []byte(rewritten), 0o644); err != nil {
			return updated, fmt.Errorf("writing %s: %w", file.Name(), err)
		}
		updated = append(updated, file.Name())
	}
	return updated, nil
}
