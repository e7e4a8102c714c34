package sync

import (
	"bufio"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/openmined/dirsync/internal/utils"
	gitignore "github.com/sabhiram/go-gitignore"
)

const (
	IgnoreFileName = ".dirsyncignore"
	LockFileName   = ".dirsync.lock"
)

var defaultIgnoreLines = []string{
	// dirsync
	IgnoreFileName,
	LockFileName,
	// editors
	"*.swp",
	"*.swx",
	"*~",
	".#*",
	"*.tmp",
	// OS-specific
	".DS_Store",
	"Thumbs.db",
}

type SyncIgnoreList struct {
	baseDir string
	ignore  *gitignore.GitIgnore
}

func NewSyncIgnoreList(baseDir string) *SyncIgnoreList {
	return &SyncIgnoreList{
		baseDir: baseDir,
		ignore:  gitignore.CompileIgnoreLines(defaultIgnoreLines...),
	}
}

// Load compiles the default rules plus the rules of the ignore file, if any
func (s *SyncIgnoreList) Load() {
	ignorePath := filepath.Join(s.baseDir, IgnoreFileName)
	ignoreLines := append([]string{}, defaultIgnoreLines...)

	if utils.FileExists(ignorePath) {
		lines, err := readIgnoreFile(ignorePath)
		if err != nil {
			slog.Warn("ignore file read", "path", ignorePath, "error", err)
		} else {
			slog.Info("ignore file loaded", "path", ignorePath, "rules", len(lines))
			ignoreLines = append(ignoreLines, lines...)
		}
	}

	s.ignore = gitignore.CompileIgnoreLines(ignoreLines...)
}

// ShouldIgnore accepts paths relative to the base dir or absolute paths.
// Absolute paths outside the base dir are never ignored.
func (s *SyncIgnoreList) ShouldIgnore(path string) bool {
	if filepath.IsAbs(path) {
		rel, err := filepath.Rel(s.baseDir, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return false
		}
		path = rel
	}
	return s.ignore.MatchesPath(filepath.ToSlash(path))
}

func readIgnoreFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}
