package modlist

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const jmodExt = ".jmod"

// Read returns the non-blank lines of path, trimmed, in file order.
// Duplicates are kept; the linker decides what to do with them.
func Read(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open module list: %w", err)
	}
	defer file.Close()

	var modules []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name == "" {
			continue
		}
		modules = append(modules, name)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read module list: %w", err)
	}

	return modules, nil
}

// Join renders modules as the value of --add-modules.
func Join(modules []string) string {
	return strings.Join(modules, ",")
}

// Check returns the modules that have no <name>.jmod in any of moduleDirs.
func Check(modules []string, moduleDirs ...string) []string {
	var unknown []string
	for _, name := range modules {
		if !hasJmod(name, moduleDirs) {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

func hasJmod(name string, dirs []string) bool {
	for _, dir := range dirs {
		info, err := os.Stat(filepath.Join(dir, name+jmodExt))
		if err == nil && info.Mode().IsRegular() {
			return true
		}
	}
	return false
}
