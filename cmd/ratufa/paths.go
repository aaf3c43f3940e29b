package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const envRatufaROMDir = "RATUFA_ROM_DIR"

// resolveROMPath turns a --rom value into a file path. Values containing a
// path separator, or naming an existing file, are used as-is. Bare names are
// looked up in romDir, then in $RATUFA_ROM_DIR, with ".sqc" appended when
// the name has no extension.
func resolveROMPath(name, romDir string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("empty rom name")
	}
	if strings.ContainsRune(name, filepath.Separator) || fileExists(name) {
		return filepath.Clean(name), nil
	}

	dir := strings.TrimSpace(romDir)
	if dir == "" {
		dir = strings.TrimSpace(os.Getenv(envRatufaROMDir))
	}
	if dir == "" {
		return "", fmt.Errorf("rom %q not found (set --rom-dir or %s)", name, envRatufaROMDir)
	}

	candidates := []string{filepath.Join(dir, name)}
	if filepath.Ext(name) == "" {
		candidates = append(candidates, filepath.Join(dir, name+".sqc"))
	}
	for _, p := range candidates {
		if fileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("rom %q not found in %s", name, dir)
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}

// parseDefines parses -D key=value pairs. A bare key maps to "".
func parseDefines(defs []string) (map[string]string, error) {
	out := make(map[string]string, len(defs))
	for _, d := range defs {
		k, v, _ := strings.Cut(d, "=")
		k = strings.TrimSpace(k)
		if k == "" {
			return nil, fmt.Errorf("invalid property %q (expected key=value)", d)
		}
		out[k] = v
	}
	return out, nil
}
