package tsc

import (
	"errors"
	"io/fs"
	"path/filepath"
	"slices"
	"sort"
	"strings"
)

// ReadDirectory implements toolchain.Compiler. It walks root, skipping
// node_modules and hidden directories, and returns matching files sorted.
// Declaration files are never sources. A missing root has no files.
func (c *Compiler) ReadDirectory(root string, extensions []string) ([]string, error) {
	return readDirectory(root, extensions)
}

func readDirectory(root string, extensions []string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root && errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipDir
			}
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && (name == "node_modules" || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(name, ".d.ts") {
			return nil
		}
		if slices.Contains(extensions, filepath.Ext(name)) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
