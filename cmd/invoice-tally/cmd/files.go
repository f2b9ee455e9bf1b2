package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// collectFiles expands globs and directories. Directory and glob matches
// are filtered by supported; files named explicitly are always kept.
func collectFiles(args []string, supported func(string) bool) ([]string, error) {
	var files []string

	for _, arg := range args {
		if arg == "-" {
			files = append(files, arg)
			continue
		}

		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", arg, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("file not found: %s", arg)
		}

		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil {
				return nil, err
			}

			if !info.IsDir() {
				if match == arg || supported(match) {
					files = append(files, match)
				}
				continue
			}

			err = filepath.Walk(match, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if !info.IsDir() && supported(path) {
					files = append(files, path)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
		}
	}

	return files, nil
}

func isDocumentFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".png", ".jpg", ".jpeg", ".webp", ".tiff", ".tif", ".txt", ".json":
		return true
	default:
		return false
	}
}

func isRecordFile(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".json"
}

func isXMLFile(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".xml"
}

// readInput reads a file, or stdin when path is "-"
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// voucherFileName names the XML written for a voucher number, falling back
// to the source file name when the number is unusable.
func voucherFileName(number, source string) string {
	name := strings.Trim(unsafeFileChars.ReplaceAllString(number, "_"), "_")
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	}
	return "tally_" + name + ".xml"
}
