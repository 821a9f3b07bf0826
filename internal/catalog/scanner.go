package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"fsql/internal/domain"
)

// dataExtensions are the file types the catalog registers, keyed by lowercase
// extension.
var dataExtensions = map[string]domain.FileKind{
	".csv":  domain.KindDelimited,
	".tsv":  domain.KindDelimited,
	".txt":  domain.KindDelimited,
	".xlsx": domain.KindExcel,
	".xlsm": domain.KindExcel,
	".xls":  domain.KindExcel,
}

// FileEntry is a data file found under an attached folder.
type FileEntry struct {
	Path string
	Stem string // file name without extension
	Kind domain.FileKind
}

// FolderScan is the result of scanning one attach root: the files directly
// in the root plus those in each first-level subfolder. Deeper nesting is
// ignored, matching how the schemas are laid out.
type FolderScan struct {
	Root       []FileEntry
	Subfolders map[string][]FileEntry // subfolder name -> files
}

// ScanFolder walks path one level deep and collects data files. Hidden
// entries (dot-prefixed) and backup files (.bak) are skipped. Files are
// returned in name order so registration is deterministic.
func ScanFolder(path string) (*FolderScan, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, domain.ErrNotFound("folder %s not found", path)
	}
	if !info.IsDir() {
		return nil, domain.ErrValidation("%s is not a folder", path)
	}

	scan := &FolderScan{Subfolders: make(map[string][]FileEntry)}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", path, err)
	}
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if e.IsDir() {
			subFiles, err := scanFlat(filepath.Join(path, name))
			if err != nil {
				return nil, err
			}
			if len(subFiles) > 0 {
				scan.Subfolders[name] = subFiles
			}
			continue
		}
		if fe, ok := dataFile(filepath.Join(path, name)); ok {
			scan.Root = append(scan.Root, fe)
		}
	}

	sortEntries(scan.Root)
	for _, files := range scan.Subfolders {
		sortEntries(files)
	}
	return scan, nil
}

// scanFlat collects data files directly inside dir, without recursing.
func scanFlat(dir string) ([]FileEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	var files []FileEntry
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if fe, ok := dataFile(filepath.Join(dir, e.Name())); ok {
			files = append(files, fe)
		}
	}
	return files, nil
}

func dataFile(path string) (FileEntry, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".bak" {
		return FileEntry{}, false
	}
	kind, ok := dataExtensions[ext]
	if !ok {
		return FileEntry{}, false
	}
	base := filepath.Base(path)
	return FileEntry{
		Path: path,
		Stem: strings.TrimSuffix(base, filepath.Ext(base)),
		Kind: kind,
	}, true
}

func sortEntries(files []FileEntry) {
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
}
