package registry

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"nnrunner/internal/common/fsutil"
)

// Ext is the file extension of compiled layer artifacts.
const Ext = ".nnl"

var layerFileRE = regexp.MustCompile(`^layer_(\d+)\.nnl$`)

//go:embed assets/*.nnl
var assets embed.FS

// Embedded returns the registry compiled into the binary.
func Embedded() (*Registry, error) {
	sub, err := fs.Sub(assets, "assets")
	if err != nil {
		return nil, err
	}
	return LoadFS(sub)
}

// LoadDir scans a directory for layer_<i>.nnl files and builds a registry.
// Indices must be contiguous from 0. Other files are ignored.
func LoadDir(dir string) (*Registry, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	return LoadFS(os.DirFS(abs))
}

// LoadFS builds a registry from the layer files at the root of fsys.
func LoadFS(fsys fs.FS) (*Registry, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	type found struct {
		index int
		name  string
	}
	var files []found
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		idx, ok := ParseFileName(e.Name())
		if !ok {
			continue
		}
		files = append(files, found{index: idx, name: e.Name()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].index < files[j].index })

	layers := make([]*Artifact, 0, len(files))
	for i, f := range files {
		if f.index != i {
			return nil, fmt.Errorf("layer files not contiguous: expected layer_%d%s, found %s", i, Ext, f.name)
		}
		b, err := fs.ReadFile(fsys, f.name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.name, err)
		}
		a, err := Parse(i, f.name, b)
		if err != nil {
			return nil, err
		}
		layers = append(layers, a)
	}
	if len(layers) == 0 {
		return nil, fmt.Errorf("no layer_<i>%s files found", Ext)
	}
	return New(layers)
}

// FileName is the canonical artifact file name for a layer index.
func FileName(index int) string { return "layer_" + strconv.Itoa(index) + Ext }

// ParseFileName returns the layer index encoded in a layer_<i>.nnl name.
func ParseFileName(name string) (int, bool) {
	m := layerFileRE.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	idx, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return idx, true
}
