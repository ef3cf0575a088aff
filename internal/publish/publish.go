// Package publish exports catalog nodes as markdown (and optionally html) files.
package publish

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"catalog-cli/internal/catalog"
)

type WriteOptions struct {
	AllRows   bool
	HTML      bool
	Overwrite bool
}

type WriteResult struct {
	Written []string `json:"written"`
}

// WriteNode writes nodes/<id>.md (and nodes/<id>.html) under toDir.
func WriteNode(v catalog.View, toDir string, opt WriteOptions) (WriteResult, error) {
	if !v.Loaded {
		return WriteResult{}, errors.New("node not loaded")
	}
	toDir = strings.TrimSpace(toDir)
	if toDir == "" {
		return WriteResult{}, errors.New("missing --to")
	}
	toDir = filepath.Clean(toDir)

	outDir := filepath.Join(toDir, "nodes")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return WriteResult{}, err
	}
	base := filepath.Join(outDir, strconv.FormatInt(v.NodeID, 10))

	md := RenderNodeMarkdown(v, RenderOptions{AllRows: opt.AllRows})
	if err := writeFile(base+".md", []byte(md), opt.Overwrite); err != nil {
		return WriteResult{}, err
	}
	written := []string{base + ".md"}

	if opt.HTML {
		page, err := RenderHTML(Title(v), md)
		if err != nil {
			return WriteResult{}, err
		}
		if err := writeFile(base+".html", []byte(page), opt.Overwrite); err != nil {
			return WriteResult{}, err
		}
		written = append(written, base+".html")
	}
	return WriteResult{Written: written}, nil
}

func writeFile(path string, b []byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.New("file exists (use --overwrite): " + path)
		}
	}
	return os.WriteFile(path, b, 0o644)
}
