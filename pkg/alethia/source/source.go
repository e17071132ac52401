// Package source loads Alethia programs from disk.
//
// Besides plain .at files it understands gzip (.gz) and zstd (.zst)
// compressed sources, UTF-16 files with a byte order mark, and literate
// programs: Markdown documents whose fenced code blocks tagged with an
// Alethia language name are run in order.
package source

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	perrors "github.com/sambeau/alethia/pkg/alethia/errors"
)

// Default settings used by DefaultLoader
var (
	DefaultExtensions        = []string{".at"}
	DefaultMarkdownLanguages = []string{"alethia", "at"}
	MarkdownExtensions       = []string{".md", ".markdown"}
)

// File is a loaded program
type File struct {
	Path       string
	Text       string // program text, decoded to UTF-8
	Literate   bool   // extracted from a Markdown document
	Compressed bool   // read from a .gz or .zst file
}

// Loader reads program files
type Loader struct {
	Extensions        []string // accepted program extensions, with the dot
	MarkdownLanguages []string // fence languages treated as program code
}

// DefaultLoader accepts .at files and literate Markdown
func DefaultLoader() *Loader {
	return &Loader{
		Extensions:        DefaultExtensions,
		MarkdownLanguages: DefaultMarkdownLanguages,
	}
}

type compression int

const (
	uncompressed compression = iota
	gzipped
	zstandard
)

// splitCompression strips a compression suffix from a file name
func splitCompression(name string) (string, compression) {
	switch {
	case strings.HasSuffix(name, ".gz"):
		return strings.TrimSuffix(name, ".gz"), gzipped
	case strings.HasSuffix(name, ".zst"):
		return strings.TrimSuffix(name, ".zst"), zstandard
	}
	return name, uncompressed
}

// Accepts reports whether path names a file the loader can read
func (l *Loader) Accepts(path string) bool {
	_, _, err := l.classify(path)
	return err == nil
}

func (l *Loader) classify(path string) (literate bool, comp compression, err error) {
	name, comp := splitCompression(strings.ToLower(filepath.Base(path)))
	ext := filepath.Ext(name)
	switch {
	case slices.Contains(l.Extensions, ext):
		return false, comp, nil
	case len(l.MarkdownLanguages) > 0 && slices.Contains(MarkdownExtensions, ext):
		return true, comp, nil
	}
	return false, comp, perrors.New("IO-0002", map[string]any{
		"Extensions": strings.Join(l.Extensions, " or "),
	}).WithFile(path)
}

// Load reads, decompresses and decodes the program at path. Errors are
// *errors.AlethiaError values of class io.
func (l *Loader) Load(path string) (*File, error) {
	literate, comp, err := l.classify(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, perrors.New("IO-0001", map[string]any{"Path": path}).WithFile(path)
		}
		return nil, readError(path, err)
	}

	data, err = decompress(data, comp)
	if err != nil {
		return nil, readError(path, err)
	}

	src, err := Decode(data)
	if err != nil {
		return nil, readError(path, err)
	}

	if literate {
		src = ExtractCode([]byte(src), l.MarkdownLanguages)
	}
	return &File{Path: path, Text: src, Literate: literate, Compressed: comp != uncompressed}, nil
}

func readError(path string, err error) error {
	return perrors.New("IO-0003", map[string]any{"Path": path, "Reason": err.Error()}).WithFile(path)
}

func decompress(data []byte, comp compression) ([]byte, error) {
	switch comp {
	case gzipped:
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(zr)
	case zstandard:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		return dec.DecodeAll(data, nil)
	}
	return data, nil
}

// Decode converts raw file bytes to a UTF-8 string. A UTF-8 byte order mark
// is dropped and UTF-16 input with a byte order mark is transcoded. Other
// input is treated as UTF-8.
func Decode(data []byte) (string, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// ExtractCode returns the fenced code blocks of a Markdown document whose
// language is one of languages. Every other line is blanked, so line
// numbers in the result match the document.
func ExtractCode(markdown []byte, languages []string) string {
	doc := goldmark.New().Parser().Parse(text.NewReader(markdown))

	lines := make([]string, bytes.Count(markdown, []byte("\n"))+1)
	_ = gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		block, ok := n.(*gmast.FencedCodeBlock)
		if !ok {
			return gmast.WalkContinue, nil
		}
		lang := strings.ToLower(string(block.Language(markdown)))
		if !slices.Contains(languages, lang) {
			return gmast.WalkSkipChildren, nil
		}
		segments := block.Lines()
		for i := 0; i < segments.Len(); i++ {
			seg := segments.At(i)
			line := bytes.Count(markdown[:seg.Start], []byte("\n"))
			lines[line] = strings.TrimRight(string(seg.Value(markdown)), "\r\n")
		}
		return gmast.WalkSkipChildren, nil
	})

	return strings.TrimRight(strings.Join(lines, "\n"), "\n") + "\n"
}
