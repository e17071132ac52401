package source

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/text/encoding/unicode"

	perrors "github.com/sambeau/alethia/pkg/alethia/errors"
)

const program = "let x = 1;\nprint x;\n"

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func zstdBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil)
}

func TestLoad(t *testing.T) {
	utf16, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes([]byte(program))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		file       string
		data       []byte
		compressed bool
	}{
		{"plain", "prog.at", []byte(program), false},
		{"utf8 bom", "bom.at", append([]byte{0xEF, 0xBB, 0xBF}, program...), false},
		{"utf16", "wide.at", utf16, false},
		{"gzip", "prog.at.gz", gzipBytes(t, []byte(program)), true},
		{"zstd", "prog.at.zst", zstdBytes(t, []byte(program)), true},
		{"upper case extension", "PROG.AT", []byte(program), false},
	}

	loader := DefaultLoader()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.data)
			f, err := loader.Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if f.Text != program {
				t.Errorf("expected %q, got %q", program, f.Text)
			}
			if f.Literate {
				t.Error("plain source marked literate")
			}
			if f.Compressed != tt.compressed {
				t.Errorf("compressed = %t", f.Compressed)
			}
			if f.Path != path {
				t.Errorf("path = %q", f.Path)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	loader := DefaultLoader()

	tests := []struct {
		name    string
		path    func(t *testing.T) string
		code    string
		message string
	}{
		{
			"missing file",
			func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.at") },
			"IO-0001",
			"File not found: ",
		},
		{
			"wrong extension",
			func(t *testing.T) string { return writeFile(t, "prog.txt", []byte(program)) },
			"IO-0002",
			"File must have .at extension",
		},
		{
			"corrupt gzip",
			func(t *testing.T) string { return writeFile(t, "prog.at.gz", []byte("not gzip")) },
			"IO-0003",
			"Cannot read ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.path(t)
			_, err := loader.Load(path)
			var aerr *perrors.AlethiaError
			if !errors.As(err, &aerr) {
				t.Fatalf("expected *AlethiaError, got %v", err)
			}
			if aerr.Code != tt.code {
				t.Errorf("code = %q, want %q", aerr.Code, tt.code)
			}
			if !strings.HasPrefix(aerr.Message, tt.message) {
				t.Errorf("message = %q, want prefix %q", aerr.Message, tt.message)
			}
			if aerr.File != path {
				t.Errorf("file = %q, want %q", aerr.File, path)
			}
			if aerr.Class != perrors.ClassIO {
				t.Errorf("class = %q", aerr.Class)
			}
		})
	}
}

func TestAccepts(t *testing.T) {
	loader := DefaultLoader()
	tests := []struct {
		path     string
		expected bool
	}{
		{"a.at", true},
		{"dir/a.at.gz", true},
		{"a.at.zst", true},
		{"README.md", true},
		{"notes.markdown.gz", true},
		{"a.txt", false},
		{"a.gz", false},
		{"at", false},
	}
	for _, tt := range tests {
		if got := loader.Accepts(tt.path); got != tt.expected {
			t.Errorf("Accepts(%q) = %t, want %t", tt.path, got, tt.expected)
		}
	}

	noMarkdown := &Loader{Extensions: []string{".at", ".alethia"}}
	if noMarkdown.Accepts("README.md") {
		t.Error("markdown accepted without fence languages")
	}
	if !noMarkdown.Accepts("x.alethia") {
		t.Error("custom extension rejected")
	}
}

const literate = "# Title\n" +
	"\n" +
	"Some text.\n" +
	"\n" +
	"```alethia\n" +
	"let x = 1;\n" +
	"```\n" +
	"\n" +
	"```go\n" +
	"ignored\n" +
	"```\n" +
	"\n" +
	"```AT\n" +
	"print x;\n" +
	"```\n"

func TestExtractCodeKeepsLineNumbers(t *testing.T) {
	out := ExtractCode([]byte(literate), DefaultMarkdownLanguages)
	lines := strings.Split(out, "\n")

	if lines[5] != "let x = 1;" {
		t.Errorf("line 6 = %q", lines[5])
	}
	if lines[13] != "print x;" {
		t.Errorf("line 14 = %q", lines[13])
	}
	if strings.Contains(out, "ignored") || strings.Contains(out, "Title") {
		t.Errorf("non-program text leaked: %q", out)
	}
}

func TestLoadLiterate(t *testing.T) {
	path := writeFile(t, "doc.md", []byte(literate))
	f, err := DefaultLoader().Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !f.Literate {
		t.Error("expected literate file")
	}
	if got := strings.Join(strings.Fields(f.Text), " "); got != "let x = 1; print x;" {
		t.Errorf("code = %q", got)
	}
}

func TestExtractCodeWithoutBlocks(t *testing.T) {
	out := ExtractCode([]byte("just prose\n"), DefaultMarkdownLanguages)
	if strings.TrimSpace(out) != "" {
		t.Errorf("expected no code, got %q", out)
	}
}

func TestDecode(t *testing.T) {
	be, err := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder().String("print \"é\";")
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode([]byte(be))
	if err != nil {
		t.Fatal(err)
	}
	if got != "print \"é\";" {
		t.Errorf("got %q", got)
	}
}
