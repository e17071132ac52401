// Package format pretty-prints Alethia source from its syntax tree.
package format

// MaxLineWidth is the target maximum line length
const MaxLineWidth = 92

// Collections longer than this are broken over several lines
const CollectionThresholdPercent = 50

var CollectionThreshold = MaxLineWidth * CollectionThresholdPercent / 100 // 46 chars

// Indentation - gofmt style: tabs for indentation
const (
	TabWidth     = 4
	IndentWidth  = TabWidth
	IndentString = "\t"
)

// BlankLinesAroundFuncs separates top-level function declarations from
// their neighbours
const BlankLinesAroundFuncs = 1

// TrailingCommaMultiline adds a trailing comma to multiline arrays and
// dictionaries. Call arguments never take one.
const TrailingCommaMultiline = true
