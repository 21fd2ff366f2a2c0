package chunker

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrInvalidSize    = errors.New("chunk size must be positive")
	ErrInvalidOverlap = errors.New("chunk overlap must be in [0, size)")
)

// Metadata keys every chunk carries.
const (
	KeySource  = "source"
	KeyChunkID = "chunk_id"
	KeyPage    = "page"
)

type scalarKind uint8

const (
	kindNull scalarKind = iota
	kindString
	kindNumber
	kindBool
)

// Scalar is a metadata value: a string, a number, a boolean or null.
type Scalar struct {
	kind scalarKind
	str  string
	num  float64
	flag bool
}

func Null() Scalar { return Scalar{} }
func String(s string) Scalar { return Scalar{kind: kindString, str: s} }
func Int(n int) Scalar { return Scalar{kind: kindNumber, num: float64(n)} }
func Float(f float64) Scalar { return Scalar{kind: kindNumber, num: f} }
func Bool(b bool) Scalar { return Scalar{kind: kindBool, flag: b} }
func (s Scalar) IsNull() bool { return s.kind == kindNull }
func (s Scalar) IsNumber() bool { return s.kind == kindNumber }

// Number returns the numeric value and whether the scalar holds one.
func (s Scalar) Number() (float64, bool) {
	return s.num, s.kind == kindNumber
}

// String coerces the value for storage: null becomes "", everything else
// its plain text form.
func (s Scalar) String() string {
	switch s.kind {
	case kindString:
		return s.str
	case kindNumber:
		return strconv.FormatFloat(s.num, 'f', -1, 64)
	case kindBool:
		return strconv.FormatBool(s.flag)
	default:
		return ""
	}
}

// Metadata describes a chunk: its source document, its 1-based chunk id and
// optionally the page it came from.
type Metadata map[string]Scalar

// Clone returns an independent copy.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Flatten converts metadata to the string map vector stores accept.
func (m Metadata) Flatten() map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v.String()
	}
	return out
}

// Get returns the value for key, Null when absent.
func (m Metadata) Get(key string) Scalar {
	if v, ok := m[key]; ok {
		return v
	}
	return Null()
}

// ParseMetadata rebuilds metadata read back from a vector store. Empty values
// become null and chunk_id is restored as a number.
func ParseMetadata(raw map[string]string) Metadata {
	out := make(Metadata, len(raw))
	for k, v := range raw {
		switch {
		case v == "":
			out[k] = Null()
		case k == KeyChunkID || k == KeyPage:
			if n, err := strconv.Atoi(v); err == nil {
				out[k] = Int(n)
				continue
			}
			out[k] = String(v)
		default:
			out[k] = String(v)
		}
	}
	return out
}

// Config содержит параметры разбиения
type Config struct {
	Size    int // размер окна в символах
	Overlap int // перекрытие между соседними окнами
}

// Validate проверяет параметры до разбиения
func (c Config) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidSize, c.Size)
	}
	if c.Overlap < 0 || c.Overlap >= c.Size {
		return fmt.Errorf("%w: got overlap=%d size=%d", ErrInvalidOverlap, c.Overlap, c.Size)
	}
	return nil
}
