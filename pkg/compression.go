package converter

import (
	"encoding/json"
	"fmt"

	"go-hep.org/x/hep/groot/rtree"
	"gopkg.in/yaml.v3"
)

// CompressionAlgorithm selects the compression of the output ROOT baskets.
type CompressionAlgorithm struct {
	Name string
	Code int
}

const (
	COMPRESS_NONE = iota
	COMPRESS_ZLIB
	COMPRESS_LZ4
	COMPRESS_LZMA
)

var compressionStrings = []string{
	"none",
	"zlib",
	"lz4",
	"lzma",
}

func ParseCompressionAlgorithm(s string) (CompressionAlgorithm, error) {
	for i, v := range compressionStrings {
		if v == s {
			return CompressionAlgorithm{Name: s, Code: i}, nil
		}
	}
	return CompressionAlgorithm{}, fmt.Errorf("invalid CompressionAlgorithm: %s", s)
}

func (c CompressionAlgorithm) String() string {
	if c.Code < COMPRESS_NONE || c.Code > COMPRESS_LZMA {
		return "UNKNOWN"
	}
	return compressionStrings[c.Code]
}

func (c CompressionAlgorithm) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *CompressionAlgorithm) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseCompressionAlgorithm(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c *CompressionAlgorithm) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseCompressionAlgorithm(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// WriteOptions returns the tree options for this algorithm at level. A level
// of zero or less keeps the groot default.
func (c CompressionAlgorithm) WriteOptions(level int) []rtree.WriteOption {
	if c.Code == COMPRESS_NONE {
		return []rtree.WriteOption{rtree.WithoutCompression()}
	}
	if level <= 0 {
		return nil
	}
	switch c.Code {
	case COMPRESS_ZLIB:
		return []rtree.WriteOption{rtree.WithZlib(level)}
	case COMPRESS_LZ4:
		return []rtree.WriteOption{rtree.WithLZ4(level)}
	case COMPRESS_LZMA:
		return []rtree.WriteOption{rtree.WithLZMA(level)}
	}
	return nil
}
