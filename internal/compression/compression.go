// Package compression provides payload compression for OTLP HTTP export.
package compression

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Type represents a compression algorithm.
type Type string

const (
	// TypeNone means no compression.
	TypeNone Type = "none"
	// TypeGzip uses gzip compression.
	TypeGzip Type = "gzip"
	// TypeZstd uses zstd compression.
	TypeZstd Type = "zstd"
	// TypeSnappy uses snappy block compression.
	TypeSnappy Type = "snappy"
	// TypeZlib uses zlib compression.
	TypeZlib Type = "zlib"
	// TypeDeflate uses raw deflate compression.
	TypeDeflate Type = "deflate"
	// TypeLZ4 uses lz4 frame compression.
	TypeLZ4 Type = "lz4"
)

// Level is an algorithm-specific compression level. Zero selects the
// algorithm default.
type Level int

const (
	// LevelDefault uses the default level for the algorithm.
	LevelDefault Level = 0
	// LevelFastest trades ratio for speed.
	LevelFastest Level = 1
	// LevelBest trades speed for ratio.
	LevelBest Level = 9
)

// Config holds compression configuration.
type Config struct {
	// Type is the compression algorithm to use.
	Type Type
	// Level is the compression level (algorithm-specific).
	Level Level
}

// ParseType parses a compression type string.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return TypeNone, nil
	case "gzip":
		return TypeGzip, nil
	case "zstd":
		return TypeZstd, nil
	case "snappy":
		return TypeSnappy, nil
	case "zlib":
		return TypeZlib, nil
	case "deflate":
		return TypeDeflate, nil
	case "lz4":
		return TypeLZ4, nil
	default:
		return TypeNone, fmt.Errorf("unsupported compression type: %s", s)
	}
}

// ContentEncoding returns the HTTP Content-Encoding header value for the type,
// or "" for no compression.
func (t Type) ContentEncoding() string {
	switch t {
	case TypeGzip, TypeZstd, TypeSnappy, TypeZlib, TypeDeflate, TypeLZ4:
		return string(t)
	default:
		return ""
	}
}

type codec struct {
	compress   func(data []byte, level Level) ([]byte, error)
	decompress func(data []byte) ([]byte, error)
}

var codecs = map[Type]codec{
	TypeGzip:    {compressGzip, decompressGzip},
	TypeZstd:    {compressZstd, decompressZstd},
	TypeSnappy:  {compressSnappy, decompressSnappy},
	TypeZlib:    {compressZlib, decompressZlib},
	TypeDeflate: {compressDeflate, decompressDeflate},
	TypeLZ4:     {compressLZ4, decompressLZ4},
}

// Compress compresses data using the configured type and level.
// TypeNone returns the input unchanged.
func Compress(data []byte, cfg Config) ([]byte, error) {
	if cfg.Type == TypeNone || cfg.Type == "" {
		return data, nil
	}
	c, ok := codecs[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported compression type: %s", cfg.Type)
	}
	out, err := c.compress(data, cfg.Level)
	if err != nil {
		return nil, err
	}
	compressInputBytesTotal.WithLabelValues(string(cfg.Type)).Add(float64(len(data)))
	compressOutputBytesTotal.WithLabelValues(string(cfg.Type)).Add(float64(len(out)))
	return out, nil
}

// Decompress decompresses data of the given type. TypeNone returns the
// input unchanged.
func Decompress(data []byte, t Type) ([]byte, error) {
	if t == TypeNone || t == "" {
		return data, nil
	}
	c, ok := codecs[t]
	if !ok {
		return nil, fmt.Errorf("unsupported compression type: %s", t)
	}
	return c.decompress(data)
}

func compressGzip(data []byte, level Level) ([]byte, error) {
	gzLevel := gzip.DefaultCompression
	if level != LevelDefault {
		gzLevel = int(level)
	}
	var buf bytes.Buffer
	gw, err := gzip.NewWriterLevel(&buf, gzLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip writer: %w", err)
	}
	if _, err := gw.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write gzip data: %w", err)
	}
	if err := gw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close gzip writer: %w", err)
	}
	return buf.Bytes(), nil
}

func decompressGzip(data []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gr.Close()
	return io.ReadAll(gr)
}

// Shared zstd coders, stateless via EncodeAll/DecodeAll. One encoder per
// distinct level actually used.
var (
	zstdMu       sync.Mutex
	zstdEncoders = map[zstd.EncoderLevel]*zstd.Encoder{}
	zstdDecoder  *zstd.Decoder
	zstdDecOnce  sync.Once
)

func zstdLevel(level Level) zstd.EncoderLevel {
	switch {
	case level == LevelDefault:
		return zstd.SpeedDefault
	case level <= 1:
		return zstd.SpeedFastest
	case level <= 3:
		return zstd.SpeedDefault
	case level <= 6:
		return zstd.SpeedBetterCompression
	default:
		return zstd.SpeedBestCompression
	}
}

func compressZstd(data []byte, level Level) ([]byte, error) {
	lvl := zstdLevel(level)
	zstdMu.Lock()
	enc, ok := zstdEncoders[lvl]
	if !ok {
		var err error
		enc, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(lvl))
		if err != nil {
			zstdMu.Unlock()
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		zstdEncoders[lvl] = enc
	}
	zstdMu.Unlock()
	return enc.EncodeAll(data, nil), nil
}

func decompressZstd(data []byte) ([]byte, error) {
	var err error
	zstdDecOnce.Do(func() {
		zstdDecoder, err = zstd.NewReader(nil)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	if zstdDecoder == nil {
		return nil, fmt.Errorf("zstd decoder unavailable")
	}
	return zstdDecoder.DecodeAll(data, nil)
}

func compressSnappy(data []byte, _ Level) ([]byte, error) {
	return snappy.Encode(nil, data), nil
}

func decompressSnappy(data []byte) ([]byte, error) {
	return snappy.Decode(nil, data)
}

func compressZlib(data []byte, level Level) ([]byte, error) {
	zlibLevel := zlib.DefaultCompression
	if level != LevelDefault {
		zlibLevel = int(level)
	}
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlibLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create zlib writer: %w", err)
	}
	if _, err := zw.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write zlib data: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close zlib writer: %w", err)
	}
	return buf.Bytes(), nil
}

func decompressZlib(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create zlib reader: %w", err)
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

func compressDeflate(data []byte, level Level) ([]byte, error) {
	deflateLevel := flate.DefaultCompression
	if level != LevelDefault {
		deflateLevel = int(level)
	}
	var buf bytes.Buffer
	fw, err := flate.NewWriter(&buf, deflateLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create deflate writer: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write deflate data: %w", err)
	}
	if err := fw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close deflate writer: %w", err)
	}
	return buf.Bytes(), nil
}

func decompressDeflate(data []byte) ([]byte, error) {
	fr := flate.NewReader(bytes.NewReader(data))
	defer fr.Close()
	return io.ReadAll(fr)
}

// lz4Levels maps 1..9 onto the frame format's compression levels.
var lz4Levels = [...]lz4.CompressionLevel{
	lz4.Level1, lz4.Level2, lz4.Level3, lz4.Level4, lz4.Level5,
	lz4.Level6, lz4.Level7, lz4.Level8, lz4.Level9,
}

func compressLZ4(data []byte, level Level) ([]byte, error) {
	var buf bytes.Buffer
	lw := lz4.NewWriter(&buf)
	if level >= 1 && int(level) <= len(lz4Levels) {
		if err := lw.Apply(lz4.CompressionLevelOption(lz4Levels[level-1])); err != nil {
			return nil, fmt.Errorf("invalid lz4 level: %w", err)
		}
	}
	if _, err := lw.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write lz4 data: %w", err)
	}
	if err := lw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close lz4 writer: %w", err)
	}
	return buf.Bytes(), nil
}

func decompressLZ4(data []byte) ([]byte, error) {
	lr := lz4.NewReader(bytes.NewReader(data))
	return io.ReadAll(lr)
}
