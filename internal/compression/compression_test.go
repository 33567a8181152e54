package compression

import (
	"bytes"
	"testing"
)

var sampleData = bytes.Repeat([]byte("span batch payload with repetitive structure "), 64)

func TestCompressRoundTrip(t *testing.T) {
	types := []Type{TypeGzip, TypeZstd, TypeSnappy, TypeZlib, TypeDeflate, TypeLZ4}
	for _, typ := range types {
		t.Run(string(typ), func(t *testing.T) {
			compressed, err := Compress(sampleData, Config{Type: typ})
			if err != nil {
				t.Fatalf("Compress: %v", err)
			}
			if bytes.Equal(compressed, sampleData) {
				t.Error("output identical to input, compression did not run")
			}
			out, err := Decompress(compressed, typ)
			if err != nil {
				t.Fatalf("Decompress: %v", err)
			}
			if !bytes.Equal(out, sampleData) {
				t.Error("round trip corrupted data")
			}
		})
	}
}

func TestCompressLevels(t *testing.T) {
	types := []Type{TypeGzip, TypeZstd, TypeZlib, TypeDeflate, TypeLZ4}
	for _, typ := range types {
		for _, level := range []Level{LevelDefault, LevelFastest, LevelBest} {
			compressed, err := Compress(sampleData, Config{Type: typ, Level: level})
			if err != nil {
				t.Fatalf("Compress(%s, level %d): %v", typ, level, err)
			}
			out, err := Decompress(compressed, typ)
			if err != nil {
				t.Fatalf("Decompress(%s, level %d): %v", typ, level, err)
			}
			if !bytes.Equal(out, sampleData) {
				t.Errorf("%s level %d round trip corrupted data", typ, level)
			}
		}
	}
}

func TestCompressNoneIsPassthrough(t *testing.T) {
	out, err := Compress(sampleData, Config{Type: TypeNone})
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if !bytes.Equal(out, sampleData) {
		t.Error("TypeNone must pass data through unchanged")
	}
	out, err = Compress(sampleData, Config{})
	if err != nil {
		t.Fatalf("Compress empty type: %v", err)
	}
	if !bytes.Equal(out, sampleData) {
		t.Error("empty type must pass data through unchanged")
	}
}

func TestCompressUnknownType(t *testing.T) {
	if _, err := Compress(sampleData, Config{Type: Type("brotli")}); err == nil {
		t.Error("expected error for unknown compression type")
	}
	if _, err := Decompress(sampleData, Type("brotli")); err == nil {
		t.Error("expected error for unknown decompression type")
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in      string
		want    Type
		wantErr bool
	}{
		{"", TypeNone, false},
		{"none", TypeNone, false},
		{"gzip", TypeGzip, false},
		{"GZIP", TypeGzip, false},
		{" zstd ", TypeZstd, false},
		{"snappy", TypeSnappy, false},
		{"zlib", TypeZlib, false},
		{"deflate", TypeDeflate, false},
		{"lz4", TypeLZ4, false},
		{"brotli", TypeNone, true},
	}
	for _, tt := range tests {
		got, err := ParseType(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseType(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestContentEncoding(t *testing.T) {
	if TypeGzip.ContentEncoding() != "gzip" {
		t.Error("gzip encoding header mismatch")
	}
	if TypeNone.ContentEncoding() != "" {
		t.Error("TypeNone must have no encoding header")
	}
	if Type("bogus").ContentEncoding() != "" {
		t.Error("unknown type must have no encoding header")
	}
}
