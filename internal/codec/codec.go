// Package codec turns canonical story JSON into the stored body text and
// back. Each record carries a tag naming the variant that produced it, so
// differently-encoded records can coexist in one table.
package codec

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"

	"github.com/hpungsan/storydrop/internal/errors"
	"github.com/hpungsan/storydrop/internal/story"
)

// Encode serializes canonical JSON into a storable body and its tag.
// The bytes are brotli-compressed at the default quality and
// base64-encoded for text storage; if that comes out no smaller than the
// plain JSON (typical for tiny documents), the plain form wins.
func Encode(canonical []byte) (body string, tag string, err error) {
	var buf bytes.Buffer
	w := brotli.NewWriterLevel(&buf, brotli.DefaultCompression)
	if _, err := w.Write(canonical); err != nil {
		return "", "", fmt.Errorf("brotli write: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", "", fmt.Errorf("brotli close: %w", err)
	}

	encoded := base64.StdEncoding.EncodeToString(buf.Bytes())
	if len(encoded) < len(canonical) {
		return encoded, story.EncodingBrotli, nil
	}
	return string(canonical), story.EncodingPlain, nil
}

// Decode reverses Encode, dispatching purely on the tag. An empty tag
// marks a record written before tagging existed and is read as plain.
// The returned bytes are always valid JSON; any failure along the way
// (unknown tag, bad base64, truncated stream, non-JSON output) is
// reported as a plain error for the caller to classify.
func Decode(body, tag string) ([]byte, error) {
	var raw []byte
	switch tag {
	case "", story.EncodingPlain:
		raw = []byte(body)
	case story.EncodingBrotli:
		compressed, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return nil, fmt.Errorf("base64 decode: %w", err)
		}
		raw, err = io.ReadAll(brotli.NewReader(bytes.NewReader(compressed)))
		if err != nil {
			return nil, fmt.Errorf("brotli decode: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown encoding tag %q", tag)
	}

	if !json.Valid(raw) {
		return nil, fmt.Errorf("decoded body is not valid JSON")
	}
	return raw, nil
}

// CheckSize enforces the post-encoding size ceiling. The raw size rides
// along in the rejection so callers can tell whether simplifying the
// document would help.
func CheckSize(rawBytes, encodedBytes, maxBytes int) error {
	if encodedBytes > maxBytes {
		return errors.NewTooLarge(maxBytes, rawBytes, encodedBytes)
	}
	return nil
}
