package story

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/hpungsan/storydrop/internal/config"
	"github.com/hpungsan/storydrop/internal/errors"
)

// MaxTitleChars is the stored title length limit (runes, not bytes).
const MaxTitleChars = 160

// DefaultTitle is substituted when no usable title is supplied.
const DefaultTitle = "Untitled"

// Validated is the result of a successful validation pass.
type Validated struct {
	// Document is the parsed caller-supplied tree, uninterpreted beyond
	// the checks below.
	Document map[string]any

	// Canonical is the document re-serialized with sorted keys and no
	// insignificant whitespace. This is what the codec encodes.
	Canonical []byte

	// Title is trimmed and truncated to MaxTitleChars, or DefaultTitle.
	Title string

	// TTLDays is the caller-supplied or defaulted time-to-live in days.
	TTLDays float64
}

// TTLSeconds converts the time-to-live to whole seconds.
func (v *Validated) TTLSeconds() int64 {
	return int64(math.Round(v.TTLDays * 86400))
}

// Validate checks a raw publish payload against the configured bounds.
// Checks short-circuit on the first failure. Pure function of input plus
// configuration; nothing is persisted here.
func Validate(raw []byte, cfg *config.Config) (*Validated, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.NewInvalidRequest("document must be a JSON object")
	}

	layersVal, ok := doc["layers"]
	if !ok {
		return nil, errors.NewInvalidShape()
	}
	layers, ok := layersVal.([]any)
	if !ok {
		return nil, errors.NewInvalidShape()
	}
	if len(layers) == 0 {
		return nil, errors.NewEmptyLayers()
	}
	if len(layers) > cfg.MaxLayers {
		return nil, errors.NewTooManyLayers(cfg.MaxLayers, len(layers))
	}

	title := sanitizeTitle(doc["title"])

	ttlDays := float64(cfg.DefaultTTLDays)
	if ttlVal, ok := doc["ttlDays"]; ok {
		parsed, ok := parseTTL(ttlVal)
		if !ok || parsed < 1 || parsed > float64(cfg.MaxTTLDays) {
			return nil, errors.NewInvalidTTL(1, cfg.MaxTTLDays)
		}
		ttlDays = parsed
	}

	// Maps marshal with sorted keys, which makes this canonical.
	canonical, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	return &Validated{
		Document:  doc,
		Canonical: canonical,
		Title:     title,
		TTLDays:   ttlDays,
	}, nil
}

// sanitizeTitle trims and truncates a caller-supplied title. Anything that
// is not a non-empty string after trimming becomes DefaultTitle.
func sanitizeTitle(v any) string {
	s, ok := v.(string)
	if !ok {
		return DefaultTitle
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultTitle
	}
	runes := []rune(s)
	if len(runes) > MaxTitleChars {
		return string(runes[:MaxTitleChars])
	}
	return s
}

// parseTTL accepts a JSON number or a numeric string, rejecting anything
// non-finite.
func parseTTL(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
