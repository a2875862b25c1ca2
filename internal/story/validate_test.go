package story

import (
	"strings"
	"testing"

	"github.com/hpungsan/storydrop/internal/config"
	"github.com/hpungsan/storydrop/internal/errors"
)

func validate(t *testing.T, raw string) (*Validated, error) {
	t.Helper()
	return Validate([]byte(raw), config.DefaultConfig())
}

func TestValidate_HappyPath(t *testing.T) {
	v, err := validate(t, `{"layers":[{"type":"point"}],"title":"Harbor tour"}`)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if v.Title != "Harbor tour" {
		t.Errorf("Title = %q, want %q", v.Title, "Harbor tour")
	}
	if v.TTLDays != 7 {
		t.Errorf("TTLDays = %v, want 7 (default)", v.TTLDays)
	}
	if len(v.Canonical) == 0 {
		t.Error("Canonical should not be empty")
	}
}

func TestValidate_MissingLayers(t *testing.T) {
	_, err := validate(t, `{"title":"no layers"}`)
	if !errors.Is(err, errors.ErrInvalidShape) {
		t.Errorf("err = %v, want INVALID_SHAPE", err)
	}
}

func TestValidate_LayersNotArray(t *testing.T) {
	_, err := validate(t, `{"layers":"nope"}`)
	if !errors.Is(err, errors.ErrInvalidShape) {
		t.Errorf("err = %v, want INVALID_SHAPE", err)
	}

	_, err = validate(t, `{"layers":{"a":1}}`)
	if !errors.Is(err, errors.ErrInvalidShape) {
		t.Errorf("err = %v, want INVALID_SHAPE", err)
	}
}

func TestValidate_EmptyLayers(t *testing.T) {
	_, err := validate(t, `{"layers":[]}`)
	if !errors.Is(err, errors.ErrEmptyLayers) {
		t.Errorf("err = %v, want EMPTY_LAYERS", err)
	}
}

func TestValidate_TooManyLayers(t *testing.T) {
	_, err := validate(t, `{"layers":[1,2,3,4]}`)
	if !errors.Is(err, errors.ErrTooManyLayers) {
		t.Errorf("err = %v, want TOO_MANY_LAYERS", err)
	}

	// Exactly at the limit is fine
	if _, err := validate(t, `{"layers":[1,2,3]}`); err != nil {
		t.Errorf("3 layers should pass, got %v", err)
	}
}

func TestValidate_NotJSON(t *testing.T) {
	_, err := validate(t, `not json at all`)
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("err = %v, want INVALID_REQUEST", err)
	}

	_, err = validate(t, `[1,2,3]`)
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("top-level array: err = %v, want INVALID_REQUEST", err)
	}
}

func TestValidate_TitleTruncation(t *testing.T) {
	long := strings.Repeat("A", 300)
	v, err := validate(t, `{"layers":[1],"title":"`+long+`"}`)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if len([]rune(v.Title)) != MaxTitleChars {
		t.Errorf("title length = %d, want %d", len([]rune(v.Title)), MaxTitleChars)
	}
	// Non-empty title is never replaced by the default
	if v.Title == DefaultTitle {
		t.Error("truncated title must not become Untitled")
	}
}

func TestValidate_TitleDefaults(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"absent", `{"layers":[1]}`},
		{"empty", `{"layers":[1],"title":""}`},
		{"whitespace", `{"layers":[1],"title":"   "}`},
		{"non-string", `{"layers":[1],"title":42}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := validate(t, tc.raw)
			if err != nil {
				t.Fatalf("Validate failed: %v", err)
			}
			if v.Title != DefaultTitle {
				t.Errorf("Title = %q, want %q", v.Title, DefaultTitle)
			}
		})
	}
}

func TestValidate_TTL(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		wantErr bool
		want    float64
	}{
		{"zero", `{"layers":[1],"ttlDays":0}`, true, 0},
		{"negative", `{"layers":[1],"ttlDays":-3}`, true, 0},
		{"above max", `{"layers":[1],"ttlDays":61}`, true, 0},
		{"non-numeric string", `{"layers":[1],"ttlDays":"soon"}`, true, 0},
		{"bool", `{"layers":[1],"ttlDays":true}`, true, 0},
		{"min", `{"layers":[1],"ttlDays":1}`, false, 1},
		{"max", `{"layers":[1],"ttlDays":60}`, false, 60},
		{"fractional", `{"layers":[1],"ttlDays":2.5}`, false, 2.5},
		{"numeric string", `{"layers":[1],"ttlDays":"14"}`, false, 14},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := validate(t, tc.raw)
			if tc.wantErr {
				if !errors.Is(err, errors.ErrInvalidTTL) {
					t.Errorf("err = %v, want INVALID_TTL", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate failed: %v", err)
			}
			if v.TTLDays != tc.want {
				t.Errorf("TTLDays = %v, want %v", v.TTLDays, tc.want)
			}
		})
	}
}

func TestValidated_TTLSeconds(t *testing.T) {
	v := &Validated{TTLDays: 2.5}
	if got := v.TTLSeconds(); got != 216000 {
		t.Errorf("TTLSeconds() = %d, want 216000", got)
	}
}

func TestRecord_Expired(t *testing.T) {
	now := int64(1_000_000)
	past := now - 1
	future := now + 1

	cases := []struct {
		name      string
		expiresAt *int64
		want      bool
	}{
		{"never expires", nil, false},
		{"future", &future, false},
		{"exactly now", &now, false},
		{"past", &past, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := &Record{ExpiresAt: tc.expiresAt}
			if got := r.Expired(now); got != tc.want {
				t.Errorf("Expired(%d) = %v, want %v", now, got, tc.want)
			}
		})
	}
}
