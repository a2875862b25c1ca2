package story

// Encoding tags for the stored body. Records written before the encoding
// column existed carry no tag and are read as EncodingPlain.
const (
	EncodingPlain  = "plain"
	EncodingBrotli = "br"
)

// Record is the persisted row representing one published story.
// Stories are write-once: nothing but physical deletion ever touches a row.
type Record struct {
	// ID is a short URL-safe identifier, generated at publish time.
	// It doubles as the access capability for the story.
	ID string

	// Title is the sanitized caller-supplied title, or "Untitled".
	Title string

	// Body is the codec output: canonical JSON for plain records,
	// base64 of the brotli stream for compressed ones.
	Body string

	// Encoding identifies which codec variant produced Body.
	// Empty for rows written before the column existed (read as plain).
	Encoding string

	// CreatedAt is the Unix timestamp set at insert, immutable.
	CreatedAt int64

	// ExpiresAt is CreatedAt + ttl in seconds; nil means never expires.
	ExpiresAt *int64
}

// Expired reports whether the record is past its time-to-live at now
// (Unix seconds). Both the resolve path and the sweeper use this
// predicate; they must never disagree.
func (r *Record) Expired(now int64) bool {
	return r.ExpiresAt != nil && *r.ExpiresAt < now
}
