package incidents

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// ErrInvalidCursor marks a page token that cannot be decoded back into a
// resume position. Callers must treat it as a client error rather than
// silently restarting from the first page.
var ErrInvalidCursor = errors.New("invalid cursor")

// Cursor is the resume position of a listing under the
// (created_at DESC, id DESC) order: the next page starts strictly after it.
type Cursor struct {
	CreatedAt time.Time
	ID        int64
}

type cursorPayload struct {
	CreatedAt string `json:"createdAt"`
	ID        int64  `json:"id"`
}

// EncodeCursor renders the position as unpadded url-safe base64 over a small
// JSON record. RFC3339Nano keeps sub-second precision through the round trip
// so the equality branch of the keyset predicate stays exact.
func EncodeCursor(c Cursor) string {
	raw, _ := json.Marshal(cursorPayload{
		CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339Nano),
		ID:        c.ID,
	})
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor is the inverse of EncodeCursor. Padded tokens are accepted.
// Any malformed input fails with ErrInvalidCursor; there is no partial
// success.
func DecodeCursor(token string) (Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(token, "="))
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}
	var payload cursorPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Cursor{}, ErrInvalidCursor
	}
	if payload.CreatedAt == "" || payload.ID <= 0 {
		return Cursor{}, ErrInvalidCursor
	}
	ts, err := time.Parse(time.RFC3339Nano, payload.CreatedAt)
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}
	return Cursor{CreatedAt: ts.UTC(), ID: payload.ID}, nil
}
