package httpx

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
)

// CursorData is the opaque position of a keyset page.
type CursorData struct {
	After string `json:"after,omitempty"`
}

// EncodeCursor encodes cursor data to a base64 string.
func EncodeCursor(data CursorData) string {
	if data.After == "" {
		return ""
	}
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return ""
	}
	return base64.URLEncoding.EncodeToString(jsonBytes)
}

// DecodeCursor decodes a base64 cursor string to CursorData.
func DecodeCursor(cursor string) (CursorData, error) {
	if cursor == "" {
		return CursorData{}, nil
	}

	decoded, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return CursorData{}, err
	}

	var data CursorData
	if err := json.Unmarshal(decoded, &data); err != nil {
		return CursorData{}, err
	}
	return data, nil
}

// PageLimit reads ?limit=, clamped to [1, max], defaulting to def.
func PageLimit(r *http.Request, def, max int) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
