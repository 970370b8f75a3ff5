package codec

import (
	"encoding/json"
	"io"

	gojson "github.com/goccy/go-json"
)

// UseGoJSON selects go-json for decoding request bodies and snapshots.
// Setting it to false falls back to encoding/json.
var UseGoJSON = true

func JSONMarshalIndent(v any, prefix, indent string) ([]byte, error) {
	if UseGoJSON {
		return gojson.MarshalIndent(v, prefix, indent)
	}
	return json.MarshalIndent(v, prefix, indent)
}

func JSONUnmarshal(data []byte, v any) error {
	if UseGoJSON {
		return gojson.Unmarshal(data, v)
	}
	return json.Unmarshal(data, v)
}

// JSONUnmarshalRead decodes a single JSON value from r into v. Unknown
// fields are ignored.
func JSONUnmarshalRead(r io.Reader, v any) error {
	if UseGoJSON {
		return gojson.NewDecoder(r).Decode(v)
	}
	return json.NewDecoder(r).Decode(v)
}
