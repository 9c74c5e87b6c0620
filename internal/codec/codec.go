// Package codec abstracts the byte encodings used at the store's edges:
// JSON on the HTTP wire, CBOR or MessagePack for snapshot files.
package codec

import "io"

type Encoder interface {
	Encode(v any) error
}

type Decoder interface {
	Decode(v any) error
}

type Marshaler interface {
	Marshal(v any) ([]byte, error)
	NewEncoder(w io.Writer) Encoder
}

type Unmarshaler interface {
	Unmarshal(data []byte, dst any) error
	NewDecoder(r io.Reader) Decoder
}

// Codec pairs a Marshaler with its Unmarshaler and names the media type
// it produces, for use in Content-Type and Accept headers.
type Codec interface {
	Marshaler
	Unmarshaler
	ContentType() string
}
