package codec

import (
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Msgpack encodes values as MessagePack, the alternative snapshot codec.
type Msgpack struct{}

func (Msgpack) Marshal(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

func (Msgpack) Unmarshal(data []byte, dst any) error {
	return msgpack.Unmarshal(data, dst)
}

func (Msgpack) NewEncoder(w io.Writer) Encoder {
	return msgpack.NewEncoder(w)
}

func (Msgpack) NewDecoder(r io.Reader) Decoder {
	return msgpack.NewDecoder(r)
}

func (Msgpack) ContentType() string {
	return "application/msgpack"
}
