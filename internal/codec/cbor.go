package codec

import (
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

var (
	cborEnc = getCborEncMode()
	cborDec = getCborDecMode()
)

// getCborEncMode returns the canonical encoding mode. Canonical form
// keeps map keys sorted so re-encoding the same value is byte-stable.
func getCborEncMode() cbor.EncMode {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}

// getCborDecMode returns the decoding mode. Untyped maps decode as
// map[string]any so decoded documents look the same as JSON-decoded
// ones.
func getCborDecMode() cbor.DecMode {
	dm, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic(err)
	}
	return dm
}

// CBOR encodes values as canonical CBOR. It is the default snapshot
// codec: compact, typed, and stable across re-encodes.
type CBOR struct{}

func (CBOR) Marshal(v any) ([]byte, error) {
	return cborEnc.Marshal(v)
}

func (CBOR) Unmarshal(data []byte, dst any) error {
	return cborDec.Unmarshal(data, dst)
}

func (CBOR) NewEncoder(w io.Writer) Encoder {
	return cborEnc.NewEncoder(w)
}

func (CBOR) NewDecoder(r io.Reader) Decoder {
	return cborDec.NewDecoder(r)
}

func (CBOR) ContentType() string {
	return "application/cbor"
}
