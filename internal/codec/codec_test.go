package codec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var codecs = map[string]Codec{
	"JSON":    JSON{},
	"CBOR":    CBOR{},
	"Msgpack": Msgpack{},
}

type fixture struct {
	ID       string            `json:"id" msgpack:"id"`
	Revision string            `json:"revision" msgpack:"revision"`
	Deleted  bool              `json:"deleted" msgpack:"deleted"`
	Seq      int64             `json:"seq" msgpack:"seq"`
	Tags     []string          `json:"tags" msgpack:"tags"`
	Body     map[string]string `json:"body" msgpack:"body"`
	Raw      []byte            `json:"raw" msgpack:"raw"`
}

func fixtures() []fixture {
	return []fixture{
		{},
		{ID: "a", Revision: "1-x", Seq: 1},
		{
			ID:       "recipes/42",
			Revision: "3-deadbeef",
			Deleted:  true,
			Seq:      99,
			Tags:     []string{"kitchen", "bread"},
			Body:     map[string]string{"title": "toast", "state": "burnt"},
			Raw:      []byte{0x00, 0xff, 0x10},
		},
	}
}

func TestRoundTrip(t *testing.T) {
	for name, c := range codecs {
		t.Run(name, func(t *testing.T) {
			for _, in := range fixtures() {
				data, err := c.Marshal(in)
				require.NoError(t, err)

				var out fixture
				require.NoError(t, c.Unmarshal(data, &out))
				assert.Equal(t, in, out)
			}
		})
	}
}

func TestStreamRoundTrip(t *testing.T) {
	for name, c := range codecs {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			enc := c.NewEncoder(&buf)
			for _, in := range fixtures() {
				require.NoError(t, enc.Encode(in))
			}

			dec := c.NewDecoder(&buf)
			for _, in := range fixtures() {
				var out fixture
				require.NoError(t, dec.Decode(&out))
				assert.Equal(t, in, out)
			}
		})
	}
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/json", JSON{}.ContentType())
	assert.Equal(t, "application/cbor", CBOR{}.ContentType())
	assert.Equal(t, "application/msgpack", Msgpack{}.ContentType())
}
