package memory

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/pierrec/lz4/v4"

	"github.com/setteedb/settee/internal/codec"
	"github.com/setteedb/settee/pkg/constants"
)

// Snapshot files carry a fixed header followed by one lz4
// block-compressed codec payload.
const (
	snapshotMagic   = "STEE"
	snapshotVersion = 1

	codecCBOR    = 0
	codecMsgpack = 1
)

type snapshotHeader struct {
	Magic    [4]byte
	Version  uint8
	Codec    uint8
	Reserved [2]byte
	RawSize  uint32
}

type snapshotData struct {
	Docs    map[string]map[string]any `json:"docs" msgpack:"docs"`
	Indexes map[string][]string       `json:"indexes,omitempty" msgpack:"indexes,omitempty"`
}

// SaveSnapshot writes the full document and index state to path using
// the configured codec.
func (m *Memory) SaveSnapshot(path string) error {
	data := snapshotData{
		Docs:    make(map[string]map[string]any),
		Indexes: make(map[string][]string),
	}
	m.docs.Range(func(id string, doc map[string]any) bool {
		data.Docs[id] = doc
		return true
	})
	m.indexes.Range(func(name string, fields []string) bool {
		data.Indexes[name] = fields
		return true
	})

	payload, err := m.conf.Codec.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	compressed := make([]byte, lz4.CompressBlockBound(len(payload)))
	var hashTable [1 << 16]int
	n, err := lz4.CompressBlock(payload, compressed, hashTable[:])
	if err != nil {
		return fmt.Errorf("compress snapshot: %w", err)
	}
	compressed = compressed[:n]

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}
	defer file.Close()

	header := snapshotHeader{
		Version: snapshotVersion,
		Codec:   codecID(m.conf.Codec),
		RawSize: uint32(len(payload)),
	}
	copy(header.Magic[:], snapshotMagic)
	if err := binary.Write(file, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("write snapshot header: %w", err)
	}
	if _, err := file.Write(compressed); err != nil {
		return fmt.Errorf("write snapshot data: %w", err)
	}

	m.log.Info("snapshot saved", "path", path, "docs", len(data.Docs))
	return nil
}

// LoadSnapshot replaces the store's state with the contents of path. A
// missing file is not an error; the store simply starts empty.
func (m *Memory) LoadSnapshot(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open snapshot file: %w", err)
	}
	defer file.Close()

	var header snapshotHeader
	if err := binary.Read(file, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("read snapshot header: %w", err)
	}
	if string(header.Magic[:]) != snapshotMagic {
		return fmt.Errorf("not a snapshot file: magic %q", header.Magic[:])
	}
	if header.Version != snapshotVersion {
		return fmt.Errorf("unsupported snapshot version %d", header.Version)
	}

	compressed, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read snapshot data: %w", err)
	}
	payload := make([]byte, header.RawSize)
	n, err := lz4.UncompressBlock(compressed, payload)
	if err != nil {
		return fmt.Errorf("decompress snapshot: %w", err)
	}
	payload = payload[:n]

	dec, err := codecByID(header.Codec)
	if err != nil {
		return err
	}
	var data snapshotData
	if err := dec.Unmarshal(payload, &data); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}

	m.docs.Clear()
	for id, doc := range data.Docs {
		m.docs.Store(id, normalizeLoaded(doc))
	}
	m.indexes.Clear()
	for name, fields := range data.Indexes {
		m.indexes.Store(name, fields)
	}

	m.log.Info("snapshot loaded", "path", path, "docs", len(data.Docs))
	return nil
}

func codecID(c codec.Codec) uint8 {
	if _, ok := c.(codec.Msgpack); ok {
		return codecMsgpack
	}
	return codecCBOR
}

func codecByID(id uint8) (codec.Codec, error) {
	switch id {
	case codecCBOR:
		return codec.CBOR{}, nil
	case codecMsgpack:
		return codec.Msgpack{}, nil
	default:
		return nil, fmt.Errorf("%w: snapshot codec %d", constants.ErrNoCodec, id)
	}
}

// normalizeLoaded rewrites decoded maps so nested values use the
// map[string]any shape the selector engine expects. CBOR and
// MessagePack both decode untyped maps as map[any]any by default.
func normalizeLoaded(doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return normalizeLoaded(val)
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[fmt.Sprint(k)] = normalizeValue(inner)
		}
		return out
	case []any:
		for i := range val {
			val[i] = normalizeValue(val[i])
		}
		return val
	}
	return v
}
