package flat

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"math"
	"os"

	"github.com/creditrust-labs/trustline-cli/internal/core/domain"
)

// On-disk layout: a binary vector file and a JSON metadata sidecar, row
// for row in the same order. Both carry dimension, metric, and schema
// version so compatibility is checked on load instead of degrading
// silently.
const (
	magic         = "TLVX"
	schemaVersion = 1
)

// SidecarPath returns the metadata sidecar path for a vector file path.
func SidecarPath(path string) string {
	return path + ".meta.json"
}

// sidecar is the JSON metadata file written next to the vector file.
type sidecar struct {
	SchemaVersion int           `json:"schema_version"`
	Metric        domain.Metric `json:"metric"`
	Dimension     int           `json:"dimension"`
	Count         int           `json:"count"`
	Chunks        []Meta        `json:"chunks"`
}

// header is the fixed-size binary file header.
type header struct {
	Magic         [4]byte
	SchemaVersion uint16
	Metric        uint8
	_             uint8 // padding
	Dimension     uint32
	Count         uint32
	Checksum      uint32 // CRC-32 (IEEE) of the vector payload
}

func metricCode(m domain.Metric) uint8 {
	if m == domain.MetricEuclidean {
		return 1
	}
	return 0
}

func codeMetric(c uint8) (domain.Metric, error) {
	switch c {
	case 0:
		return domain.MetricCosine, nil
	case 1:
		return domain.MetricEuclidean, nil
	}
	return "", fmt.Errorf("%w: unknown metric code %d", domain.ErrIndexCorrupted, c)
}

// Persist writes the index to path and its sidecar to SidecarPath(path).
// Both files are written to a temporary name and renamed so a crashed
// write never leaves a half-index behind.
func (ix *Index) Persist(path string) error {
	payload := make([]byte, 0, len(ix.vectors)*ix.dim*4)
	buf := make([]byte, 4)
	for _, v := range ix.vectors {
		for _, f := range v {
			binary.LittleEndian.PutUint32(buf, math.Float32bits(f))
			payload = append(payload, buf...)
		}
	}

	var h header
	copy(h.Magic[:], magic)
	h.SchemaVersion = schemaVersion
	h.Metric = metricCode(ix.metric)
	h.Dimension = uint32(ix.dim)
	h.Count = uint32(len(ix.vectors))
	h.Checksum = crc32.ChecksumIEEE(payload)

	var out bytes.Buffer
	if err := binary.Write(&out, binary.LittleEndian, h); err != nil {
		return fmt.Errorf("encoding header: %w", err)
	}
	out.Write(payload)

	if err := writeAtomic(path, out.Bytes()); err != nil {
		return fmt.Errorf("writing vector file: %w", err)
	}

	sc := sidecar{
		SchemaVersion: schemaVersion,
		Metric:        ix.metric,
		Dimension:     ix.dim,
		Count:         len(ix.vectors),
		Chunks:        ix.metas,
	}
	data, err := json.Marshal(sc)
	if err != nil {
		return fmt.Errorf("encoding sidecar: %w", err)
	}
	if err := writeAtomic(SidecarPath(path), data); err != nil {
		return fmt.Errorf("writing sidecar: %w", err)
	}
	return nil
}

// Load reads a persisted index and verifies it against the expected
// metric and dimension. A file written with a different dimension,
// metric, or schema version fails with ErrIncompatibleIndex; a file that
// fails integrity checks fails with ErrIndexCorrupted and must be
// rebuilt.
func Load(path string, metric domain.Metric, dimension int) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading vector file: %w", err)
	}

	var h header
	r := bytes.NewReader(data)
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("%w: truncated header", domain.ErrIndexCorrupted)
	}
	if string(h.Magic[:]) != magic {
		return nil, fmt.Errorf("%w: bad magic", domain.ErrIndexCorrupted)
	}
	if h.SchemaVersion != schemaVersion {
		return nil, fmt.Errorf("%w: schema version %d, expected %d",
			domain.ErrIncompatibleIndex, h.SchemaVersion, schemaVersion)
	}
	fileMetric, err := codeMetric(h.Metric)
	if err != nil {
		return nil, err
	}

	payload := data[len(data)-r.Len():]
	want := int(h.Count) * int(h.Dimension) * 4
	if len(payload) != want {
		return nil, fmt.Errorf("%w: payload is %d bytes, header promises %d",
			domain.ErrIndexCorrupted, len(payload), want)
	}
	if crc32.ChecksumIEEE(payload) != h.Checksum {
		return nil, fmt.Errorf("%w: checksum mismatch", domain.ErrIndexCorrupted)
	}

	scData, err := os.ReadFile(SidecarPath(path))
	if err != nil {
		return nil, fmt.Errorf("%w: missing sidecar: %v", domain.ErrIndexCorrupted, err)
	}
	var sc sidecar
	if err := json.Unmarshal(scData, &sc); err != nil {
		return nil, fmt.Errorf("%w: malformed sidecar: %v", domain.ErrIndexCorrupted, err)
	}
	if sc.SchemaVersion != int(h.SchemaVersion) || sc.Metric != fileMetric ||
		sc.Dimension != int(h.Dimension) || sc.Count != int(h.Count) || len(sc.Chunks) != int(h.Count) {
		return nil, fmt.Errorf("%w: sidecar disagrees with vector file", domain.ErrIndexCorrupted)
	}

	// Compatibility with the running configuration.
	if fileMetric != metric {
		return nil, fmt.Errorf("%w: file metric %s, configured %s",
			domain.ErrIncompatibleIndex, fileMetric, metric)
	}
	if int(h.Dimension) != dimension {
		return nil, fmt.Errorf("%w: file dimension %d, configured %d",
			domain.ErrIncompatibleIndex, h.Dimension, dimension)
	}

	ix := &Index{
		metric:  fileMetric,
		dim:     int(h.Dimension),
		vectors: make([][]float32, h.Count),
		metas:   sc.Chunks,
	}
	for i := range ix.vectors {
		v := make([]float32, h.Dimension)
		for j := range v {
			off := (i*int(h.Dimension) + j) * 4
			v[j] = math.Float32frombits(binary.LittleEndian.Uint32(payload[off:]))
		}
		ix.vectors[i] = v
	}
	return ix, nil
}

// writeAtomic writes data to path via a temporary file and rename.
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
