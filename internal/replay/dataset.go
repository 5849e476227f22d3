package replay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
)

const (
	// DefaultShardSize is the group size the match recorder writes with.
	DefaultShardSize = 5

	// MetadataFile is the name of the static document in a replay directory.
	MetadataFile = "static.json"

	// CompressedExt marks a zstd-compressed document, e.g. "10.json.zst".
	CompressedExt = ".zst"
)

// Metadata is the part of the static document the loader interprets.
// Everything else in the document is passed through untouched.
type Metadata struct {
	Steps int
}

// Dataset is a fully loaded match replay. It is never mutated after Load
// returns, so it is safe for concurrent readers without locking.
type Dataset struct {
	name    string
	static  json.RawMessage
	dynamic []json.RawMessage
}

// New builds a dataset from payloads already in memory. The slice is copied.
func New(name string, static json.RawMessage, dynamic []json.RawMessage) *Dataset {
	return &Dataset{
		name:    name,
		static:  static,
		dynamic: append([]json.RawMessage(nil), dynamic...),
	}
}

// Load reads the static document and every shard under dir.
// Either the whole match is returned or a *LoadError; partial datasets are
// never exposed.
func Load(dir string, shardSize int, logger *zap.Logger) (*Dataset, error) {
	if shardSize < 1 {
		return nil, fmt.Errorf("load replay: shard size must be >= 1, got %d", shardSize)
	}
	start := time.Now()

	staticPath := filepath.Join(dir, MetadataFile)
	raw, err := ReadDocument(staticPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{Kind: ErrMalformedMetadata, Path: staticPath, Err: err}
		}
		return nil, fmt.Errorf("reading %s: %w", staticPath, err)
	}

	meta, err := ReadMetadata(bytes.NewReader(raw))
	if err != nil {
		return nil, &LoadError{Kind: ErrMalformedMetadata, Path: staticPath, Err: err}
	}

	// steps is untrusted until every shard is read, so dynamic grows by append.
	ds := &Dataset{
		name:   filepath.Base(filepath.Clean(dir)),
		static: json.RawMessage(raw),
	}

	var (
		shard     map[string]json.RawMessage
		shardPath string
		shards    int
	)
	for step := 0; step < meta.Steps; step++ {
		if step%shardSize == 0 {
			shardPath = filepath.Join(dir, ShardName(step))
			shard, err = readShard(shardPath)
			if err != nil {
				if os.IsNotExist(err) {
					return nil, &LoadError{Kind: ErrMissingShard, Path: shardPath, Step: step, Err: err}
				}
				return nil, &LoadError{Kind: ErrMalformedShard, Path: shardPath, Step: step, Err: err}
			}
			shards++
		}

		entry, ok := shard[strconv.Itoa(step)]
		if !ok {
			return nil, &LoadError{Kind: ErrMissingStep, Path: shardPath, Step: step}
		}
		ds.dynamic = append(ds.dynamic, entry)
	}

	if logger != nil {
		logger.Info("replay loaded",
			zap.String("match", ds.name),
			zap.Int("steps", meta.Steps),
			zap.Int("shards", shards),
			zap.Duration("duration", time.Since(start)),
		)
	}

	return ds, nil
}

// ReadMetadata decodes the static document and validates the step count.
func ReadMetadata(r io.Reader) (Metadata, error) {
	var doc struct {
		Steps json.RawMessage `json:"steps"`
	}
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return Metadata{}, fmt.Errorf("decoding metadata: %w", err)
	}
	// The whole document is the static payload, so it must be one JSON value.
	if _, err := dec.Token(); err != io.EOF {
		return Metadata{}, fmt.Errorf("%w: unexpected data after the document", ErrMalformedMetadata)
	}
	if len(doc.Steps) == 0 || string(doc.Steps) == "null" {
		return Metadata{}, fmt.Errorf("%w: steps field is missing", ErrMalformedMetadata)
	}

	steps, err := strconv.ParseInt(string(doc.Steps), 10, 0)
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: steps must be an integer, got %s", ErrMalformedMetadata, doc.Steps)
	}
	if steps < 0 {
		return Metadata{}, fmt.Errorf("%w: steps must be >= 0, got %d", ErrMalformedMetadata, steps)
	}

	return Metadata{Steps: int(steps)}, nil
}

// ShardName returns the file name of the shard starting at step.
func ShardName(start int) string {
	return strconv.Itoa(start) + ".json"
}

// ShardCount returns how many shards a match of the given length needs.
func ShardCount(steps, shardSize int) int {
	if steps <= 0 || shardSize < 1 {
		return 0
	}
	n := steps / shardSize
	if steps%shardSize != 0 {
		n++
	}
	return n
}

// Shards yields the first step of every shard needed for a match of the
// given length, in order.
func Shards(steps, shardSize int) iter.Seq[int] {
	return func(yield func(int) bool) {
		if shardSize < 1 {
			return
		}
		for start := 0; start < steps; start += shardSize {
			if !yield(start) || start > math.MaxInt-shardSize {
				return
			}
		}
	}
}

// Name is the replay directory's base name, used as the match label.
func (d *Dataset) Name() string {
	return d.name
}

// StepCount returns the number of recorded steps.
func (d *Dataset) StepCount() int {
	return len(d.dynamic)
}

// Static returns the static payload sent once to every subscriber.
func (d *Dataset) Static() json.RawMessage {
	return d.static
}

// Snapshot returns the dynamic payload for a step.
func (d *Dataset) Snapshot(step int) (json.RawMessage, error) {
	if step < 0 || step >= len(d.dynamic) {
		return nil, fmt.Errorf("%w: %d (steps %d)", ErrStepOutOfRange, step, len(d.dynamic))
	}
	return d.dynamic[step], nil
}

func readShard(path string) (map[string]json.RawMessage, error) {
	raw, err := ReadDocument(path)
	if err != nil {
		return nil, err
	}
	var shard map[string]json.RawMessage
	if err := json.Unmarshal(raw, &shard); err != nil {
		return nil, fmt.Errorf("decoding shard: %w", err)
	}
	return shard, nil
}

// ReadDocument reads path, falling back to a zstd-compressed sibling when the
// plain file does not exist. The returned error satisfies os.IsNotExist only
// when neither variant is present.
func ReadDocument(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err == nil {
		return raw, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	compressed, zerr := os.ReadFile(path + CompressedExt)
	if zerr != nil {
		if os.IsNotExist(zerr) {
			return nil, err
		}
		return nil, zerr
	}

	dec, zerr := zstd.NewReader(nil)
	if zerr != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", zerr)
	}
	defer dec.Close()

	out, zerr := dec.DecodeAll(compressed, nil)
	if zerr != nil {
		return nil, fmt.Errorf("decompress %s: %w", path+CompressedExt, zerr)
	}
	return out, nil
}
