package localembed

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"go.etcd.io/bbolt"

	"github.com/formbricks/insights/internal/insighterrors"
)

var (
	bucketMeta  = []byte("meta")
	bucketTerms = []byte("terms")
	keyMeta     = []byte("model")
)

const formatVersion = 1

// ErrCorruptModel is returned when a model file is missing buckets or has malformed entries.
var ErrCorruptModel = errors.New("localembed: corrupt model file")

type modelMeta struct {
	Version    int       `json:"version"`
	Documents  int       `json:"documents"`
	Dimensions int       `json:"dimensions"`
	CreatedAt  time.Time `json:"created_at"`
}

// termValue packs a term's index and IDF: 4 bytes big-endian index + 8 bytes float64 bits.
func termValue(index int, idf float64) []byte {
	buf := make([]byte, 12)
	//nolint:gosec // G115: vocabulary size is bounded by max features
	binary.BigEndian.PutUint32(buf[:4], uint32(index))
	binary.BigEndian.PutUint64(buf[4:], math.Float64bits(idf))

	return buf
}

// Save writes m to a bbolt file at path, replacing any previous model in it.
func Save(path string, m *Model) error {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return fmt.Errorf("open model file: %w", err)
	}
	defer db.Close()

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketMeta, bucketTerms} {
			if tx.Bucket(name) != nil {
				if err := tx.DeleteBucket(name); err != nil {
					return err
				}
			}
		}

		meta, err := tx.CreateBucket(bucketMeta)
		if err != nil {
			return err
		}

		terms, err := tx.CreateBucket(bucketTerms)
		if err != nil {
			return err
		}

		data, err := json.Marshal(modelMeta{
			Version:    formatVersion,
			Documents:  m.Documents,
			Dimensions: m.Dimensions(),
			CreatedAt:  time.Now().UTC(),
		})
		if err != nil {
			return err
		}

		if err := meta.Put(keyMeta, data); err != nil {
			return err
		}

		for term, idx := range m.Vocabulary {
			if err := terms.Put([]byte(term), termValue(idx, m.IDF[idx])); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("write model: %w", err)
	}

	return nil
}

// Load reads a model written by Save. A missing file is an insighterrors.NotFoundError.
func Load(path string) (*Model, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, insighterrors.NewNotFoundError("embedding model", "embedding model file not found: "+path)
		}

		return nil, fmt.Errorf("stat model file: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("open model file: %w", err)
	}
	defer db.Close()

	var m *Model

	err = db.View(func(tx *bbolt.Tx) error {
		metaBucket, termsBucket := tx.Bucket(bucketMeta), tx.Bucket(bucketTerms)
		if metaBucket == nil || termsBucket == nil {
			return fmt.Errorf("%w: missing buckets", ErrCorruptModel)
		}

		var meta modelMeta
		if err := json.Unmarshal(metaBucket.Get(keyMeta), &meta); err != nil {
			return fmt.Errorf("%w: meta: %w", ErrCorruptModel, err)
		}

		if meta.Version != formatVersion {
			return fmt.Errorf("%w: unsupported version %d", ErrCorruptModel, meta.Version)
		}

		m = &Model{
			Vocabulary: make(map[string]int, meta.Dimensions),
			IDF:        make([]float64, meta.Dimensions),
			Documents:  meta.Documents,
		}

		return termsBucket.ForEach(func(k, v []byte) error {
			if len(v) != 12 {
				return fmt.Errorf("%w: term %q", ErrCorruptModel, k)
			}

			idx := int(binary.BigEndian.Uint32(v[:4]))
			if idx >= meta.Dimensions {
				return fmt.Errorf("%w: term %q index %d", ErrCorruptModel, k, idx)
			}

			m.Vocabulary[string(k)] = idx
			m.IDF[idx] = math.Float64frombits(binary.BigEndian.Uint64(v[4:]))

			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if len(m.Vocabulary) != m.Dimensions() {
		return nil, fmt.Errorf("%w: %d terms for %d dimensions", ErrCorruptModel, len(m.Vocabulary), m.Dimensions())
	}

	return m, nil
}
