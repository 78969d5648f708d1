// Package flat provides an exact inner-product vector index.
//
// Vectors live in one contiguous arena and are addressed by their insertion
// position. Search scans every vector, so results are exact; for a corpus of
// a few thousand games at 256 dimensions a scan is well under a millisecond.
package flat

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/cyoasearch/cyoasearch/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// magic identifies a serialised flat index.
var magic = [4]byte{'C', 'Y', 'F', 'I'}

const formatVersion uint32 = 1

// ErrDimensionMismatch is returned when a vector does not match the index dimension.
var ErrDimensionMismatch = errors.New("flat: dimension mismatch")

// ErrOutOfRange is returned when an id is not in the index.
var ErrOutOfRange = errors.New("flat: id out of range")

// Index is an append-only arena of vectors searched by inner product.
// It is safe for concurrent readers; Add and UnmarshalBinary take a write lock.
type Index struct {
	mu   sync.RWMutex
	dim  int
	data []float32
}

// New creates an empty index for vectors of the given dimension.
// A zero dimension is fixed by the first Add.
func New(dim int) *Index {
	return &Index{dim: dim}
}

// Add appends vectors and returns the id of the first one.
func (x *Index) Add(vectors [][]float32) (int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	first := x.count()
	if len(vectors) == 0 {
		return first, nil
	}

	dim := x.dim
	if dim == 0 {
		dim = len(vectors[0])
	}
	if dim == 0 {
		return first, fmt.Errorf("%w: empty vector", ErrDimensionMismatch)
	}
	for i, v := range vectors {
		if len(v) != dim {
			return first, fmt.Errorf("%w: vector %d has %d values, want %d", ErrDimensionMismatch, i, len(v), dim)
		}
	}

	x.dim = dim
	for _, v := range vectors {
		x.data = append(x.data, v...)
	}
	return first, nil
}

// Search returns the k vectors with the highest inner product with query.
// Ties keep insertion order.
func (x *Index) Search(query []float32, k int) ([]driven.VectorHit, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	n := x.count()
	if n == 0 || k <= 0 {
		return nil, nil
	}
	if len(query) != x.dim {
		return nil, fmt.Errorf("%w: query has %d values, want %d", ErrDimensionMismatch, len(query), x.dim)
	}

	hits := make([]driven.VectorHit, n)
	for id := 0; id < n; id++ {
		hits[id] = driven.VectorHit{ID: id, Similarity: dot(query, x.row(id))}
	}
	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Similarity > hits[b].Similarity
	})
	if k < n {
		hits = hits[:k]
	}
	return hits, nil
}

// Reconstruct returns a copy of the vector stored at id.
func (x *Index) Reconstruct(id int) ([]float32, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if id < 0 || id >= x.count() {
		return nil, fmt.Errorf("%w: %d", ErrOutOfRange, id)
	}
	return append([]float32(nil), x.row(id)...), nil
}

// Count returns the number of stored vectors.
func (x *Index) Count() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.count()
}

// Dimension returns the vector size.
func (x *Index) Dimension() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.dim
}

// MarshalBinary stores: magic, version(uint32), dim(uint32), n(uint32),
// then n*dim little-endian float32 values.
func (x *Index) MarshalBinary() ([]byte, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var buf bytes.Buffer
	buf.Grow(16 + 4*len(x.data))
	buf.Write(magic[:])
	header := []uint32{formatVersion, uint32(x.dim), uint32(x.count())}
	if err := binary.Write(&buf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("flat: writing header: %w", err)
	}
	if err := binary.Write(&buf, binary.LittleEndian, x.data); err != nil {
		return nil, fmt.Errorf("flat: writing vectors: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary replaces the index contents with a serialised index.
func (x *Index) UnmarshalBinary(data []byte) error {
	if len(data) < 16 || !bytes.Equal(data[:4], magic[:]) {
		return errors.New("flat: not a flat index")
	}
	r := bytes.NewReader(data[4:])
	var header [3]uint32
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("flat: reading header: %w", err)
	}
	if header[0] != formatVersion {
		return fmt.Errorf("flat: unsupported format version %d", header[0])
	}
	dim, n := int(header[1]), int(header[2])
	if r.Len() != 4*dim*n {
		return fmt.Errorf("flat: truncated data: have %d bytes, want %d", r.Len(), 4*dim*n)
	}
	values := make([]float32, dim*n)
	if err := binary.Read(r, binary.LittleEndian, values); err != nil {
		return fmt.Errorf("flat: reading vectors: %w", err)
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	x.dim = dim
	x.data = values
	return nil
}

func (x *Index) count() int {
	if x.dim == 0 {
		return 0
	}
	return len(x.data) / x.dim
}

func (x *Index) row(id int) []float32 {
	return x.data[id*x.dim : (id+1)*x.dim]
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

// Norm returns the L2 norm of v.
func Norm(v []float32) float64 {
	return math.Sqrt(dot(v, v))
}
