// Package indexfile persists the index pair as two files in one directory:
// the vector index blob (games.index) and the chunk metadata (chunk_map.json).
// A manifest written after both records which pair belongs together.
package indexfile

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/cyoasearch/cyoasearch/internal/core/domain"
	"github.com/cyoasearch/cyoasearch/internal/core/ports/driven"
	"github.com/cyoasearch/cyoasearch/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.IndexPairStore = (*Store)(nil)

// File names inside the index directory.
const (
	IndexFile    = "games.index"
	ChunkMapFile = "chunk_map.json"
	ManifestFile = "manifest.json"
	LockFile     = "build.lock"
)

// manifest ties one saved generation of the pair together. Load checks the
// bytes it read against these digests, so a reader that lands between the
// renames of a save sees a mismatch instead of a mixed pair.
type manifest struct {
	Generation     string    `json:"generation"`
	Vectors        int       `json:"vectors"`
	IndexSHA256    string    `json:"index_sha256"`
	ChunkMapSHA256 string    `json:"chunk_map_sha256"`
	SavedAt        time.Time `json:"saved_at"`
}

// chunkEntry is the on-disk form of domain.ChunkMeta.
type chunkEntry struct {
	GameID  string       `json:"game_id"`
	Type    domain.Facet `json:"type"`
	Snippet string       `json:"text_snippet"`
}

// Store reads and writes the index pair in a directory.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir, creating the directory if needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("indexfile: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the index directory.
func (s *Store) Dir() string {
	return s.dir
}

// Exists reports whether both files of the pair are present.
func (s *Store) Exists() bool {
	for _, name := range []string{IndexFile, ChunkMapFile} {
		if _, err := os.Stat(filepath.Join(s.dir, name)); err != nil {
			return false
		}
	}
	return true
}

// Load reads the pair. The metadata must describe exactly the loaded vectors.
func (s *Store) Load(vectors driven.VectorIndex) (domain.ChunkMap, error) {
	if !s.Exists() {
		return nil, domain.ErrIndexUnavailable
	}

	blob, err := os.ReadFile(filepath.Join(s.dir, IndexFile))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", IndexFile, err)
	}
	if err := vectors.UnmarshalBinary(blob); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrCorruptIndex, IndexFile, err)
	}

	raw, err := os.ReadFile(filepath.Join(s.dir, ChunkMapFile))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", ChunkMapFile, err)
	}
	chunks, err := decodeChunkMap(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrCorruptIndex, ChunkMapFile, err)
	}

	if !chunks.Dense(vectors.Count()) {
		return nil, fmt.Errorf("%w: %d metadata entries for %d vectors",
			domain.ErrCorruptIndex, len(chunks), vectors.Count())
	}
	if err := s.checkManifest(blob, raw); err != nil {
		return nil, err
	}
	return chunks, nil
}

// checkManifest verifies that blob and raw come from the same save. A pair
// written before manifests existed has none and is accepted as is.
func (s *Store) checkManifest(blob, raw []byte) error {
	data, err := os.ReadFile(filepath.Join(s.dir, ManifestFile))
	if errors.Is(err, os.ErrNotExist) {
		logger.Debug("No %s in %s, skipping pair check", ManifestFile, s.dir)
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", ManifestFile, err)
	}

	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrCorruptIndex, ManifestFile, err)
	}
	if m.IndexSHA256 != digest(blob) || m.ChunkMapSHA256 != digest(raw) {
		return fmt.Errorf("%w: %s and %s are not from generation %s",
			domain.ErrCorruptIndex, IndexFile, ChunkMapFile, m.Generation)
	}
	return nil
}

// Save writes both files through temporary files and renames them into
// place, then writes the manifest naming the new generation. Until the
// manifest lands, Load rejects the half-replaced pair.
func (s *Store) Save(vectors driven.VectorIndex, chunks domain.ChunkMap) error {
	if !chunks.Dense(vectors.Count()) {
		return fmt.Errorf("%w: refusing to save %d metadata entries for %d vectors",
			domain.ErrCorruptIndex, len(chunks), vectors.Count())
	}

	blob, err := vectors.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encoding vectors: %w", err)
	}
	raw, err := encodeChunkMap(chunks)
	if err != nil {
		return fmt.Errorf("encoding chunk map: %w", err)
	}

	m, err := json.MarshalIndent(manifest{
		Generation:     uuid.NewString(),
		Vectors:        vectors.Count(),
		IndexSHA256:    digest(blob),
		ChunkMapSHA256: digest(raw),
		SavedAt:        time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}

	if err := writeFileAtomic(filepath.Join(s.dir, ChunkMapFile), raw); err != nil {
		return err
	}
	if err := writeFileAtomic(filepath.Join(s.dir, IndexFile), blob); err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(s.dir, ManifestFile), m)
}

func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Lock creates the lock file exclusively. A lock left behind by a crashed
// build must be removed by hand.
func (s *Store) Lock(_ context.Context) (func() error, error) {
	path := filepath.Join(s.dir, LockFile)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("%w: lock file %s exists", domain.ErrBuildInProgress, path)
		}
		return nil, fmt.Errorf("creating lock file: %w", err)
	}
	fmt.Fprintf(f, "pid=%d started=%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
	if err := f.Close(); err != nil {
		os.Remove(path) //nolint:errcheck
		return nil, fmt.Errorf("writing lock file: %w", err)
	}

	return func() error {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing lock file: %w", err)
		}
		return nil
	}, nil
}

// encodeChunkMap converts integer ids to string keys for JSON.
func encodeChunkMap(chunks domain.ChunkMap) ([]byte, error) {
	out := make(map[string]chunkEntry, len(chunks))
	for id, meta := range chunks {
		out[strconv.Itoa(id)] = chunkEntry{GameID: meta.GameID, Type: meta.Facet, Snippet: meta.Snippet}
	}
	return json.MarshalIndent(out, "", "  ")
}

// decodeChunkMap parses string keys back into integer ids.
func decodeChunkMap(raw []byte) (domain.ChunkMap, error) {
	var in map[string]chunkEntry
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, err
	}
	chunks := make(domain.ChunkMap, len(in))
	for key, entry := range in {
		id, err := strconv.Atoi(key)
		if err != nil || id < 0 {
			return nil, fmt.Errorf("invalid vector id %q", key)
		}
		if !entry.Type.IsValid() {
			return nil, fmt.Errorf("vector %d: invalid type %q", id, entry.Type)
		}
		chunks[id] = domain.ChunkMeta{GameID: entry.GameID, Facet: entry.Type, Snippet: entry.Snippet}
	}
	return chunks, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", filepath.Base(path), err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", filepath.Base(path), err)
	}
	return nil
}
