package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/cyoasearch/cyoasearch/internal/core/domain"
)

// DefaultFileName is the config file looked up in the working directory.
const DefaultFileName = "cyoasearch.toml"

// Environment variables that override file values.
const (
	EnvGoogleAPIKey = "GOOGLE_API_KEY"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	EnvProvider     = "CYOA_EMBEDDING_PROVIDER"
	EnvDataDir      = "CYOA_DATA_DIR"
	EnvDatabase     = "CYOA_DB"
	EnvIndexDir     = "CYOA_INDEX_DIR"
	EnvAddr         = "CYOA_ADDR"
	EnvQueryLog     = "CYOA_QUERY_LOG"
	EnvWorkers      = "CYOA_WORKERS"
)

// fileSettings mirrors domain.Settings in its on-disk shape.
// Durations are strings ("3s") and unset fields stay nil so defaults survive.
type fileSettings struct {
	DataDir   *string        `toml:"data_dir,omitempty"`
	Database  *string        `toml:"database,omitempty"`
	Embedding *embeddingFile `toml:"embedding,omitempty"`
	Index     *indexFile     `toml:"index,omitempty"`
	Search    *searchFile    `toml:"search,omitempty"`
	Server    *serverFile    `toml:"server,omitempty"`
}

type embeddingFile struct {
	Provider          *string  `toml:"provider,omitempty"`
	Model             *string  `toml:"model,omitempty"`
	BaseURL           *string  `toml:"base_url,omitempty"`
	APIKey            *string  `toml:"api_key,omitempty"`
	Dimensions        *int     `toml:"dimensions,omitempty"`
	Timeout           *string  `toml:"timeout,omitempty"`
	RequestsPerSecond *float64 `toml:"requests_per_second,omitempty"`
}

type indexFile struct {
	Dir          *string `toml:"dir,omitempty"`
	ChunkSize    *int    `toml:"chunk_size,omitempty"`
	ChunkOverlap *int    `toml:"chunk_overlap,omitempty"`
	BatchSize    *int    `toml:"batch_size,omitempty"`
	MaxRetries   *int    `toml:"max_retries,omitempty"`
	RetryBackoff *string `toml:"retry_backoff,omitempty"`
	BatchDelay   *string `toml:"batch_delay,omitempty"`
	Workers      *int    `toml:"workers,omitempty"`
}

type searchFile struct {
	K           *int         `toml:"k,omitempty"`
	Threshold   *float64     `toml:"threshold,omitempty"`
	Limit       *int         `toml:"limit,omitempty"`
	BaseGameURL *string      `toml:"base_game_url,omitempty"`
	Ranking     *rankingFile `toml:"ranking,omitempty"`
}

type rankingFile struct {
	SummaryWeight *float64 `toml:"summary_weight,omitempty"`
	TextWeight    *float64 `toml:"text_weight,omitempty"`
	Decay         *float64 `toml:"decay,omitempty"`
	Divisor       *float64 `toml:"divisor,omitempty"`
}

type serverFile struct {
	Addr            *string `toml:"addr,omitempty"`
	QueryLog        *string `toml:"query_log,omitempty"`
	ReindexInterval *string `toml:"reindex_interval,omitempty"`
}

// Loader reads settings from a TOML file. It caches the last result so
// repeated Load calls from a file watcher only re-read on demand.
type Loader struct {
	mu      sync.RWMutex
	path    string
	lookup  func(string) (string, bool)
	current *domain.Settings
}

// NewLoader creates a loader for path. Empty path means DefaultFileName.
func NewLoader(path string) *Loader {
	if path == "" {
		path = DefaultFileName
	}
	return &Loader{path: path, lookup: os.LookupEnv}
}

// Path returns the configuration file path.
func (l *Loader) Path() string {
	return l.path
}

// Load reads the file, applies environment overrides and validates the result.
func (l *Loader) Load() (domain.Settings, error) {
	settings := domain.DefaultSettings()

	data, err := os.ReadFile(l.path)
	switch {
	case err == nil:
		if err := decode(data, &settings); err != nil {
			return domain.Settings{}, fmt.Errorf("config %s: %w", l.path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// No config file yet; defaults plus environment.
	default:
		return domain.Settings{}, fmt.Errorf("reading config: %w", err)
	}

	if err := applyEnv(&settings, l.lookup); err != nil {
		return domain.Settings{}, err
	}

	if problems := settings.Validate(); len(problems) > 0 {
		errs := make([]error, len(problems))
		for i, p := range problems {
			errs[i] = p
		}
		return domain.Settings{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, errors.Join(errs...))
	}

	l.mu.Lock()
	l.current = &settings
	l.mu.Unlock()
	return settings, nil
}

// Current returns the last successfully loaded settings, loading them if needed.
func (l *Loader) Current() (domain.Settings, error) {
	l.mu.RLock()
	cur := l.current
	l.mu.RUnlock()
	if cur != nil {
		return *cur, nil
	}
	return l.Load()
}

// WriteDefault writes the default settings to path as TOML.
// It refuses to overwrite an existing file.
func WriteDefault(path string) error {
	if path == "" {
		path = DefaultFileName
	}
	d := domain.DefaultSettings()
	out := fileSettings{
		DataDir: &d.DataDir,
		Embedding: &embeddingFile{
			Provider:   ptr(d.Embedding.Provider.String()),
			Model:      &d.Embedding.Model,
			Dimensions: &d.Embedding.Dimensions,
			Timeout:    ptr(d.Embedding.Timeout.String()),
		},
		Index: &indexFile{
			ChunkSize:    &d.Index.ChunkSize,
			ChunkOverlap: &d.Index.ChunkOverlap,
			BatchSize:    &d.Index.BatchSize,
			MaxRetries:   &d.Index.MaxRetries,
			RetryBackoff: ptr(d.Index.RetryBackoff.String()),
			BatchDelay:   ptr(d.Index.BatchDelay.String()),
			Workers:      &d.Index.Workers,
		},
		Search: &searchFile{
			K:           &d.Search.K,
			Threshold:   &d.Search.Threshold,
			Limit:       &d.Search.Limit,
			BaseGameURL: &d.Search.BaseGameURL,
			Ranking: &rankingFile{
				SummaryWeight: &d.Search.Ranking.SummaryWeight,
				TextWeight:    &d.Search.Ranking.TextWeight,
				Decay:         &d.Search.Ranking.Decay,
				Divisor:       &d.Search.Ranking.Divisor,
			},
		},
		Server: &serverFile{Addr: &d.Server.Addr},
	}

	data, err := toml.Marshal(out)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func decode(data []byte, s *domain.Settings) error {
	var f fileSettings
	if err := toml.Unmarshal(data, &f); err != nil {
		return err
	}

	setString(&s.DataDir, f.DataDir)
	setString(&s.DatabasePath, f.Database)

	if e := f.Embedding; e != nil {
		if e.Provider != nil {
			s.Embedding.Provider = domain.AIProvider(*e.Provider)
			// A provider switch without a model picks that provider's default.
			if e.Model == nil {
				s.Embedding.Model = domain.DefaultEmbeddingModels()[s.Embedding.Provider]
			}
		}
		setString(&s.Embedding.Model, e.Model)
		setString(&s.Embedding.BaseURL, e.BaseURL)
		setString(&s.Embedding.APIKey, e.APIKey)
		setInt(&s.Embedding.Dimensions, e.Dimensions)
		setFloat(&s.Embedding.RequestsPerSecond, e.RequestsPerSecond)
		if err := setDuration(&s.Embedding.Timeout, e.Timeout, "embedding.timeout"); err != nil {
			return err
		}
	}

	if i := f.Index; i != nil {
		setString(&s.Index.Dir, i.Dir)
		setInt(&s.Index.ChunkSize, i.ChunkSize)
		setInt(&s.Index.ChunkOverlap, i.ChunkOverlap)
		setInt(&s.Index.BatchSize, i.BatchSize)
		setInt(&s.Index.MaxRetries, i.MaxRetries)
		setInt(&s.Index.Workers, i.Workers)
		if err := setDuration(&s.Index.RetryBackoff, i.RetryBackoff, "index.retry_backoff"); err != nil {
			return err
		}
		if err := setDuration(&s.Index.BatchDelay, i.BatchDelay, "index.batch_delay"); err != nil {
			return err
		}
	}

	if q := f.Search; q != nil {
		setInt(&s.Search.K, q.K)
		setFloat(&s.Search.Threshold, q.Threshold)
		setInt(&s.Search.Limit, q.Limit)
		setString(&s.Search.BaseGameURL, q.BaseGameURL)
		if r := q.Ranking; r != nil {
			setFloat(&s.Search.Ranking.SummaryWeight, r.SummaryWeight)
			setFloat(&s.Search.Ranking.TextWeight, r.TextWeight)
			setFloat(&s.Search.Ranking.Decay, r.Decay)
			setFloat(&s.Search.Ranking.Divisor, r.Divisor)
		}
	}

	if v := f.Server; v != nil {
		setString(&s.Server.Addr, v.Addr)
		setString(&s.Server.QueryLog, v.QueryLog)
		if err := setDuration(&s.Server.ReindexInterval, v.ReindexInterval, "server.reindex_interval"); err != nil {
			return err
		}
	}
	return nil
}

// applyEnv overrides settings from the environment. The provider API key
// variable is only consulted when the file did not set a key.
func applyEnv(s *domain.Settings, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvProvider); ok && v != "" {
		s.Embedding.Provider = domain.AIProvider(v)
		s.Embedding.Model = domain.DefaultEmbeddingModels()[s.Embedding.Provider]
	}
	if s.Embedding.APIKey == "" {
		switch s.Embedding.Provider {
		case domain.AIProviderGemini:
			s.Embedding.APIKey, _ = lookup(EnvGoogleAPIKey)
		case domain.AIProviderOpenAI:
			s.Embedding.APIKey, _ = lookup(EnvOpenAIAPIKey)
		}
	}

	for env, dst := range map[string]*string{
		EnvDataDir:  &s.DataDir,
		EnvDatabase: &s.DatabasePath,
		EnvIndexDir: &s.Index.Dir,
		EnvAddr:     &s.Server.Addr,
		EnvQueryLog: &s.Server.QueryLog,
	} {
		if v, ok := lookup(env); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup(EnvWorkers); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, EnvWorkers, err)
		}
		s.Index.Workers = n
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *string, field string) error {
	if v == nil {
		return nil
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	*dst = d
	return nil
}

func ptr[T any](v T) *T {
	return &v
}
