package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/anomaly"
	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/cache"
	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/classify"
	cfgpkg "github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/config"
	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/dataset"
	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/health"
	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/impute"
	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/metrics"
)

// inputFlags controls how a file is read.
type inputFlags struct {
	delimiter  string
	decimal    string
	thousands  string
	maxRows    int
	sheetName  string
	sheetIndex int
	sample     bool
}

func (f *inputFlags) register(c *cobra.Command) {
	fs := c.Flags()
	fs.StringVar(&f.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (from extension if omitted)")
	fs.StringVar(&f.decimal, "decimal", "", "decimal separator for numbers: '.'|'comma' (auto-detect if omitted)")
	fs.StringVar(&f.thousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space' (auto-detect if omitted)")
	fs.IntVar(&f.maxRows, "max-rows", 0, "maximum rows to read (0 = unlimited, overrides config)")
	fs.StringVar(&f.sheetName, "sheet-name", "", "XLSX: sheet name to analyze")
	fs.IntVar(&f.sheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	fs.BoolVar(&f.sample, "sample", false, "sample large datasets (above sample_threshold rows) before analysis")
}

func (f *inputFlags) loadOptions(cmd *cobra.Command, c *cfgpkg.Global) (dataset.LoadOptions, error) {
	opt := dataset.LoadOptions{MaxRows: c.MaxRows, SheetName: f.sheetName, SheetIndex: f.sheetIndex}
	if cmd.Flags().Changed("max-rows") {
		opt.MaxRows = f.maxRows
	}
	switch f.delimiter {
	case "":
	case ",":
		opt.Delimiter = ','
	case "\t", "tab":
		opt.Delimiter = '\t'
	case ";":
		opt.Delimiter = ';'
	case "|", "pipe":
		opt.Delimiter = '|'
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", f.delimiter)
	}
	// Locale separators
	switch strings.ToLower(strings.TrimSpace(f.decimal)) {
	case ",", "comma":
		opt.DecimalSeparator = ','
	case ".", "dot":
		opt.DecimalSeparator = '.'
	case "":
	default:
		return opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", f.decimal)
	}
	switch strings.ToLower(strings.TrimSpace(f.thousands)) {
	case ",":
		opt.ThousandsSeparator = ','
	case ".":
		opt.ThousandsSeparator = '.'
	case "space", " ":
		opt.ThousandsSeparator = ' '
	case "":
	default:
		return opt, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", f.thousands)
	}
	return opt, nil
}

// load reads path and, when sampling is enabled, reduces large datasets.
func (f *inputFlags) load(cmd *cobra.Command, c *cfgpkg.Global, path string) (*dataset.Dataset, error) {
	opt, err := f.loadOptions(cmd, c)
	if err != nil {
		return nil, err
	}
	ds, err := dataset.LoadFile(path, opt)
	if err != nil {
		return nil, err
	}
	if f.sample || c.Sample {
		rows := ds.Rows()
		if sampled, ok := dataset.Sample(ds, c.SampleThreshold, c.SampleFraction, c.Seed); ok {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Sampled %d of %d rows from %s\n", sampled.Rows(), rows, ds.Name)
			ds = sampled
		}
	}
	return ds, nil
}

// analysisFlags tunes the model stages.
type analysisFlags struct {
	sensitivity   string
	contamination float64
	imputation    string
	seed          int64
	trees         int
	cacheBackend  string
}

func (f *analysisFlags) register(c *cobra.Command) {
	fs := c.Flags()
	fs.StringVar(&f.sensitivity, "sensitivity", "", "anomaly sensitivity: low|medium|high (overrides config)")
	fs.Float64Var(&f.contamination, "contamination", 0, "expected anomaly fraction in (0, 0.5]; takes precedence over --sensitivity")
	fs.StringVar(&f.imputation, "imputation", "", "imputation before modelling: drop|mean|iterative (overrides config)")
	fs.Int64Var(&f.seed, "seed", 0, "random seed for the isolation forest (overrides config)")
	fs.IntVar(&f.trees, "trees", 0, "number of isolation trees (overrides config)")
	fs.StringVar(&f.cacheBackend, "cache", "", "result cache backend: none|memory|badger|redis (overrides config)")
}

func (f *analysisFlags) options(cmd *cobra.Command, c *cfgpkg.Global) (health.Options, error) {
	fl := cmd.Flags()
	opt := health.DefaultOptions()

	sensitivity := c.Sensitivity
	if fl.Changed("sensitivity") {
		sensitivity = f.sensitivity
	}
	contamination := c.Contamination
	if fl.Changed("contamination") {
		contamination = f.contamination
	}
	if contamination == 0 {
		v, err := anomaly.Sensitivity(sensitivity)
		if err != nil {
			return opt, err
		}
		contamination = v
	}
	opt.Contamination = contamination

	mode := c.Imputation
	if fl.Changed("imputation") {
		mode = f.imputation
	}
	m, err := impute.ParseMode(mode)
	if err != nil {
		return opt, err
	}
	opt.Imputation = m

	opt.Seed = c.Seed
	if fl.Changed("seed") {
		opt.Seed = f.seed
	}
	opt.Trees = c.Trees
	if fl.Changed("trees") {
		opt.Trees = f.trees
	}
	opt.MaxSamples = c.MaxSamples
	opt.ImputeMaxIter = c.ImputeMaxIter
	opt.ImputeTol = c.ImputeTol
	return opt, nil
}

// session bundles the analyzer with the resources it holds.
type session struct {
	log      *logrus.Logger
	analyzer *health.Analyzer
	store    cache.Store
	metrics  *metrics.Recorder
	metricsF string
}

func openSession(ctx context.Context, c *cfgpkg.Global, backend string) (*session, error) {
	s := &session{log: newLogger(c), metricsF: c.MetricsFile}
	var opts []health.Option

	if backend == "" {
		backend = c.CacheBackend
	}
	store, err := openCache(ctx, c, backend, s.log)
	if err != nil {
		return nil, err
	}
	if store != nil {
		s.store = store
		opts = append(opts, health.WithCache(store, time.Duration(c.CacheTTLSec)*time.Second))
	}
	if s.metricsF != "" {
		r, err := metrics.New()
		if err != nil {
			s.Close()
			return nil, err
		}
		s.metrics = r
		opts = append(opts, health.WithMetrics(r))
	}
	s.analyzer = health.New(s.log, opts...)
	return s, nil
}

func openCache(ctx context.Context, c *cfgpkg.Global, backend string, log logrus.FieldLogger) (cache.Store, error) {
	store, err := cache.Open(ctx, cache.Config{
		Backend:       backend,
		Dir:           c.CacheDir,
		RedisAddr:     c.RedisAddr,
		RedisPassword: c.RedisPassword,
		RedisDB:       c.RedisDB,
		RedisPrefix:   c.RedisPrefix,
		Logger:        log,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s cache: %w", backend, err)
	}
	return store, nil
}

// analyze classifies ds and runs the pipeline on the typed copy.
func (s *session) analyze(ctx context.Context, ds *dataset.Dataset, opt health.Options) (*health.Result, *dataset.Dataset, error) {
	cls, typed := classify.Classify(ds)
	res, err := s.analyzer.Analyze(ctx, typed, cls, opt)
	if err != nil {
		return nil, nil, err
	}
	return res, typed, nil
}

// Close releases the cache and flushes metrics. Errors are reported, not returned.
func (s *session) Close() {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "⚠ Warning: close cache: %v\n", err)
		}
	}
	if s.metrics != nil && s.metricsF != "" {
		if err := s.metrics.WriteTextfile(s.metricsF); err != nil {
			fmt.Fprintf(os.Stderr, "⚠ Warning: write metrics: %v\n", err)
		} else {
			s.log.WithField("path", s.metricsF).Debug("metrics written")
		}
	}
}
