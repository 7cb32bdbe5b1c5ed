package health

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/classify"
	"github.com/Prajwal18py/SMART-CSV-HEALTH-CHECKER/internal/dataset"
)

// cacheKey combines the dataset fingerprint with everything else that
// changes the result.
func cacheKey(ds *dataset.Dataset, cls *classify.Classification, opts Options) string {
	b, _ := json.Marshal(struct {
		Classification *classify.Classification
		Options        Options
	}{cls, opts})
	sum := sha256.Sum256(b)
	return "result:" + dataset.Fingerprint(ds) + ":" + hex.EncodeToString(sum[:8])
}

// lookup returns a cached result or nil. Cache failures are logged only.
func (a *Analyzer) lookup(ctx context.Context, key string) *Result {
	b, ok, err := a.cache.Get(ctx, key)
	if err != nil {
		a.metrics.CacheLookup("error")
		a.log.WithField("error", err.Error()).Warn("cache lookup failed")
		return nil
	}
	if !ok {
		a.metrics.CacheLookup("miss")
		return nil
	}
	var res Result
	if err := json.Unmarshal(b, &res); err != nil {
		a.metrics.CacheLookup("error")
		a.log.WithField("error", err.Error()).Warn("discarding unreadable cache entry")
		return nil
	}
	a.metrics.CacheLookup("hit")
	return &res
}

func (a *Analyzer) store(ctx context.Context, key string, res *Result) {
	b, err := json.Marshal(res)
	if err == nil {
		err = a.cache.Set(ctx, key, b, a.cacheTTL)
	}
	if err != nil {
		a.log.WithField("error", err.Error()).Warn("cache store failed")
	}
}
