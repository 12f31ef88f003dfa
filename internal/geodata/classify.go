package geodata

import (
	_ "embed"
	"fmt"
	"math/rand/v2"

	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var tablesYAML []byte

// tagEntry is one deterministic tag mapping. Large, when set, replaces
// Class at size bucket Large and above.
type tagEntry struct {
	Class Classification `yaml:"class"`
	Large Classification `yaml:"large"`
}

// weightedEntry is one (class, weight) pair in a fallback table.
type weightedEntry struct {
	Class  Classification `yaml:"class"`
	Weight int            `yaml:"weight"`
}

type classTables struct {
	Tags     map[string]tagEntry                 `yaml:"tags"`
	Fallback map[string]map[string][]weightedEntry `yaml:"fallback"`
}

var tables = mustLoadTables()

func mustLoadTables() *classTables {
	var t classTables
	if err := yaml.Unmarshal(tablesYAML, &t); err != nil {
		panic(fmt.Sprintf("geodata: embedded classification tables: %v", err))
	}
	for ctx, buckets := range t.Fallback {
		for bucket, entries := range buckets {
			if len(entries) == 0 {
				panic(fmt.Sprintf("geodata: empty fallback table %s/%s", ctx, bucket))
			}
			for _, e := range entries {
				if e.Weight <= 0 {
					panic(fmt.Sprintf("geodata: non-positive weight in %s/%s", ctx, bucket))
				}
			}
		}
	}
	return &t
}

// Classify maps a raw building tag, size bucket, and neighborhood context
// to a scene classification. The tag table is consulted first; when no
// entry matches, a class is drawn from the bucket- and context-specific
// weighted table using the injected random source. Pure for a fixed rng
// stream: identical inputs and seed give identical output.
func Classify(rawTag string, bucket SizeBucket, ctx NeighborhoodContext, rng *rand.Rand) Classification {
	if entry, ok := tables.Tags[rawTag]; ok {
		if entry.Large != "" && bucket >= SizeLarge {
			return entry.Large
		}
		return entry.Class
	}
	return weightedDraw(fallbackTable(bucket, ctx), rng)
}

// fallbackTable selects the weighted table for the given bucket and
// urban/rural context.
func fallbackTable(bucket SizeBucket, ctx NeighborhoodContext) []weightedEntry {
	key := "rural"
	if ctx.Urban {
		key = "urban"
	}
	return tables.Fallback[key][bucket.String()]
}

// weightedDraw picks an entry by drawing a uniform integer in
// [0, totalWeight) and walking cumulative weights.
func weightedDraw(entries []weightedEntry, rng *rand.Rand) Classification {
	total := 0
	for _, e := range entries {
		total += e.Weight
	}
	draw := rng.IntN(total)
	acc := 0
	for _, e := range entries {
		acc += e.Weight
		if draw < acc {
			return e.Class
		}
	}
	return entries[len(entries)-1].Class
}

// ClassifyDataset assigns a classification to every building in the
// dataset using one shared context snapshot and random source.
func ClassifyDataset(ds *Dataset, ctx NeighborhoodContext, rng *rand.Rand) {
	for _, b := range ds.Buildings {
		b.Class = Classify(b.RawTag, b.Bucket, ctx, rng)
	}
}
