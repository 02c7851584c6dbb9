package consonance

import (
	"math"
	"sort"
	"sync"

	"github.com/lixenwraith/sonify/constant"
	"github.com/lixenwraith/sonify/timbre"
)

// Ranking is the 12 chromatic semitone offsets ordered most → least consonant
type Ranking [12]int

// StaticRanking is the precomputed ordering used in performance mode
var StaticRanking = Ranking{0, 7, 5, 4, 9, 3, 8, 2, 10, 6, 11, 1}

// Query describes the tone a ranking is computed for
type Query struct {
	BaseFrequency   float64
	Brightness      float64
	Harmonics       int
	PerformanceMode bool
}

type rankKey struct {
	freq       int64 // 0.1 Hz
	brightness int64 // 0.001
	harmonics  int
}

// Ranker scores intervals and memoizes rankings in a bounded FIFO cache
type Ranker struct {
	mu       sync.Mutex
	capacity int
	entries  map[rankKey]Ranking
	order    []rankKey // insertion order, oldest first
}

// NewRanker creates a ranker with the given cache bound, non-positive uses the default
func NewRanker(capacity int) *Ranker {
	if capacity <= 0 {
		capacity = constant.RankingCacheSize
	}
	return &Ranker{
		capacity: capacity,
		entries:  make(map[rankKey]Ranking, capacity),
		order:    make([]rankKey, 0, capacity),
	}
}

// Rank returns the consonance ordering for the query
func (r *Ranker) Rank(q Query) Ranking {
	if q.PerformanceMode {
		return StaticRanking
	}

	harmonics := timbre.CapHarmonics(q.Harmonics)
	key := rankKey{
		freq:       int64(math.Round(q.BaseFrequency * 10)),
		brightness: int64(math.Round(q.Brightness * 1000)),
		harmonics:  harmonics,
	}

	r.mu.Lock()
	if cached, ok := r.entries[key]; ok {
		r.mu.Unlock()
		return cached
	}
	r.mu.Unlock()

	// Score on the quantized values so identical keys always yield identical rankings
	ranking := compute(float64(key.freq)/10, float64(key.brightness)/1000, harmonics)

	r.mu.Lock()
	r.store(key, ranking)
	r.mu.Unlock()
	return ranking
}

// store inserts or refreshes an entry, caller holds mu
// Refreshing an existing key keeps its age, new keys evict the oldest when full
func (r *Ranker) store(key rankKey, ranking Ranking) {
	if _, exists := r.entries[key]; exists {
		r.entries[key] = ranking
		return
	}
	if len(r.order) >= r.capacity {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.entries, oldest)
	}
	r.entries[key] = ranking
	r.order = append(r.order, key)
}

// Len returns the number of cached rankings
func (r *Ranker) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Clear drops all cached rankings
func (r *Ranker) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[rankKey]Ranking, r.capacity)
	r.order = r.order[:0]
}

// compute scores all 12 intervals and sorts ascending by dissonance
func compute(base, brightness float64, harmonics int) Ranking {
	type scored struct {
		semitone   int
		dissonance float64
	}
	scores := make([]scored, 12)
	for i := range scores {
		scores[i] = scored{
			semitone:   i,
			dissonance: IntervalDissonance(base, float64(i), brightness, harmonics),
		}
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].dissonance < scores[j].dissonance
	})

	var ranking Ranking
	for i, s := range scores {
		ranking[i] = s.semitone
	}
	return ranking
}
