package recognition

import (
	"math/rand"
	"sync"
	"time"

	"github.com/kuzamma/surah-recognition-go/internal/surah"
)

// Fallback policy constants. The bias and confidence ranges are chosen so a
// degraded remote service still produces plausible, clearly-tagged results.
const (
	fallbackRecognizedBias = 0.7  // probability the synthetic result claims recognition
	fallbackMinRecognized  = 60.0 // confidence range when recognized
	fallbackMaxRecognized  = 95.0
	fallbackMinUnrecognized = 20.0 // confidence range when not recognized
	fallbackMaxUnrecognized = 60.0
)

// Generator produces synthetic predictions when the remote classifier fails,
// times out, or returns malformed data. Results are always tagged with
// SourceFallback so downstream consumers can distinguish genuine from
// synthetic output.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator returns a Generator seeded from the current time.
func NewGenerator() *Generator {
	return NewGeneratorWithSeed(time.Now().UnixNano())
}

// NewGeneratorWithSeed returns a deterministic Generator for tests.
func NewGeneratorWithSeed(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))} //nolint:gosec // synthetic predictions, not security material
}

// Generate synthesizes one plausible recognition result: a uniformly chosen
// surah, recognition with a fixed bias, and a confidence drawn from a bounded
// range conditioned on the recognized flag.
func (g *Generator) Generate() *Result {
	g.mu.Lock()
	defer g.mu.Unlock()

	recognized := g.rng.Float64() < fallbackRecognizedBias
	if !recognized {
		return &Result{
			Recognized: false,
			Confidence: g.confidenceIn(fallbackMinUnrecognized, fallbackMaxUnrecognized),
			Source:     SourceFallback,
		}
	}

	s, _ := surah.ByID(g.rng.Intn(surah.Count) + 1)
	id := s.ID
	return &Result{
		Recognized: true,
		SurahID:    &id,
		SurahName:  s.NameEnglish,
		Confidence: g.confidenceIn(fallbackMinRecognized, fallbackMaxRecognized),
		Source:     SourceFallback,
	}
}

func (g *Generator) confidenceIn(minVal, maxVal float64) float64 {
	return minVal + g.rng.Float64()*(maxVal-minVal)
}
