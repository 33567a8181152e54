package sampling

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/szibis/telemetry-pipeline/internal/record"
)

// Samplers are consulted from arbitrary application goroutines; run decisions
// concurrently under -race.
func TestSamplersConcurrent(t *testing.T) {
	samplers := []Sampler{
		AlwaysOn(),
		AlwaysOff(),
		TraceIDRatio(0.5),
		ParentBased(TraceIDRatio(0.5)),
		NewRateLimiting(1000, 100),
	}

	var wg sync.WaitGroup
	for _, s := range samplers {
		for w := 0; w < 8; w++ {
			wg.Add(1)
			go func(s Sampler, seed int64) {
				defer wg.Done()
				rng := rand.New(rand.NewSource(seed))
				for i := 0; i < 500; i++ {
					var tid record.TraceID
					rng.Read(tid[:])
					s.ShouldSample(Parameters{TraceID: tid, Name: "op"})
				}
			}(s, int64(w))
		}
	}
	wg.Wait()
}
