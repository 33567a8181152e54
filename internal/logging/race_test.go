package logging

import (
	"bytes"
	"sync"
	"testing"
)

func TestConcurrentLogging(t *testing.T) {
	var buf bytes.Buffer
	resetLogger(t, &buf)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				Info("concurrent", F("worker", id, "iter", j))
			}
		}(i)
	}
	// Concurrent reconfiguration must not race with writers.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 50; j++ {
			SetResource(map[string]string{"service.name": "tracegen"})
			SetMinLevel(LevelInfo)
		}
	}()
	wg.Wait()

	entries := parseEntries(t, &buf)
	if len(entries) != 800 {
		t.Errorf("entries = %d, want 800", len(entries))
	}
}
