package internaldefs

import (
	"strings"
	"testing"

	"github.com/MrEthical07/chatauth"
)

func TestCounterDefsCoverEveryCounter(t *testing.T) {
	seen := make(map[chatauth.MetricID]bool, len(CounterDefs))
	names := make(map[string]bool, len(CounterDefs))
	for _, def := range CounterDefs {
		if seen[def.ID] {
			t.Fatalf("duplicate id %d", def.ID)
		}
		if names[def.Name] {
			t.Fatalf("duplicate name %s", def.Name)
		}
		if !strings.HasPrefix(def.Name, "chatauth_") || !strings.HasSuffix(def.Name, "_total") {
			t.Fatalf("bad counter name %s", def.Name)
		}
		seen[def.ID] = true
		names[def.Name] = true
	}
	for id := chatauth.MetricLoginSuccess; id < chatauth.MetricValidateLatency; id++ {
		if !seen[id] {
			t.Fatalf("metric id %d has no counter definition", id)
		}
	}
}

func TestBucketsAlign(t *testing.T) {
	if len(HistogramBoundSuffix) != len(HistogramBounds)+1 {
		t.Fatalf("suffixes = %d, bounds = %d", len(HistogramBoundSuffix), len(HistogramBounds))
	}
}

func TestCumulativeBuckets(t *testing.T) {
	got := CumulativeBuckets(NormalizeBuckets([]uint64{1, 0, 2, 0, 0, 0, 0, 3}))
	want := [8]uint64{1, 1, 3, 3, 3, 3, 3, 6}
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
	if NormalizeBuckets(nil) != ([8]uint64{}) {
		t.Fatal("nil buckets must normalize to zeros")
	}
}
