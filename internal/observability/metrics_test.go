package observability

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordCacheLookup(t *testing.T) {
	hits := DefaultMetrics.CacheLookups.WithLabelValues("test", "hit")
	misses := DefaultMetrics.CacheLookups.WithLabelValues("test", "miss")
	beforeHits := testutil.ToFloat64(hits)
	beforeMisses := testutil.ToFloat64(misses)

	RecordCacheLookup("test", true)
	RecordCacheLookup("test", true)
	RecordCacheLookup("test", false)

	if got := testutil.ToFloat64(hits) - beforeHits; got != 2 {
		t.Errorf("hits delta: got %v, want 2", got)
	}
	if got := testutil.ToFloat64(misses) - beforeMisses; got != 1 {
		t.Errorf("misses delta: got %v, want 1", got)
	}
}

func TestRecordSentimentReport_SkipsZeroCounts(t *testing.T) {
	bots := DefaultMetrics.PostsFiltered.WithLabelValues("bot")
	dups := DefaultMetrics.PostsFiltered.WithLabelValues("duplicate")
	beforeBots := testutil.ToFloat64(bots)
	beforeDups := testutil.ToFloat64(dups)

	RecordSentimentReport("ready", 3, 0)

	if got := testutil.ToFloat64(bots) - beforeBots; got != 3 {
		t.Errorf("bot delta: got %v, want 3", got)
	}
	if got := testutil.ToFloat64(dups) - beforeDups; got != 0 {
		t.Errorf("duplicate delta: got %v, want 0", got)
	}
}

func TestRecordJournalWrite(t *testing.T) {
	okC := DefaultMetrics.JournalWrites.WithLabelValues("analyses", "ok")
	errC := DefaultMetrics.JournalWrites.WithLabelValues("analyses", "error")
	beforeOK := testutil.ToFloat64(okC)
	beforeErr := testutil.ToFloat64(errC)

	RecordJournalWrite("analyses", nil)
	RecordJournalWrite("analyses", errors.New("boom"))

	if testutil.ToFloat64(okC)-beforeOK != 1 || testutil.ToFloat64(errC)-beforeErr != 1 {
		t.Error("expected one ok and one error write")
	}
}

func TestRecordReportGenerated(t *testing.T) {
	at := time.Unix(1700000000, 0)
	RecordReportGenerated(at)
	if got := testutil.ToFloat64(DefaultMetrics.LastReportUnixTime); got != 1700000000 {
		t.Errorf("last report gauge: got %v", got)
	}
}

func TestNewLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := Component(NewLogger("debug", false, &buf), "risk")
	logger.Debug().Str("mint", "abc").Msg("scored")

	out := buf.String()
	if !strings.Contains(out, `"component":"risk"`) {
		t.Errorf("missing component field: %s", out)
	}
	if !strings.Contains(out, `"mint":"abc"`) {
		t.Errorf("missing mint field: %s", out)
	}
}

func TestNewLogger_InvalidLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("nonsense", false, &buf)
	logger.Debug().Msg("hidden")
	logger.Info().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug line should be filtered at info level")
	}
	if !strings.Contains(out, "shown") {
		t.Error("info line missing")
	}
}
