package marketdata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-token-sentinel/internal/domain"
	"solana-token-sentinel/internal/upstream"
)

const rugFixture = `{
  "mint": "7GCihgDB8fe6KNjn2MYtkzZcRjQy3t9GHdC8uHYmW2hr",
  "mintAuthority": null,
  "freezeAuthority": "FreezeAuth1111111111111111111111111111111111",
  "topHolders": [
    {"address": "vault1", "owner": "raydiumAuthority", "pct": 40.0, "insider": false},
    {"address": "ata2", "owner": "whale", "pct": 22.5, "insider": true},
    {"address": "ata3", "owner": "", "pct": 5.0, "insider": false}
  ],
  "knownAccounts": {
    "raydiumAuthority": {"name": "Raydium", "type": "AMM"},
    "whale": {"name": "Creator", "type": "CREATOR"}
  },
  "markets": [
    {"marketType": "raydium", "lp": {"lpLockedPct": 30}},
    {"marketType": "orca", "lp": {"lpLockedPct": 72.5}}
  ],
  "risks": [
    {"name": "Freeze Authority still enabled", "level": "danger", "score": 7500}
  ],
  "rugged": false
}`

func rugServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/tokens/"+testMint+"/report" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(body))
	}))
}

func TestRugCheck_MapsReport(t *testing.T) {
	server := rugServer(t, rugFixture)
	defer server.Close()

	s, err := NewRugCheck(server.URL, fastUpstream()...).Security(context.Background(), testMint)
	require.NoError(t, err)

	assert.Equal(t, domain.SecuritySourceRugCheck, s.Source)
	assert.Equal(t, domain.AuthorityRevoked, s.MintAuthority)
	assert.Equal(t, domain.AuthorityActive, s.FreezeAuthority)

	require.Len(t, s.Holders, 3)
	assert.Equal(t, LabelProgram, s.Holders[0].Label, "AMM accounts are labelled as programs")
	assert.Equal(t, "Creator", s.Holders[1].Label)
	assert.True(t, s.Holders[1].Insider)
	assert.Equal(t, "ata3", s.Holders[2].Owner, "missing owner falls back to the token account")

	assert.Equal(t, 22.5, s.TopHolderPct, "program holders are excluded from concentration")
	assert.Equal(t, 27.5, s.Top10HolderPct)

	assert.True(t, s.LiquidityLocked)
	assert.False(t, s.LPBurned)
	assert.False(t, s.Honeypot)
}

func TestRugCheck_LPThresholds(t *testing.T) {
	cases := []struct {
		pct            string
		locked, burned bool
	}{
		{"49.9", false, false},
		{"50", true, false},
		{"98.9", true, false},
		{"99", true, true},
	}
	for _, tc := range cases {
		server := rugServer(t, `{"markets":[{"lp":{"lpLockedPct":`+tc.pct+`}}]}`)
		s, err := NewRugCheck(server.URL, fastUpstream()...).Security(context.Background(), testMint)
		server.Close()

		require.NoError(t, err)
		assert.Equal(t, tc.locked, s.LiquidityLocked, "locked at %s", tc.pct)
		assert.Equal(t, tc.burned, s.LPBurned, "burned at %s", tc.pct)
	}
}

func TestRugCheck_Honeypot(t *testing.T) {
	for _, body := range []string{
		`{"rugged": true}`,
		`{"risks":[{"name":"Possible HoneyPot detected"}]}`,
	} {
		server := rugServer(t, body)
		s, err := NewRugCheck(server.URL, fastUpstream()...).Security(context.Background(), testMint)
		server.Close()

		require.NoError(t, err)
		assert.True(t, s.Honeypot, body)
	}
}

func TestRugCheck_MissingAuthoritiesAreRevoked(t *testing.T) {
	server := rugServer(t, `{"mintAuthority": "", "topHolders": []}`)
	defer server.Close()

	s, err := NewRugCheck(server.URL, fastUpstream()...).Security(context.Background(), testMint)
	require.NoError(t, err)
	assert.Equal(t, domain.AuthorityRevoked, s.MintAuthority)
	assert.Equal(t, domain.AuthorityRevoked, s.FreezeAuthority)
	assert.Zero(t, s.TopHolderPct)
}

func TestRugCheck_NotFoundIsError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	_, err := NewRugCheck(server.URL, fastUpstream()...).Security(context.Background(), testMint)
	assert.True(t, errors.Is(err, upstream.ErrNotFound), "got %v", err)
}

func TestConcentration(t *testing.T) {
	holders := make([]domain.HolderRecord, 0, 12)
	for i := 0; i < 12; i++ {
		holders = append(holders, domain.HolderRecord{Percent: float64(i + 1)})
	}
	top, top10 := concentration(holders)
	assert.Equal(t, 12.0, top)
	assert.Equal(t, 12.0+11+10+9+8+7+6+5+4+3, top10)
}
