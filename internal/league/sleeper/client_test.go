package sleeper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/fantasy-betbook/internal/league"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := New(srv.URL+"/v1", time.Second, nil)
	c.ProjectionsURL = srv.URL + "/projections/nfl"
	c.StatsURL = srv.URL + "/stats/nfl/player"
	return c
}

func TestClient_StateAndMatchups(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/state/nfl", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"week":6,"season":"2025","season_type":"regular"}`))
	})
	mux.HandleFunc("/v1/league/L1/matchups/5", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"roster_id":1,"matchup_id":1,"points":101.5,"starters":["a","b"],"players_points":{"b":30,"a":30}},
			{"roster_id":2,"matchup_id":null,"points":99,"starters":["c"],"players_points":{"c":12}}
		]`))
	})
	c := newTestClient(t, mux)

	st, err := c.NFLState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, league.State{Week: 6, Season: "2025", SeasonType: "regular"}, st)

	entries, err := c.Matchups(context.Background(), "L1", 5)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.NotNil(t, entries[0].MatchupID)
	assert.Equal(t, 1, *entries[0].MatchupID)
	assert.Nil(t, entries[1].MatchupID)
	assert.Equal(t, 2, entries[1].GroupID())
	// ordem do documento preservada
	assert.Equal(t, "b", entries[0].PlayersPoints[0].PlayerID)
}

func TestClient_ProjectionsQueryAndNumericStats(t *testing.T) {
	var gotQuery map[string][]string
	mux := http.NewServeMux()
	mux.HandleFunc("/projections/nfl/2025/6", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`[
			{"player_id":"4984","stats":{"pts_ppr":22.4,"gp":1,"note":"q"}},
			{"player_id":"6794","stats":{"pts_half_ppr":14.1,"adp":null}}
		]`))
	})
	c := newTestClient(t, mux)

	rows, err := c.Projections(context.Background(), "2025", 6)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, map[string]float64{"pts_ppr": 22.4, "gp": 1}, rows[0].Stats)
	assert.Equal(t, map[string]float64{"pts_half_ppr": 14.1}, rows[1].Stats)

	assert.Equal(t, []string{"regular"}, gotQuery["season_type"])
	assert.Equal(t, []string{"ppr"}, gotQuery["order_by"])
	assert.Contains(t, gotQuery["position[]"], "QB")
	assert.Contains(t, gotQuery["position[]"], "REC_FLEX")

	proj := league.PlayerProjectionMap(rows)
	assert.InDelta(t, 22.4, proj["4984"], 1e-9)
	assert.InDelta(t, 14.1, proj["6794"], 1e-9)
}

func TestClient_PlayerStatsSkipsNullWeeks(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/stats/nfl/player/4984", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "week", r.URL.Query().Get("grouping"))
		assert.Equal(t, "2025", r.URL.Query().Get("season"))
		_, _ = w.Write([]byte(`{
			"1":{"week":1,"stats":{"pts_ppr":20}},
			"2":null,
			"3":{"week":3,"stats":{"pts_ppr":30}},
			"7":{"week":7,"stats":{"pts_ppr":50}}
		}`))
	})
	c := newTestClient(t, mux)

	weekly, err := c.PlayerStats(context.Background(), "4984", "2025")
	require.NoError(t, err)
	assert.Len(t, weekly, 3)

	avg := league.HistoricalAverage(weekly, 6)
	require.NotNil(t, avg)
	assert.InDelta(t, 25.0, *avg, 1e-9)
}

func TestClient_Non2xxIsDataUnavailable(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/league/L1/matchups/3", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})
	c := newTestClient(t, mux)

	_, err := c.Matchups(context.Background(), "L1", 3)
	assert.ErrorIs(t, err, league.ErrDataUnavailable)

	_, err = c.Users(context.Background(), "unknown")
	assert.ErrorIs(t, err, league.ErrDataUnavailable, "404 from the mux")
}

func TestClient_TransportErrorIsDataUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := New(srv.URL, 100*time.Millisecond, nil)

	_, err := c.NFLState(context.Background())
	assert.ErrorIs(t, err, league.ErrDataUnavailable)
}

func TestClient_LookupUser(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/user/gus", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"user_id":"u1","username":"gus","display_name":"Gus"}`))
	})
	mux.HandleFunc("/v1/user/ghost", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	})
	c := newTestClient(t, mux)

	u, err := c.LookupUser(context.Background(), "gus")
	require.NoError(t, err)
	assert.Equal(t, "Gus", u.DisplayName)

	_, err = c.LookupUser(context.Background(), "ghost")
	assert.ErrorIs(t, err, league.ErrUnknownUser)
}
