package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/arrowgate/chessd/pkg/httpapi"
	"github.com/arrowgate/chessd/pkg/supervisor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFakeEngine(t *testing.T, goLines ...string) string {
	t.Helper()

	var body string
	for _, l := range goLines {
		body += "echo '" + l + "'\n"
	}

	script := "#!/bin/sh\n" +
		"while IFS= read -r line; do\n" +
		"  case \"$line\" in\n" +
		"    uci) echo 'id name fakeengine'; echo 'uciok' ;;\n" +
		"    isready) echo 'readyok' ;;\n" +
		"    \"go \"*)\n" +
		body +
		"      ;;\n" +
		"    quit) exit 0 ;;\n" +
		"    *) ;;\n" +
		"  esac\n" +
		"done\n"

	path := filepath.Join(t.TempDir(), "fakeengine.sh")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func newTestServer(t *testing.T, goLines ...string) *httptest.Server {
	t.Helper()
	enginePath := writeFakeEngine(t, goLines...)

	cfg := supervisor.DefaultConfig()
	cfg.Engine.Path = enginePath
	cfg.Stockfish.Path = ""
	cfg.Stockfish.Candidates = nil

	sup, err := supervisor.New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(sup.Close)

	srv := httptest.NewServer(httpapi.New(sup))
	t.Cleanup(srv.Close)
	return srv
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, "bestmove e2e4")

	resp, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["ok"])
}

func TestMoveEndpointReturnsBestmove(t *testing.T) {
	srv := newTestServer(t,
		"info depth 4 score cp 15 pv e2e4 e7e5",
		"bestmove e2e4")

	reqBody, _ := json.Marshal(map[string]any{"fen": "startpos", "movetime_ms": 50})
	resp, err := http.Post(srv.URL+"/api/move", "application/json", bytes.NewReader(reqBody))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "e2e4", body["uci"])
	assert.Equal(t, false, body["terminal"])
	assert.Equal(t, false, body["timeout"])
	assert.InDelta(t, 4, body["depth"], 0.001)
}

func TestMoveEndpointRejectsMissingFEN(t *testing.T) {
	srv := newTestServer(t, "bestmove e2e4")

	resp, err := http.Post(srv.URL+"/api/move", "application/json", bytes.NewReader([]byte(`{}`)))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "MISSING_FEN", body["code"])
}

func TestMoveEndpointRejectsNonArrayMovesUCI(t *testing.T) {
	srv := newTestServer(t, "bestmove e2e4")

	reqBody, _ := json.Marshal(map[string]any{"fen": "startpos", "moves_uci": "e2e4"})
	resp, err := http.Post(srv.URL+"/api/move", "application/json", bytes.NewReader(reqBody))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "INVALID_MOVES_UCI", body["code"])
}

func TestMoveEndpointRejectsNonPositiveMovetime(t *testing.T) {
	srv := newTestServer(t, "bestmove e2e4")

	reqBody, _ := json.Marshal(map[string]any{"fen": "startpos", "movetime_ms": 0})
	resp, err := http.Post(srv.URL+"/api/move", "application/json", bytes.NewReader(reqBody))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "INVALID_MOVETIME", body["code"])
}

func TestMoveEndpointEmptyMovesUCIEquivalentToOmitted(t *testing.T) {
	srv := newTestServer(t,
		"info depth 4 score cp 15 pv e2e4 e7e5",
		"bestmove e2e4")

	reqBody, _ := json.Marshal(map[string]any{"fen": "startpos", "movetime_ms": 50, "moves_uci": []string{}})
	resp, err := http.Post(srv.URL+"/api/move", "application/json", bytes.NewReader(reqBody))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "e2e4", body["uci"])
}

func TestMoveStatusEndpoint(t *testing.T) {
	srv := newTestServer(t,
		"info depth 2 score cp 5 pv g1f3",
		"bestmove g1f3")

	reqBody, _ := json.Marshal(map[string]any{"fen": "startpos", "movetime_ms": 50})
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/move", bytes.NewReader(reqBody))
	req.Header.Set("x-request-id", "fixed-id")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	statusResp, err := http.Get(srv.URL + "/api/move/status/fixed-id")
	require.NoError(t, err)
	defer statusResp.Body.Close()
	require.Equal(t, http.StatusOK, statusResp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(statusResp.Body).Decode(&body))
	assert.Equal(t, "g1f3", body["bestmove"])
	assert.Equal(t, false, body["active"])
}

func TestMoveStatusEndpointUnknownID(t *testing.T) {
	srv := newTestServer(t, "bestmove e2e4")

	resp, err := http.Get(srv.URL + "/api/move/status/never-existed")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHintEndpointReturns503WithoutSecondaryEngine(t *testing.T) {
	srv := newTestServer(t, "bestmove e2e4")

	reqBody, _ := json.Marshal(map[string]any{"fen": "startpos"})
	resp, err := http.Post(srv.URL+"/api/hint", "application/json", bytes.NewReader(reqBody))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "STOCKFISH_UNAVAILABLE", body["code"])
}
