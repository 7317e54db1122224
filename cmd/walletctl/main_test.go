package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/walletd/pkg/rpcmodel"
)

type fakeDaemon struct {
	requests []map[string]interface{}
	results  map[string]interface{}
}

func (d *fakeDaemon) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	d.requests = append(d.requests, req)

	resp := map[string]interface{}{"jsonrpc": "2.0", "id": req["id"]}
	if result, ok := d.results[req["method"].(string)]; ok {
		resp["result"] = result
	} else {
		resp["error"] = map[string]interface{}{
			"code":    -32601,
			"message": "unimplemented",
			"data":    map[string]interface{}{"method": req["method"]},
		}
	}
	//nolint:errcheck
	json.NewEncoder(w).Encode(resp)
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	app := newApp()
	out := &bytes.Buffer{}
	app.Writer = out
	err := app.Run(append([]string{"walletctl"}, args...))
	return out.String(), err
}

func setupDaemon(t *testing.T) *fakeDaemon {
	datadir = t.TempDir()

	daemon := &fakeDaemon{results: map[string]interface{}{
		"version":      rpcmodel.VersionResponse{Version: "v1.0.0"},
		"balance":      map[string]interface{}{"balance": map[string]uint64{"asset": 10}},
		"send_many":    map[string]interface{}{"pset": "cHNldP8="},
		"address":      map[string]interface{}{"address": "el1q", "index": 3},
		"list_signers": map[string]interface{}{"signers": []interface{}{}},
	}}
	srv := httptest.NewServer(daemon)
	t.Cleanup(srv.Close)

	_, err := runApp(t, "config", "init", "--rpcserver", srv.URL)
	require.NoError(t, err)
	return daemon
}

func TestConfig(t *testing.T) {
	datadir = t.TempDir()

	_, err := runApp(t, "config")
	require.Error(t, err)

	_, err = runApp(t, "version")
	require.Error(t, err)

	_, err = runApp(t, "config", "init")
	require.NoError(t, err)
	_, err = runApp(t, "config", "set", "foo", "bar")
	require.NoError(t, err)
	_, err = runApp(t, "config", "set", "foo")
	require.Error(t, err)

	out, err := runApp(t, "config")
	require.NoError(t, err)
	require.Equal(t, "foo: bar\nrpcserver: localhost:32110\n", out)
}

func TestCommands(t *testing.T) {
	daemon := setupDaemon(t)

	out, err := runApp(t, "version")
	require.NoError(t, err)
	require.JSONEq(t, `{"version":"v1.0.0"}`, out)

	out, err = runApp(t, "wallet", "balance", "--name", "w")
	require.NoError(t, err)
	require.JSONEq(t, `{"balance":{"asset":10}}`, out)

	_, err = runApp(t, "wallet", "address", "--name", "w", "--index", "3")
	require.NoError(t, err)
	_, err = runApp(t, "signer", "list")
	require.NoError(t, err)

	_, err = runApp(
		t, "wallet", "send", "--name", "w",
		"--to", "1000:el1qaddr", "--to", "2000:el1qother:asset", "--fee-rate", "150",
	)
	require.NoError(t, err)

	_, err = runApp(t, "wallet", "details", "--name", "w")
	require.Error(t, err)

	require.Len(t, daemon.requests, 6)
	require.Equal(t, map[string]interface{}{"name": "w", "index": float64(3)}, daemon.requests[2]["params"])
	require.Equal(t, map[string]interface{}{
		"name": "w",
		"addressees": []interface{}{
			map[string]interface{}{"satoshi": float64(1000), "address": "el1qaddr"},
			map[string]interface{}{"satoshi": float64(2000), "address": "el1qother", "asset": "asset"},
		},
		"fee_rate": float64(150),
	}, daemon.requests[4]["params"])
}

func TestParseAddressees(t *testing.T) {
	addressees, err := parseAddressees([]string{"10:addr", "20:addr2:asset"})
	require.NoError(t, err)
	require.Equal(t, []rpcmodel.UnvalidatedAddressee{
		{Satoshi: 10, Address: "addr"},
		{Satoshi: 20, Address: "addr2", Asset: "asset"},
	}, addressees)

	for _, v := range []string{"addr", "ten:addr", "1:a:b:c"} {
		_, err := parseAddressees([]string{v})
		require.Error(t, err, v)
	}
}
