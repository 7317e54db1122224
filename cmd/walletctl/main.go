package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/tdex-network/walletd/pkg/rpcclient"
	"github.com/tdex-network/walletd/pkg/rpcmodel"
	"github.com/urfave/cli/v2"
)

const stateFilename = "state.json"

var (
	version = "dev"

	datadir = btcutil.AppDataDir("walletctl", false)

	rpcServerFlag = &cli.StringFlag{
		Name:  "rpcserver",
		Usage: "walletd address host:port, overrides the one in the local state",
	}
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fatal(err)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Version = version
	app.Name = "walletctl"
	app.Usage = "Command line interface for walletd"
	app.Flags = []cli.Flag{rpcServerFlag}
	app.Commands = []*cli.Command{
		&configCmd,
		&versionCmd,
		&stopCmd,
		&schemaCmd,
		&walletCmd,
		&signerCmd,
		&assetCmd,
	}
	return app
}

func statePath() string {
	return filepath.Join(datadir, stateFilename)
}

func getState() (map[string]string, error) {
	data := map[string]string{}

	file, err := os.ReadFile(statePath())
	if err != nil {
		return nil, errors.New("get config state error: try 'config init'")
	}
	if err := json.Unmarshal(file, &data); err != nil {
		return nil, fmt.Errorf("invalid config state: %w", err)
	}
	return data, nil
}

func setState(data map[string]string) error {
	if err := os.MkdirAll(datadir, os.ModeDir|0755); err != nil {
		return err
	}

	currentData, err := getState()
	if err != nil {
		currentData = map[string]string{}
	}

	buf, err := json.Marshal(merge(currentData, data))
	if err != nil {
		return err
	}
	if err := os.WriteFile(statePath(), buf, 0644); err != nil {
		return fmt.Errorf("writing to file: %w", err)
	}
	return nil
}

func merge(maps ...map[string]string) map[string]string {
	merge := make(map[string]string)
	for _, m := range maps {
		for k, v := range m {
			merge[k] = v
		}
	}
	return merge
}

func getClient(ctx *cli.Context) (*rpcclient.Client, error) {
	if addr := ctx.String(rpcServerFlag.Name); addr != "" {
		return rpcclient.New(addr), nil
	}
	state, err := getState()
	if err != nil {
		return nil, err
	}
	addr, ok := state["rpcserver"]
	if !ok || addr == "" {
		return nil, errors.New("set rpcserver with `config set rpcserver`")
	}
	return rpcclient.New(addr), nil
}

// call invokes the given method and prints its result as indented JSON.
func call(ctx *cli.Context, method rpcmodel.Method, params interface{}) error {
	client, err := getClient(ctx)
	if err != nil {
		return err
	}
	result := method.NewResponse()
	if err := client.Call(context.Background(), method, params, result); err != nil {
		return err
	}
	return printJSON(ctx, result)
}

func printJSON(ctx *cli.Context, v interface{}) error {
	buf, err := json.MarshalIndent(v, "", "\t")
	if err != nil {
		return fmt.Errorf("unable to encode response: %w", err)
	}
	_, err = fmt.Fprintln(ctx.App.Writer, string(buf))
	return err
}

type invalidUsageError struct {
	ctx     *cli.Context
	command string
}

func (e *invalidUsageError) Error() string {
	return fmt.Sprintf("invalid usage of command %s", e.command)
}

func fatal(err error) {
	var e *invalidUsageError
	var rpcErr *rpcclient.RPCError
	switch {
	case errors.As(err, &e):
		_ = cli.ShowCommandHelp(e.ctx, e.command)
	case errors.As(err, &rpcErr) && len(rpcErr.Data) > 0:
		fmt.Fprintf(os.Stderr, "[walletctl] %v %s\n", rpcErr, rpcErr.Data)
	default:
		fmt.Fprintf(os.Stderr, "[walletctl] %v\n", err)
	}
	os.Exit(1)
}
