package rpcmodel_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/walletd/pkg/rpcmodel"
)

type testSchema struct {
	Type       string   `json:"type"`
	Required   []string `json:"required"`
	Properties map[string]struct {
		Type string `json:"type"`
	} `json:"properties"`
}

func TestParseMethod(t *testing.T) {
	t.Parallel()

	for _, m := range rpcmodel.Methods() {
		parsed, err := rpcmodel.ParseMethod(m.String())
		require.NoError(t, err)
		require.Equal(t, m, parsed)
	}
	require.Len(t, rpcmodel.Methods(), 24)

	_, err := rpcmodel.ParseMethod("get_balance")
	require.ErrorIs(t, err, rpcmodel.ErrUnknownMethod)
	_, err = rpcmodel.ParseMethod("Balance")
	require.ErrorIs(t, err, rpcmodel.ErrUnknownMethod)
}

func TestBalanceRequestSchema(t *testing.T) {
	t.Parallel()

	buf, err := rpcmodel.Schema(rpcmodel.MethodBalance, rpcmodel.DirectionRequest)
	require.NoError(t, err)

	var schema testSchema
	require.NoError(t, json.Unmarshal(buf, &schema))
	require.Equal(t, "object", schema.Type)
	require.Equal(t, []string{"name"}, schema.Required)
	require.Len(t, schema.Properties, 1)
	require.Equal(t, "string", schema.Properties["name"].Type)
}

func TestSchemaOptionalFields(t *testing.T) {
	t.Parallel()

	buf, err := rpcmodel.Schema(rpcmodel.MethodAddress, rpcmodel.DirectionRequest)
	require.NoError(t, err)
	var schema testSchema
	require.NoError(t, json.Unmarshal(buf, &schema))
	require.Equal(t, []string{"name"}, schema.Required)
	require.Contains(t, schema.Properties, "index")

	buf, err = rpcmodel.Schema(rpcmodel.MethodAddress, rpcmodel.DirectionResponse)
	require.NoError(t, err)
	schema = testSchema{}
	require.NoError(t, json.Unmarshal(buf, &schema))
	require.ElementsMatch(t, []string{"address", "index"}, schema.Required)
}

func TestSchemaAllMethods(t *testing.T) {
	t.Parallel()

	for _, m := range rpcmodel.Methods() {
		for _, d := range []rpcmodel.Direction{
			rpcmodel.DirectionRequest, rpcmodel.DirectionResponse,
		} {
			buf, err := rpcmodel.Schema(m, d)
			require.NoError(t, err, m.String())
			require.True(t, json.Valid(buf))
		}
	}

	_, err := rpcmodel.Schema(rpcmodel.MethodBalance, "both")
	require.ErrorIs(t, err, rpcmodel.ErrInvalidDirection)

	_, err = rpcmodel.ParseDirection("both")
	require.ErrorIs(t, err, rpcmodel.ErrInvalidDirection)
}
