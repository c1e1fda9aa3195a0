package wasmdist

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSelect(t *testing.T) {
	cases := []struct {
		Env      Environment
		Expected Delivery
	}{
		{Env: EnvBrowser, Expected: Delivery{Kind: DeliveryInline}},
		{Env: EnvStandalone, Expected: Delivery{Kind: DeliveryInline}},
		{Env: EnvSlim, Expected: Delivery{Kind: DeliveryUnmanaged}},
		{
			Env:      EnvNode,
			Expected: Delivery{Kind: DeliverySibling, FileName: "bindings_wasm_bg.wasm", PublicPath: "../"},
		},
	}

	for _, tc := range cases {
		t.Run(string(tc.Env), func(t *testing.T) {
			delivery, err := Select(tc.Env, "src/pkg/bindings_wasm_bg.wasm")
			require.NoError(t, err)
			require.Equal(t, tc.Expected, delivery)
		})
	}
}

func TestSelectUnknownEnvironment(t *testing.T) {
	delivery, err := Select(Environment("deno"), "bindings_wasm_bg.wasm")
	require.Equal(t, Delivery{}, delivery)
	require.EqualError(t, err, `invalid config: environment "deno": no payload delivery strategy`)

	var configErr *ConfigError
	require.True(t, errors.As(err, &configErr))
}

func TestSelectSiblingFileName(t *testing.T) {
	delivery, err := Select(EnvNode, "/tmp/out/module.bin")
	require.NoError(t, err)
	require.Equal(t, "module.wasm", delivery.FileName)
	require.Equal(t, "../module.wasm", delivery.Reference())

	_, err = Select(EnvNode, "")
	require.Error(t, err)
}

func TestDeliveryModule(t *testing.T) {
	payload := testPayload(64)

	inline, ok := Delivery{Kind: DeliveryInline}.Module(payload, FormatIIFE)
	require.True(t, ok)
	require.Contains(t, inline, `"`+base64.StdEncoding.EncodeToString(payload)+`"`)

	sibling := Delivery{Kind: DeliverySibling, FileName: "x.wasm", PublicPath: "../"}

	cjs, ok := sibling.Module(payload, FormatCommonJS)
	require.True(t, ok)
	require.Contains(t, cjs, `join(__dirname, "../x.wasm")`)
	require.NotContains(t, cjs, base64.StdEncoding.EncodeToString(payload))

	esm, ok := sibling.Module(payload, FormatESModule)
	require.True(t, ok)
	require.Contains(t, esm, `new URL("../x.wasm", import.meta.url)`)

	module, ok := Delivery{Kind: DeliveryUnmanaged}.Module(payload, FormatESModule)
	require.False(t, ok)
	require.Empty(t, module)
}

func TestDeliveryKindString(t *testing.T) {
	require.Equal(t, "inline", DeliveryInline.String())
	require.Equal(t, "sibling", DeliverySibling.String())
	require.Equal(t, "unmanaged", DeliveryUnmanaged.String())
}
