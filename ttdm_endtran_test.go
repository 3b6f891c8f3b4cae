package ttdm_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/timesten/ttdm"
)

// TestEndTranBothDriversSucceed covers environment-level EndTran with both
// drivers loaded and both reporting plain success: the combined result is
// success.
func TestEndTranBothDriversSucceed(t *testing.T) {
	resetRegistry()
	defer registerFake(clientLibName, ttdm.KindClientLib, fakeDriverConfig{})()
	defer registerFake(directLibName, ttdm.KindDirectLib, fakeDriverConfig{})()

	env, _, err := ttdm.AllocEnv(nil)
	require.NoError(t, err)

	client, ret := ttdm.AllocConnect(env)
	require.Equal(t, ttdm.ReturnSuccess, ret)
	require.Equal(t, ttdm.ReturnSuccess, ttdm.Connect(client, "clientDSN", "u", "p"))
	ct, _ := ttdm.GetConnectAttrConnectionType(client)
	require.Equal(t, ttdm.ConnectionTypeClient, ct)

	ret = ttdm.EndTran(env, ttdm.Commit)
	require.Equal(t, ttdm.ReturnSuccess, ret)
}

// TestEndTranWorstOfTwoWins covers the severity-ordering rule: a
// success-with-info from one driver and an error from the other combine to
// the more severe outcome (error).
func TestEndTranWorstOfTwoWins(t *testing.T) {
	resetRegistry()
	defer registerFake(clientLibName, ttdm.KindClientLib, fakeDriverConfig{
		endTran: func(ct ttdm.CompletionType) (ttdm.ReturnCode, error) {
			return ttdm.ReturnError, nil
		},
	})()
	defer registerFake(directLibName, ttdm.KindDirectLib, fakeDriverConfig{
		endTran: func(ct ttdm.CompletionType) (ttdm.ReturnCode, error) {
			return ttdm.ReturnSuccessWithInfo, nil
		},
	})()

	env, _, err := ttdm.AllocEnv(nil)
	require.NoError(t, err)

	ret := ttdm.EndTran(env, ttdm.Commit)
	require.Equal(t, ttdm.ReturnError, ret)
}

// TestEndTranWorkaroundPromotesEmptyErrorToSuccess covers the opt-in
// workaround for a driver that reports error with no diagnostics.
func TestEndTranWorkaroundPromotesEmptyErrorToSuccess(t *testing.T) {
	resetRegistry()
	defer registerFake(clientLibName, ttdm.KindClientLib, fakeDriverConfig{
		endTran: func(ct ttdm.CompletionType) (ttdm.ReturnCode, error) {
			return ttdm.ReturnError, nil
		},
	})()
	ttdm.Default().EndTranWorkaround = true
	defer func() { ttdm.Default().EndTranWorkaround = false }()

	env, _, err := ttdm.AllocEnv(nil)
	require.NoError(t, err)

	ret := ttdm.EndTran(env, ttdm.Rollback)
	require.Equal(t, ttdm.ReturnSuccess, ret)
}

// TestEndTranConnectionUsesOnlyInUseTable covers the no-fan-out rule for a
// single CONNECTED connection: only its in-use table is called.
func TestEndTranConnectionUsesOnlyInUseTable(t *testing.T) {
	resetRegistry()
	defer registerFake(clientLibName, ttdm.KindClientLib, fakeDriverConfig{})()
	defer registerFake(directLibName, ttdm.KindDirectLib, fakeDriverConfig{
		endTran: func(ct ttdm.CompletionType) (ttdm.ReturnCode, error) {
			t.Fatal("direct table must not be consulted for a client-committed connection")
			return ttdm.ReturnSuccess, nil
		},
	})()

	env, _, err := ttdm.AllocEnv(nil)
	require.NoError(t, err)

	conn, ret := ttdm.AllocConnect(env)
	require.Equal(t, ttdm.ReturnSuccess, ret)
	require.Equal(t, ttdm.ReturnSuccess, ttdm.Connect(conn, "dsn", "u", "p"))

	ret = ttdm.EndTranConnection(conn, ttdm.Commit)
	require.Equal(t, ttdm.ReturnSuccess, ret)
}
