package ttdm_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/timesten/ttdm"
)

// TestLoadOneUseOne covers the "load one, use one" scenario: only the client
// library is present, so every connection commits to it and the environment
// reports client-loaded/routing-available capabilities with direct-loaded
// and change-capture-available cleared.
func TestLoadOneUseOne(t *testing.T) {
	resetRegistry()
	defer registerFake(clientLibName, ttdm.KindClientLib, fakeDriverConfig{})()

	env, ret, err := ttdm.AllocEnv(nil)
	require.NoError(t, err)
	require.Equal(t, ttdm.ReturnSuccess, ret)

	caps, ret := ttdm.GetEnvAttrCapabilities(env)
	require.Equal(t, ttdm.ReturnSuccess, ret)
	require.NotZero(t, caps&ttdm.CapabilityClient)
	require.NotZero(t, caps&ttdm.CapabilityRouting)
	require.Zero(t, caps&ttdm.CapabilityDirect)
	require.Zero(t, caps&ttdm.CapabilityChangeCapture)

	conn, ret := ttdm.AllocConnect(env)
	require.Equal(t, ttdm.ReturnSuccess, ret)

	ret = ttdm.Connect(conn, "anyDSN", "user", "pass")
	require.Equal(t, ttdm.ReturnSuccess, ret)

	ct, ret := ttdm.GetConnectAttrConnectionType(conn)
	require.Equal(t, ttdm.ReturnSuccess, ret)
	require.Equal(t, ttdm.ConnectionTypeClient, ct)
}

// TestAutoSelectionFallThrough covers the scenario where both libraries are
// present but the data source only resolves through the direct driver: the
// client table is tried first, reports IM002/native-0 (the "not my DSN"
// signal), and the DM retries transparently on the direct table.
func TestAutoSelectionFallThrough(t *testing.T) {
	resetRegistry()
	defer registerFake(clientLibName, ttdm.KindClientLib, fakeDriverConfig{
		connect: func(dsn, user, password string) (ttdm.ReturnCode, error) {
			return ttdm.ReturnError, &ttdm.DriverError{SQLState: "IM002", NativeError: 0, Message: "data source not found"}
		},
	})()
	defer registerFake(directLibName, ttdm.KindDirectLib, fakeDriverConfig{})()

	env, ret, err := ttdm.AllocEnv(nil)
	require.NoError(t, err)
	require.Equal(t, ttdm.ReturnSuccess, ret)

	conn, ret := ttdm.AllocConnect(env)
	require.Equal(t, ttdm.ReturnSuccess, ret)

	ret = ttdm.Connect(conn, "directOnlyDSN", "user", "pass")
	require.Equal(t, ttdm.ReturnSuccess, ret)

	ct, ret := ttdm.GetConnectAttrConnectionType(conn)
	require.Equal(t, ttdm.ReturnSuccess, ret)
	require.Equal(t, ttdm.ConnectionTypeDirect, ct)

	_, ret = ttdm.GetDiagRecConnection(conn, 1, ttdm.EncodingANSI)
	require.Equal(t, ttdm.ReturnNoDataFound, ret)
}

// TestAutoSelectionNoRetryOnGenuineFailure checks that a connect failure
// without the specific retry signature is reported as a terminal error
// rather than triggering a retry on the direct table.
func TestAutoSelectionNoRetryOnGenuineFailure(t *testing.T) {
	resetRegistry()
	defer registerFake(clientLibName, ttdm.KindClientLib, fakeDriverConfig{
		connect: func(dsn, user, password string) (ttdm.ReturnCode, error) {
			return ttdm.ReturnError, &ttdm.DriverError{SQLState: "28000", NativeError: 1017, Message: "invalid username/password"}
		},
	})()
	defer registerFake(directLibName, ttdm.KindDirectLib, fakeDriverConfig{
		connect: func(dsn, user, password string) (ttdm.ReturnCode, error) {
			t.Fatal("direct table should not be attempted for a non-retryable client failure")
			return ttdm.ReturnSuccess, nil
		},
	})()

	env, _, err := ttdm.AllocEnv(nil)
	require.NoError(t, err)

	conn, ret := ttdm.AllocConnect(env)
	require.Equal(t, ttdm.ReturnSuccess, ret)

	ret = ttdm.Connect(conn, "someDSN", "baduser", "badpass")
	require.Equal(t, ttdm.ReturnError, ret)

	rec, ret := ttdm.GetDiagRecConnection(conn, 1, ttdm.EncodingANSI)
	require.Equal(t, ttdm.ReturnSuccess, ret)
	require.Equal(t, "28000", rec.SQLState)
	require.EqualValues(t, 1017, rec.NativeError)
}

// TestWrongOwnerDriverHandleQuery covers querying a statement's native
// handle through a connection that does not own it: the query is rejected
// with a DM argument error and the statement itself is left untouched.
func TestWrongOwnerDriverHandleQuery(t *testing.T) {
	resetRegistry()
	defer registerFake(clientLibName, ttdm.KindClientLib, fakeDriverConfig{})()

	env, _, err := ttdm.AllocEnv(nil)
	require.NoError(t, err)

	c1, ret := ttdm.AllocConnect(env)
	require.Equal(t, ttdm.ReturnSuccess, ret)
	require.Equal(t, ttdm.ReturnSuccess, ttdm.Connect(c1, "dsn", "u", "p"))

	c2, ret := ttdm.AllocConnect(env)
	require.Equal(t, ttdm.ReturnSuccess, ret)
	require.Equal(t, ttdm.ReturnSuccess, ttdm.Connect(c2, "dsn", "u", "p"))

	s1, ret := ttdm.AllocStmt(c1)
	require.Equal(t, ttdm.ReturnSuccess, ret)

	_, ret = ttdm.GetInfoNativeHandle(c2, ttdm.NativeHSTMT, s1)
	require.Equal(t, ttdm.ReturnError, ret)

	rec, ret := ttdm.GetDiagRecConnection(c2, 1, ttdm.EncodingANSI)
	require.Equal(t, ttdm.ReturnSuccess, ret)
	require.Equal(t, "HY092", rec.SQLState)
	require.EqualValues(t, ttdm.NativeErrInvalidArg, rec.NativeError)

	require.True(t, s1.Valid())
}
