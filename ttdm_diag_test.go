package ttdm_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/timesten/ttdm"
)

// TestDiagnosticMerge covers the scenario where a driver-rejected Prepare
// leaves its error on the driver's own stack, and a later DM-authored
// argument error is retrievable ahead of it through the same combined
// retrieval path: index 1 is the DM's own record, index 2 is the driver's.
func TestDiagnosticMerge(t *testing.T) {
	resetRegistry()
	defer registerFake(clientLibName, ttdm.KindClientLib, fakeDriverConfig{
		prepare: func(native *fakeNative, sql string) (ttdm.ReturnCode, error) {
			native.push(ttdm.DiagRecord{
				Return:      ttdm.ReturnError,
				SQLState:    "42000",
				NativeError: 1,
				Message:     "syntax error near " + sql,
			})
			return ttdm.ReturnError, nil
		},
	})()

	env, _, err := ttdm.AllocEnv(nil)
	require.NoError(t, err)

	conn, ret := ttdm.AllocConnect(env)
	require.Equal(t, ttdm.ReturnSuccess, ret)
	require.Equal(t, ttdm.ReturnSuccess, ttdm.Connect(conn, "dsn", "u", "p"))

	stmt, ret := ttdm.AllocStmt(conn)
	require.Equal(t, ttdm.ReturnSuccess, ret)

	ret = ttdm.Prepare(stmt, "SELEKT * FROM t")
	require.Equal(t, ttdm.ReturnError, ret)

	ret = ttdm.GetStmtAttrBuffered(stmt, -1)
	require.Equal(t, ttdm.ReturnError, ret)

	rec1, ret := ttdm.GetDiagRecStatement(stmt, 1, ttdm.EncodingANSI)
	require.Equal(t, ttdm.ReturnSuccess, ret)
	require.Equal(t, "HY090", rec1.SQLState)

	rec2, ret := ttdm.GetDiagRecStatement(stmt, 2, ttdm.EncodingANSI)
	require.Equal(t, ttdm.ReturnSuccess, ret)
	require.Equal(t, "42000", rec2.SQLState)

	n := ttdm.GetDiagFieldNumberStatement(stmt)
	require.GreaterOrEqual(t, n, 2)
}

// TestDiagRetrievalEncodingIndependentOfPush verifies that GetDiagRec always
// hands back the requested encoding regardless of which encoding a record
// was pushed in.
func TestDiagRetrievalEncodingIndependentOfPush(t *testing.T) {
	resetRegistry()
	defer registerFake(clientLibName, ttdm.KindClientLib, fakeDriverConfig{})()

	env, _, err := ttdm.AllocEnv(nil)
	require.NoError(t, err)

	conn, ret := ttdm.AllocConnect(env)
	require.Equal(t, ttdm.ReturnSuccess, ret)

	stmt, ret := ttdm.AllocStmt(conn)
	require.Equal(t, ttdm.ReturnError, ret)
	require.Nil(t, stmt)

	ret = ttdm.Connect(conn, "dsn", "u", "p")
	require.Equal(t, ttdm.ReturnSuccess, ret)

	stmt, ret = ttdm.AllocStmt(conn)
	require.Equal(t, ttdm.ReturnSuccess, ret)

	require.Equal(t, ttdm.ReturnError, ttdm.GetStmtAttrBuffered(stmt, -5))

	ansi, ret := ttdm.GetDiagRecStatement(stmt, 1, ttdm.EncodingANSI)
	require.Equal(t, ttdm.ReturnSuccess, ret)
	utf16, ret := ttdm.GetDiagRecStatement(stmt, 1, ttdm.EncodingUTF16)
	require.Equal(t, ttdm.ReturnSuccess, ret)
	require.Equal(t, ttdm.EncodingANSI, ansi.Encoding)
	require.Equal(t, ttdm.EncodingUTF16, utf16.Encoding)
}
