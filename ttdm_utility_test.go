package ttdm_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/timesten/ttdm"
)

// utilityLibName is the well-known shared-library name AllocUtility always
// requests, independent of the direct/client tables.
const utilityLibName = "libttutility.so"

func newFakeUtilityDriver() []ttdm.DriverFunc {
	fns := make([]ttdm.DriverFunc, ttdm.UtilityEntryCount)
	fns[ttdm.UtilityEntryCall] = func(nativeHandle interface{}, args ...interface{}) (ttdm.ReturnCode, interface{}, error) {
		return ttdm.ReturnSuccess, &fakeNative{}, nil
	}
	return fns
}

// TestUtilityLifecycle covers the hidden-sentinel-environment lifecycle: the
// first utility handle creates it and loads the utility library, a second
// handle creates nothing new, and the sentinel is only torn down (with the
// library unloaded) once the last utility handle is freed.
func TestUtilityLifecycle(t *testing.T) {
	resetRegistry()
	defer registerFake(directLibName, ttdm.KindDirectLib, fakeDriverConfig{})()
	ttdm.RegisterDriver(utilityLibName, ttdm.KindUtilityLib, newFakeUtilityDriver())
	defer ttdm.UnregisterDriver(utilityLibName)

	u1, ret, err := ttdm.AllocUtility(nil)
	require.NoError(t, err)
	require.Equal(t, ttdm.ReturnSuccess, ret)

	u2, ret, err := ttdm.AllocUtility(nil)
	require.NoError(t, err)
	require.Equal(t, ttdm.ReturnSuccess, ret)

	require.Equal(t, ttdm.ReturnSuccess, ttdm.FreeUtility(u1))
	require.Equal(t, ttdm.ReturnSuccess, ttdm.FreeUtility(u2))
}

// TestUtilityCallDispatchesThroughUtilityTable covers a vendor utility
// operation dispatched straight through the utility table.
func TestUtilityCallDispatchesThroughUtilityTable(t *testing.T) {
	resetRegistry()
	defer registerFake(directLibName, ttdm.KindDirectLib, fakeDriverConfig{})()
	ttdm.RegisterDriver(utilityLibName, ttdm.KindUtilityLib, newFakeUtilityDriver())
	defer ttdm.UnregisterDriver(utilityLibName)

	u, ret, err := ttdm.AllocUtility(nil)
	require.NoError(t, err)
	require.Equal(t, ttdm.ReturnSuccess, ret)
	defer ttdm.FreeUtility(u)

	_, ret = ttdm.Call(u, "ttGridOp", "arg1")
	require.Equal(t, ttdm.ReturnSuccess, ret)
}
