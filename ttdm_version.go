package ttdm

import "github.com/gogf/gf/container/gtype"

// odbcVersionFlag is the atomic, process-wide ODBC version flag held by an
// Environment. Using gtype.Int32 (rather than a mutex-guarded int) follows
// gdb_core.go's use of gtype.Bool/gtype.String for cross-goroutine flags
// that are read far more often than written (its debug and schema fields).
type odbcVersionFlag struct {
	v *gtype.Int32
}

func newODBCVersionFlag() *odbcVersionFlag {
	return &odbcVersionFlag{v: gtype.NewInt32(int32(ODBCVersionUnset))}
}

func (f *odbcVersionFlag) set(v ODBCVersion) { f.v.Set(int32(v)) }

func (f *odbcVersionFlag) get() ODBCVersion {
	v := ODBCVersion(f.v.Val())
	if v == ODBCVersionUnset {
		return ODBCVersion3
	}
	return v
}

// VersionEncoded returns the DM version number in the native integer
// encoding (major*10000 + minor*100 + patch), the value returned by
// GetEnvAttr(SQL_ATTR_TTDM_VERSION).
func VersionEncoded() int32 { return versionEncoded }

// VersionString returns the ASCII DM version string returned by
// GetInfo(SQL_DM_VER).
func VersionString() string { return Version }
