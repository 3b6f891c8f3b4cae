package ttdm

import "github.com/gogf/gf/errors/gerror"

// Native error codes for DM-authored diagnostics, taken verbatim from the
// original DM's public header (original_source/.../ttdrvmgr.h).
const (
	NativeErrNoMemory        int32 = 90000
	NativeErrDriverLoad      int32 = 90001
	NativeErrNotDisconnected int32 = 90002
	NativeErrInvalidArg      int32 = 90003
)

const (
	classOriginODBC  = "ISO 9075"
	subclassOriginDM = "ODBC 3.0"
)

// sequenceState and argState pick the SQLSTATE family (ODBC-2 "S1xxx" vs
// ODBC-3 "HYxxx") appropriate to the environment's declared version. Drivers
// loaded under an ODBC-2 application use the older family for DM-authored
// errors so the two diagnostic streams stay self-consistent.
func argState(v ODBCVersion) string {
	if v == ODBCVersion2 {
		return "S1009" // invalid argument value
	}
	return "HY092" // invalid attribute/option identifier
}

func sequenceState(v ODBCVersion) string {
	if v == ODBCVersion2 {
		return "S1010"
	}
	return "HY010" // function sequence error
}

func memoryState(v ODBCVersion) string {
	if v == ODBCVersion2 {
		return "S1001"
	}
	return "HY001" // memory allocation error
}

func libraryLoadState(v ODBCVersion) string {
	if v == ODBCVersion2 {
		return "IM003"
	}
	return "IM003" // specified driver could not be loaded, shared across versions
}

func optionState(v ODBCVersion) string {
	if v == ODBCVersion2 {
		return "S1092"
	}
	return "HYC00" // optional feature not implemented
}

func bufferLengthState(v ODBCVersion) string {
	if v == ODBCVersion2 {
		return "S1090"
	}
	return "HY090" // invalid string or buffer length
}

// pushDM is the common constructor+append for every DM-authored diagnostic:
// it fills in the class/subclass origin and the caller's encoding, and
// appends (never prepends) to stack, preserving the order issues were
// detected in.
func pushDM(stack *DiagStack, ret ReturnCode, state string, native int32, msg string, enc Encoding, connName, serverName string) {
	stack.Push(DiagRecord{
		Return:         ret,
		Encoding:       enc,
		SQLState:       formatState(state),
		NativeError:    native,
		Message:        msg,
		ClassOrigin:    classOriginODBC,
		SubclassOrigin: subclassOriginDM,
		ConnectionName: connName,
		ServerName:     serverName,
	})
}

// invalidHandleResult does NOT touch any diagnostic stack: an invalid handle
// cannot be trusted to have one. It exists purely so call sites read the
// same way as the other Push* helpers.
func invalidHandleResult() ReturnCode { return ReturnInvalidHandle }

// PushArgumentError records a DM argument error: negative buffer length,
// unsupported option, a handle passed where a handle of a different owner or
// kind was required.
func PushArgumentError(stack *DiagStack, v ODBCVersion, msg string, enc Encoding, connName, serverName string) {
	pushDM(stack, ReturnError, argState(v), NativeErrInvalidArg, msg, enc, connName, serverName)
}

// PushResourceError records a DM resource error: allocation or mutex
// creation failure.
func PushResourceError(stack *DiagStack, v ODBCVersion, msg string, enc Encoding, connName, serverName string) {
	pushDM(stack, ReturnError, memoryState(v), NativeErrNoMemory, msg, enc, connName, serverName)
}

// PushSequenceError records a DM sequence error: an operation requested on a
// connection in the wrong state.
func PushSequenceError(stack *DiagStack, v ODBCVersion, msg string, enc Encoding, connName, serverName string) {
	pushDM(stack, ReturnError, sequenceState(v), NativeErrNotDisconnected, msg, enc, connName, serverName)
}

// PushLibraryError records a DM library error: a requested driver library
// could not be loaded or is missing a required symbol.
func PushLibraryError(stack *DiagStack, v ODBCVersion, msg string, enc Encoding) {
	pushDM(stack, ReturnError, libraryLoadState(v), NativeErrDriverLoad, msg, enc, "", "")
}

// PushOptionError records an unsupported-option DM argument error.
func PushOptionError(stack *DiagStack, v ODBCVersion, msg string, enc Encoding, connName, serverName string) {
	pushDM(stack, ReturnError, optionState(v), NativeErrInvalidArg, msg, enc, connName, serverName)
}

// PushBufferLengthError records a DM argument error for a negative output
// buffer length, checked before any driver call is made.
func PushBufferLengthError(stack *DiagStack, v ODBCVersion, msg string, enc Encoding, connName, serverName string) {
	pushDM(stack, ReturnError, bufferLengthState(v), NativeErrInvalidArg, msg, enc, connName, serverName)
}

// internalf wraps an internal (non-ABI) failure with a stack trace. It is
// never surfaced to the application directly; callers translate it into a
// DM diagnostic record via one of the Push* helpers above.
func internalf(format string, args ...interface{}) error {
	return gerror.Newf(format, args...)
}

// DriverError lets a driver convey a specific SQLSTATE/native-error pair
// through a DriverFunc's error return, rather than a bare failure. The
// connect decision rule inspects one of these (via errors.As) to tell a
// "wrong DSN for this driver" rejection from a real connect failure.
type DriverError struct {
	SQLState    string
	NativeError int32
	Message     string
}

func (e *DriverError) Error() string { return e.Message }
