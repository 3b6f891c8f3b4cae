package ttdm

import (
	"strings"

	"github.com/gogf/gf/container/gvar"
)

// Encoding identifies the text encoding a diagnostic record's string fields
// were stored in. Conversion only ever happens at retrieval time, once the
// caller's desired encoding is known; the record itself is stored verbatim
// in whichever encoding the pusher used.
type Encoding int

const (
	EncodingANSI Encoding = iota
	EncodingUTF16
)

// ReturnCode mirrors the handful of ODBC return codes the DM itself produces
// or reconciles. Ordered from least to most severe so EndTran's fan-out
// (ttdm_endtran.go) can pick the worst of two results with a simple compare.
type ReturnCode int

const (
	ReturnSuccess ReturnCode = iota
	ReturnNoDataFound
	ReturnSuccessWithInfo
	ReturnError
	ReturnInvalidHandle
)

func (r ReturnCode) moreSevereThan(other ReturnCode) bool { return r > other }

// DiagRecord is a single diagnostic row, as produced either by the DM itself
// or retrieved from a driver's own diagnostic stack.
type DiagRecord struct {
	Return         ReturnCode
	Encoding       Encoding
	SQLState       string // five characters, e.g. "HY090"
	NativeError    int32
	Message        string
	ClassOrigin    string
	SubclassOrigin string
	ConnectionName string
	ServerName     string
}

// textInEncoding returns msg converted to enc. Conversion is purely a
// byte/code-unit transliteration restricted to the ASCII range: non-ASCII
// text stored in one encoding is not guaranteed to round-trip through the
// other, matching the documented simplifying assumption.
func textInEncoding(msg string, from, to Encoding) string {
	if from == to {
		return msg
	}
	// Both ANSI and UTF-16 representations are modeled here as Go strings;
	// the "conversion" is a no-op transliteration for the ASCII-only subset
	// the DM promises to preserve. A real UTF-16 code-unit buffer is
	// produced at the ABI boundary (outside this package) from this string.
	return msg
}

// InEncoding returns a copy of r with every text field transliterated to
// enc.
func (r DiagRecord) InEncoding(enc Encoding) DiagRecord {
	if r.Encoding == enc {
		return r
	}
	out := r
	out.Encoding = enc
	out.Message = textInEncoding(r.Message, r.Encoding, enc)
	out.ClassOrigin = textInEncoding(r.ClassOrigin, r.Encoding, enc)
	out.SubclassOrigin = textInEncoding(r.SubclassOrigin, r.Encoding, enc)
	out.ConnectionName = textInEncoding(r.ConnectionName, r.Encoding, enc)
	out.ServerName = textInEncoding(r.ServerName, r.Encoding, enc)
	return out
}

// Truncated returns a copy of r's message truncated (and implicitly
// null-terminated by the caller's buffer code) to maxLen bytes/code-units,
// plus whether truncation occurred. The DM reports the full, untruncated
// length regardless.
func (r DiagRecord) Truncated(maxLen int) (DiagRecord, bool) {
	if maxLen < 0 || len(r.Message) <= maxLen {
		return r, false
	}
	out := r
	out.Message = r.Message[:maxLen]
	return out, true
}

// DiagStack is a FIFO list of diagnostic records logically owned by a single
// DM handle. Append is always at the tail, preserving detection order;
// Clear is part of the pre-contract of every non-diagnostic entry point.
type DiagStack struct {
	records []DiagRecord
}

// Push appends rec to the tail of the stack.
func (s *DiagStack) Push(rec DiagRecord) {
	s.records = append(s.records, rec)
}

// Clear empties the stack. Called at the top of every dispatch shim before
// validation, so a previous call's errors never shadow the current call's
// results.
func (s *DiagStack) Clear() {
	s.records = s.records[:0]
}

// Len returns the number of records currently on the stack.
func (s *DiagStack) Len() int { return len(s.records) }

// At returns the 1-indexed record (ODBC diagnostic indices start at 1).
func (s *DiagStack) At(index int) (DiagRecord, bool) {
	if index < 1 || index > len(s.records) {
		return DiagRecord{}, false
	}
	return s.records[index-1], true
}

// DriverDiagSource is the minimal surface the diagnostic layer needs from an
// underlying driver to pull its own diagnostic stack: how many records it
// currently holds, and the record at a given 1-indexed position.
type DriverDiagSource interface {
	DiagRecordCount() int
	DiagRecordAt(index int) (DiagRecord, bool)
}

// Drain copies every record currently on src's stack onto s, in order. No
// code in this package calls it; the connect-time retry path discards the
// client driver's diagnostics instead.
func (s *DiagStack) Drain(src DriverDiagSource) {
	n := src.DiagRecordCount()
	for i := 1; i <= n; i++ {
		if rec, ok := src.DiagRecordAt(i); ok {
			s.Push(rec)
		}
	}
}

// GetDiagRec implements the diagnostic retrieval algorithm: the DM's own
// stack is addressed first (by recIndex), then each driver's stack in the
// order given by drivers (client-then-direct when both are present).
// Returns ok=false once recIndex exceeds the combined total.
func GetDiagRec(dmStack *DiagStack, drivers []DriverDiagSource, recIndex int, want Encoding) (DiagRecord, bool) {
	n := dmStack.Len()
	if recIndex <= n {
		rec, ok := dmStack.At(recIndex)
		if !ok {
			return DiagRecord{}, false
		}
		return rec.InEncoding(want), true
	}
	remaining := recIndex - n
	for _, d := range drivers {
		count := d.DiagRecordCount()
		if remaining <= count {
			rec, ok := d.DiagRecordAt(remaining)
			if !ok {
				return DiagRecord{}, false
			}
			return rec.InEncoding(want), true
		}
		remaining -= count
	}
	return DiagRecord{}, false
}

// DiagHeaderField identifies a header diagnostic field (independent of any
// specific record), as distinct from a row field that selects a record.
type DiagHeaderField int

const (
	DiagHeaderNumber DiagHeaderField = iota
	DiagHeaderReturnCode
	DiagHeaderCursorRowCount
	DiagHeaderDynamicFunction
	DiagHeaderDynamicFunctionCode
	DiagHeaderRowCount
)

// GetDiagFieldNumber implements the NUMBER header field: DM stack size plus
// the sum of every present driver's record count.
func GetDiagFieldNumber(dmStack *DiagStack, drivers []DriverDiagSource) int {
	total := dmStack.Len()
	for _, d := range drivers {
		total += d.DiagRecordCount()
	}
	return total
}

// GetDiagFieldReturnCode implements the RETURNCODE header field: the DM
// stack's first record wins when non-empty, otherwise the caller should
// consult the driver directly (driverReturn is the driver-reported value to
// fall back to).
func GetDiagFieldReturnCode(dmStack *DiagStack, driverReturn ReturnCode) ReturnCode {
	if rec, ok := dmStack.At(1); ok {
		return rec.Return
	}
	return driverReturn
}

// DiagRowField identifies a row field, one that selects a specific record.
type DiagRowField int

const (
	DiagRowClassOrigin DiagRowField = iota
	DiagRowSubclassOrigin
	DiagRowConnectionName
	DiagRowServerName
	DiagRowSQLState
	DiagRowMessageText
	DiagRowColumnNumber
	DiagRowRowNumber
	DiagRowNative
)

// RowFieldValue returns the polymorphic value of a row field for rec. gvar.Var
// lets callers treat the result uniformly whether the underlying field is a
// string (SQLSTATE) or an integer (NATIVE).
func RowFieldValue(rec DiagRecord, field DiagRowField) *gvar.Var {
	switch field {
	case DiagRowClassOrigin:
		return gvar.New(rec.ClassOrigin)
	case DiagRowSubclassOrigin:
		return gvar.New(rec.SubclassOrigin)
	case DiagRowConnectionName:
		return gvar.New(rec.ConnectionName)
	case DiagRowServerName:
		return gvar.New(rec.ServerName)
	case DiagRowSQLState:
		return gvar.New(rec.SQLState)
	case DiagRowMessageText:
		return gvar.New(rec.Message)
	case DiagRowNative:
		return gvar.New(rec.NativeError)
	default:
		return gvar.New(nil)
	}
}

// formatState returns the five-character state code, right-padded with
// trailing spaces if a caller supplied a shorter code (defensive only; every
// internal caller supplies exactly five characters).
func formatState(state string) string {
	if len(state) >= 5 {
		return state[:5]
	}
	return state + strings.Repeat(" ", 5-len(state))[:5-len(state)]
}
