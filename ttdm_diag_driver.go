package ttdm

// driverDiagSource adapts a loaded driver's own GetDiagField(NUMBER)/
// GetDiagRec entry points to the DriverDiagSource interface GetDiagRec and
// GetDiagFieldNumber (ttdm_diag.go) need, so a driver's diagnostics can be
// presented as part of the combined retrieval without ever copying them
// into the DM stack.
type driverDiagSource struct {
	table  *FunctionTable
	native interface{}
}

func (d driverDiagSource) DiagRecordCount() int {
	if d.table == nil || d.native == nil {
		return 0
	}
	ret, result, err := d.table.call(ODBCEntryGetDiagField, d.native, DiagHeaderNumber)
	if err != nil || ret == ReturnInvalidHandle {
		return 0
	}
	n, _ := result.(int)
	return n
}

func (d driverDiagSource) DiagRecordAt(index int) (DiagRecord, bool) {
	if d.table == nil || d.native == nil {
		return DiagRecord{}, false
	}
	ret, result, err := d.table.call(ODBCEntryGetDiagRec, d.native, index)
	if err != nil || ret == ReturnNoDataFound || ret == ReturnInvalidHandle {
		return DiagRecord{}, false
	}
	rec, ok := result.(DiagRecord)
	return rec, ok
}

// driverSourcesForEnv lists env's driver diagnostic sources, client-then-
// direct, matching the order tables() addresses two driver tables in.
func driverSourcesForEnv(env *Environment) []DriverDiagSource {
	var out []DriverDiagSource
	if env.registry.client != nil {
		out = append(out, driverDiagSource{table: env.registry.client, native: env.clientEnv})
	}
	if env.registry.direct != nil {
		out = append(out, driverDiagSource{table: env.registry.direct, native: env.directEnv})
	}
	return out
}

// driverSourcesForConn lists c's driver diagnostic sources: the single
// in-use table once CONNECTED, both candidate tables beforehand (so a
// failed Connect attempt's driver-side diagnostics remain reachable until
// the dispatch shim drains or discards them).
func driverSourcesForConn(c *Connection) []DriverDiagSource {
	if c.inUse != nil {
		return []DriverDiagSource{driverDiagSource{table: c.inUse, native: c.nativeConn()}}
	}
	var out []DriverDiagSource
	if c.env.registry.client != nil && c.clientConn != nil {
		out = append(out, driverDiagSource{table: c.env.registry.client, native: c.clientConn})
	}
	if c.env.registry.direct != nil && c.directConn != nil {
		out = append(out, driverDiagSource{table: c.env.registry.direct, native: c.directConn})
	}
	return out
}

func driverSourceForStmt(s *Statement) []DriverDiagSource {
	if s.conn.inUse == nil {
		return nil
	}
	return []DriverDiagSource{driverDiagSource{table: s.conn.inUse, native: s.native}}
}

func driverSourceForDesc(d *Descriptor) []DriverDiagSource {
	if d.conn.inUse == nil {
		return nil
	}
	return []DriverDiagSource{driverDiagSource{table: d.conn.inUse, native: d.native}}
}

// GetDiagRecEnv implements GetDiagRec/GetDiagRecW against env: env's own
// stack first, then the client and direct driver stacks in that order.
func GetDiagRecEnv(env *Environment, recIndex int, want Encoding) (DiagRecord, ReturnCode) {
	if !env.valid(KindEnvironment) {
		return DiagRecord{}, ReturnInvalidHandle
	}
	env.Lock()
	defer env.Unlock()
	rec, ok := GetDiagRec(&env.diag, driverSourcesForEnv(env), recIndex, want)
	if !ok {
		return DiagRecord{}, ReturnNoDataFound
	}
	return rec, ReturnSuccess
}

// GetDiagRecConnection implements GetDiagRec/GetDiagRecW against c.
func GetDiagRecConnection(c *Connection, recIndex int, want Encoding) (DiagRecord, ReturnCode) {
	if !c.valid(KindConnection) {
		return DiagRecord{}, ReturnInvalidHandle
	}
	c.Lock()
	defer c.Unlock()
	rec, ok := GetDiagRec(&c.diag, driverSourcesForConn(c), recIndex, want)
	if !ok {
		return DiagRecord{}, ReturnNoDataFound
	}
	return rec, ReturnSuccess
}

// GetDiagRecStatement implements GetDiagRec/GetDiagRecW against s.
func GetDiagRecStatement(s *Statement, recIndex int, want Encoding) (DiagRecord, ReturnCode) {
	if !s.valid(KindStatement) {
		return DiagRecord{}, ReturnInvalidHandle
	}
	s.Lock()
	defer s.Unlock()
	rec, ok := GetDiagRec(&s.diag, driverSourceForStmt(s), recIndex, want)
	if !ok {
		return DiagRecord{}, ReturnNoDataFound
	}
	return rec, ReturnSuccess
}

// GetDiagRecDescriptor implements GetDiagRec/GetDiagRecW against d.
func GetDiagRecDescriptor(d *Descriptor, recIndex int, want Encoding) (DiagRecord, ReturnCode) {
	if !d.valid(KindDescriptor) {
		return DiagRecord{}, ReturnInvalidHandle
	}
	d.Lock()
	defer d.Unlock()
	rec, ok := GetDiagRec(&d.diag, driverSourceForDesc(d), recIndex, want)
	if !ok {
		return DiagRecord{}, ReturnNoDataFound
	}
	return rec, ReturnSuccess
}

// GetDiagFieldNumberConnection implements GetDiagField(NUMBER) against c.
func GetDiagFieldNumberConnection(c *Connection) int {
	c.Lock()
	defer c.Unlock()
	return GetDiagFieldNumber(&c.diag, driverSourcesForConn(c))
}

// GetDiagFieldNumberStatement implements GetDiagField(NUMBER) against s.
func GetDiagFieldNumberStatement(s *Statement) int {
	s.Lock()
	defer s.Unlock()
	return GetDiagFieldNumber(&s.diag, driverSourceForStmt(s))
}
