// Command ttdm-probe exercises the public ttdm API end to end: it allocates
// an environment and a connection, times the Connect call, and prints the
// chosen driver and the environment's capability bitmask. It loads whatever
// direct/client libraries are registered under ttdm's well-known names; it
// does not itself implement a driver.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/gogf/gf/os/gcmd"

	"github.com/timesten/ttdm"
)

func main() {
	dsn := gcmd.GetWithEnv("ttdm.probe.dsn", "").String()
	if dsn == "" {
		fmt.Fprintln(os.Stderr, "usage: ttdm-probe --ttdm.probe.dsn=<dsn> [--ttdm.probe.user=<user>]")
		os.Exit(2)
	}
	user := gcmd.GetWithEnv("ttdm.probe.user", "").String()

	env, ret, err := ttdm.AllocEnv(nil)
	if err != nil || ret != ttdm.ReturnSuccess {
		fmt.Fprintf(os.Stderr, "AllocEnv failed: ret=%v err=%v\n", ret, err)
		os.Exit(1)
	}
	defer ttdm.FreeEnv(env)

	caps, _ := ttdm.GetEnvAttrCapabilities(env)
	fmt.Printf("capabilities: client=%v direct=%v change-capture=%v routing=%v utility=%v\n",
		caps&ttdm.CapabilityClient != 0,
		caps&ttdm.CapabilityDirect != 0,
		caps&ttdm.CapabilityChangeCapture != 0,
		caps&ttdm.CapabilityRouting != 0,
		caps&ttdm.CapabilityUtility != 0,
	)

	conn, ret := ttdm.AllocConnect(env)
	if ret != ttdm.ReturnSuccess {
		fmt.Fprintf(os.Stderr, "AllocConnect failed: ret=%v\n", ret)
		os.Exit(1)
	}
	defer ttdm.FreeConnect(conn)

	start := time.Now()
	ret = ttdm.Connect(conn, dsn, user, "")
	elapsed := time.Since(start)
	if ret != ttdm.ReturnSuccess && ret != ttdm.ReturnSuccessWithInfo {
		rec, drRet := ttdm.GetDiagRecConnection(conn, 1, ttdm.EncodingANSI)
		if drRet == ttdm.ReturnSuccess {
			fmt.Fprintf(os.Stderr, "Connect failed in %s: %s (%d) %s\n", elapsed, rec.SQLState, rec.NativeError, rec.Message)
		} else {
			fmt.Fprintf(os.Stderr, "Connect failed in %s: ret=%v\n", elapsed, ret)
		}
		os.Exit(1)
	}
	defer ttdm.Disconnect(conn)

	ct, _ := ttdm.GetConnectAttrConnectionType(conn)
	fmt.Printf("connected via %s driver in %s\n", ct, elapsed)
	fmt.Printf("dm version: %s\n", ttdm.VersionString())
}
