package api

import (
	"testing"
	"time"
)

// resetGlobals disables auth and TLS and clears readiness and the ledger.
func resetGlobals(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		EnvTLSCert, EnvTLSKey, EnvTLSMinVersion, EnvTLSClientCA,
		EnvAdminUser, EnvAdminPass, EnvObserverUser, EnvObserverPass,
		EnvAdminUser + "_FILE", EnvAdminPass + "_FILE", EnvObserverUser + "_FILE", EnvObserverPass + "_FILE",
	} {
		t.Setenv(k, "")
	}
	auth = nil
	authFailures.Store(0)
	tlsConfig = nil
	SetLedger(nil)
	SetEngineReady(false)
	SetMQTTState(false, true)
	SetPostgresState(false, true)
}

// waitFor polls a condition until it returns true or timeout expires.
func waitFor(t *testing.T, timeout time.Duration, condition func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Errorf("timeout waiting for: %s", msg)
}
