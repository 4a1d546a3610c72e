// Package health provides liveness and readiness probes for the Polaris
// API server.
//
// The Checker aggregates named dependency checks. Liveness is a constant
// "process is up" signal; readiness runs every registered check (rule
// store, registry store) concurrently with a per-check timeout and
// degrades to 503 when any dependency is unhealthy.
//
// Usage:
//
//	checker := health.New(5 * time.Second)
//	checker.RegisterCheck("rule-store", func(ctx context.Context) error {
//		_, err := ruleStore.ListCandidates(ctx, rules.StatePending)
//		return err
//	})
//	mux.HandleFunc("GET /healthz", checker.LivenessHandler())
//	mux.HandleFunc("GET /readyz", checker.ReadinessHandler())
package health
