/*
Package observability turns block lifecycle events into metrics and logs.

Both Metrics and LogHooks produce block.Hooks, so they can be joined and
installed on any host:

	metrics, err := observability.NewMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	hooks := block.JoinHooks(metrics.Hooks(), observability.LogHooks(logger))
	c := chain.New(blocks, chain.WithHooks(hooks))
*/
package observability
