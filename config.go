package kzgroup

import "time"

// cfg holds every recognized configuration option from spec §6. It is
// never exposed directly; callers build one with Opt functions, the same
// pattern the teacher uses for its own client configuration.
type cfg struct {
	zkHost string

	autoCommitEnable     bool
	autoCommitIntervalMS int
	socketTimeoutMS      int

	rebalanceRetries int

	logger Logger
}

func defaultCfg() cfg {
	return cfg{
		zkHost:               "127.0.0.1:2181",
		autoCommitEnable:     false,
		autoCommitIntervalMS: 60000,
		socketTimeoutMS:      30000,
		rebalanceRetries:     5,
		logger:               nopLogger{},
	}
}

// Opt configures a Group at construction time.
type Opt func(*cfg)

// ZKHost sets the coordination-service endpoint string. Default
// "127.0.0.1:2181".
func ZKHost(addr string) Opt {
	return func(c *cfg) { c.zkHost = addr }
}

// AutoCommitEnable forwards auto-commit-enable to the inner consumer.
// Default false.
func AutoCommitEnable(enable bool) Opt {
	return func(c *cfg) { c.autoCommitEnable = enable }
}

// AutoCommitIntervalMS forwards auto-commit-interval-ms to the inner
// consumer. Default 60000.
func AutoCommitIntervalMS(ms int) Opt {
	return func(c *cfg) { c.autoCommitIntervalMS = ms }
}

// SocketTimeoutMS forwards socket-timeout-ms to the inner consumer.
// Default 30000.
func SocketTimeoutMS(ms int) Opt {
	return func(c *cfg) { c.socketTimeoutMS = ms }
}

// RebalanceRetries sets the number of attempts per rebalance pass (spec
// §4.6's R). Default 5.
func RebalanceRetries(n int) Opt {
	return func(c *cfg) { c.rebalanceRetries = n }
}

// WithLogger installs a Logger; every component logs through it.
func WithLogger(l Logger) Opt {
	return func(c *cfg) {
		if l != nil {
			c.logger = l
		}
	}
}

func (c cfg) autoCommitInterval() time.Duration {
	return time.Duration(c.autoCommitIntervalMS) * time.Millisecond
}

func (c cfg) socketTimeout() time.Duration {
	return time.Duration(c.socketTimeoutMS) * time.Millisecond
}

// backoff returns the spec §4.6 sleep schedule for retry attempt i:
// 0, 1, 4, 9, 16 seconds. Integer division/modulo semantics here are
// trivial (i*i on a non-negative int) but spec §9 calls out explicit
// integer arithmetic as a requirement, so this is kept as its own
// function rather than inlined at the one call site.
func backoff(attempt int) time.Duration {
	return time.Duration(attempt*attempt) * time.Second
}
