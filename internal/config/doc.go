// Package config provides configuration parsing for j20 tools.
//
// The configuration is stored in j20.yaml, in the working directory or one
// of its parents. Every field is optional; missing fields take the defaults
// from New.
//
// # Configuration File Structure
//
//	runtime:
//	  mode: deferred                  # deferred | sync
//	  max_effect_runs_per_flush: 10000
//	log:
//	  level: info                     # debug | info | warn | error
//	  format: text                    # text | json
//	metrics:
//	  enabled: true
//	  addr: ":9090"
//	  namespace: j20
//	tracing:
//	  exporter: stdout                # none | stdout
//	  tracer_name: j20
//	bench:
//	  items: 1000
//	  rounds: 200
//	  seed: 1
//
// # Usage
//
//	cfg, err := config.LoadFromWorkingDir()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	rt := reactive.New(cfg.RuntimeConfig(cfg.Logger(os.Stderr)))
package config
