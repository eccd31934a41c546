// Package config loads the livesync command configuration.
//
// The configuration is read from livesync.json (JSON with comments and
// trailing commas) or livesync.yaml. Durations are strings parsed by
// time.ParseDuration.
//
// # Configuration File Structure
//
//	{
//	  // Socket and JSON API of the board
//	  "url": "wss://example.org/api/socket",
//	  "api": "https://example.org",
//	  "board": "a",
//	  "thread": 1234,
//	  "lastN": 100,
//	  "reconnect": {
//	    "resetAfter": "10s",
//	    "backoff": {"base": "500ms", "factor": 1.5, "maxExponent": 12},
//	  },
//	  "sync": {"reclaimWindow": "15m", "fetchTimeout": "15s"},
//	  "log": {"format": "text", "level": "info"},
//	  "metrics": {"addr": ":9090"},
//	}
//
// # Usage
//
//	cfg, err := config.Load("livesync.json")
//	if err != nil {
//	    return err
//	}
//	c := client.New(client.Options{Config: cfg.Client()})
package config
