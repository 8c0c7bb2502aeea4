// Package config provides configuration loading for wxuplink.
//
// Configuration is read from a YAML file, merged over hardcoded
// defaults, then overridden by WXUPLINK_* environment variables.
//
// # Structure
//
//	source:            # MQTT feed from the station software
//	  broker:
//	    host: "localhost"
//	    port: 1883
//	  loop_topic: "weather/loop"
//	  archive_topic: "weather/archive"
//	destinations:      # one delivery worker per enabled entry
//	  - name: "cloud"
//	    enabled: true
//	    server_url: "https://eu-central-1-1.aws.cloud2.influxdata.com"
//	    bucket: "weather"
//	    api_token: ""   # usually via WXUPLINK_API_TOKEN
//	    measurement: "record"
//	    binding: "archive"
//	    tags: ["station=home"]
//
// # Validation
//
// Config.Validate guards process-wide settings and fails startup.
// DestinationConfig.Validate guards a single write target; a failing
// destination is logged and skipped so the remaining destinations and
// the station feed keep running.
package config
