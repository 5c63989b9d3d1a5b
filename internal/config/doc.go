// Package config provides configuration management for lantern.
//
// Configuration is loaded from a single directory. The default is
// ~/.config/lantern; commands accept --config-path to use another one.
//
// # Configuration Directory
//
//   - config.yaml: global settings plus an optional inline servers list
//   - servers/: one capability server definition per YAML file
//
// Both are optional. A missing config.yaml yields the defaults, and a
// server file without a name takes its name from the file.
//
// # Example
//
//	manifestDir: knowledge/servers
//	store: file            # file | sqlite
//	sqlitePath: manifests.db
//	denyDestructive: true
//	defaultTimeout: 30s
//	telemetry:
//	  otlpEndpoint: http://localhost:4318
//	servers:
//	  - name: filesystem
//	    transport: stdio
//	    command: npx
//	    args: ["-y", "@modelcontextprotocol/server-filesystem", "/tmp"]
//	    cache:
//	      cacheOperationsList: true
//	    filter:
//	      allow: [read_file, list_directory]
//	  - name: github
//	    transport: streamable-http
//	    url: https://api.example.com/mcp
//	    headers:
//	      Authorization: "Bearer ${GITHUB_TOKEN}"
//
// ${VAR} references in command, args, url, env and headers are expanded from
// the process environment at load time. Relative manifestDir and sqlitePath
// values resolve against the configuration directory.
//
// # Validation
//
// LoadConfig rejects empty or duplicate server names, unknown transports, a
// stdio server without a command, a remote server without a URL, filters
// that set both allow and block, and negative timeouts. All problems are
// reported together as ValidationErrors.
//
// # Storage and watching
//
// Storage writes and deletes individual files under servers/. Watcher
// reloads the whole configuration when YAML files change there or in the
// configuration directory itself.
package config
