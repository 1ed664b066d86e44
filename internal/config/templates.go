package config

// DefaultAgentConfigTemplate is the fully commented default configuration
// for the agent.
const DefaultAgentConfigTemplate = `# Ratatosk Agent Configuration
# The agent checks the manifest endpoint for a newer version of itself,
# stages the new binary, and swaps it in via a detached helper.

# Update settings
update:
  manifest_url: "https://updates.example.com/v1/manifest.json" # Manifest endpoint
  request_timeout: "30s"     # Per-request HTTP timeout
  retries: 1                 # Download retries after a failure
  relaunch_grace: "2s"       # How long the helper waits before the swap
  # staging_name: "ratatosk-update.new"  # Staged filename in the temp dir
  # state_file: ""           # Attempt marker path (default: per-OS config dir)

# Logging settings
logging:
  level: info                # debug, info, warn, error
  format: text               # text or json
  output: stdout             # stdout, stderr, or a file path
`

// DefaultFeedConfigTemplate is the fully commented default configuration
// for the feed server.
const DefaultFeedConfigTemplate = `# Ratatosk Feed Configuration
# The feed publishes the manifest agents poll and serves artifact bytes.

feed:
  listen: ":7460"            # Address to listen on
  artifacts_dir: "artifacts" # Directory artifact files are served from
  app_version: "1.0"         # Version string published in the manifest.
                             # Agents compare with plain string inequality,
                             # so publish exactly the version to run.
  artifact: "ratatosk"       # Artifact filename linked in the manifest
  # base_url: "https://updates.example.com" # Advertised URL; defaults to
                                            # the Host the request came in on

# Logging settings
logging:
  level: info
  format: text
  output: stdout
`
