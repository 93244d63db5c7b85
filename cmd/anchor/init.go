package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/dusk-indust/anchor/internal/config"
)

// mcpConfig represents the structure of a .mcp.json file.
type mcpConfig struct {
	MCPServers map[string]json.RawMessage `json:"mcpServers"`
}

// anchorMCPEntry is the MCP server configuration for the anchor binary.
var anchorMCPEntry = json.RawMessage(`{
  "type": "stdio",
  "command": "anchor",
  "args": ["-serve-mcp"]
}`)

const configHeader = "# anchor project settings. See `anchor -h` for flag overrides.\n"

// runInit writes a starter anchor.yml and registers the MCP server in
// .mcp.json in the target project directory.
func runInit(projectRoot string, force bool, w io.Writer) error {
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		return fmt.Errorf("resolving project root: %w", err)
	}
	if err := writeConfig(filepath.Join(abs, "anchor.yml"), force, w); err != nil {
		return err
	}
	if err := mergeMCPConfig(filepath.Join(abs, ".mcp.json"), force, w); err != nil {
		return err
	}
	fmt.Fprintln(w, "\nSetup complete. Run `anchor index` to build the graph.")
	return nil
}

// writeConfig writes the default project config unless one exists.
func writeConfig(path string, force bool, w io.Writer) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			fmt.Fprintf(w, "  skipped anchor.yml (exists, use -force to overwrite)\n")
			return nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	cfg := config.ProjectConfig{
		ParseTimeout: config.Duration(config.DefaultParseTimeout),
		MaxFileSize:  config.DefaultMaxFileSize,
		Store:        config.StoreBolt,
		StorePath:    config.DefaultStorePath,
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshaling anchor.yml: %w", err)
	}
	if err := os.WriteFile(path, append([]byte(configHeader), data...), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Fprintf(w, "  created anchor.yml\n")
	return nil
}

// mergeMCPConfig creates or merges the anchor entry into .mcp.json.
func mergeMCPConfig(mcpPath string, force bool, w io.Writer) error {
	var cfg mcpConfig

	data, err := os.ReadFile(mcpPath)
	if err == nil {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parsing %s: %w", mcpPath, err)
		}
	}

	if cfg.MCPServers == nil {
		cfg.MCPServers = make(map[string]json.RawMessage)
	}

	if _, exists := cfg.MCPServers["anchor"]; exists && !force {
		fmt.Fprintf(w, "  skipped .mcp.json anchor entry (exists, use -force to overwrite)\n")
		return nil
	}

	cfg.MCPServers["anchor"] = anchorMCPEntry

	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling .mcp.json: %w", err)
	}

	if err := os.WriteFile(mcpPath, append(out, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", mcpPath, err)
	}

	action := "created"
	if data != nil {
		action = "updated"
	}
	fmt.Fprintf(w, "  %s .mcp.json with anchor MCP server\n", action)
	return nil
}
