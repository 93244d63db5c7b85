package mcptools

import (
	"github.com/dusk-indust/anchor/internal/extract"
	"github.com/dusk-indust/anchor/internal/graph"
	"github.com/dusk-indust/anchor/internal/pipeline"
)

// --- MCP Tool Input Types ---
// These structs define the JSON schema for each MCP tool's input.
// The MCP Go SDK auto-generates JSON schemas from struct tags.

// ExtractFileInput is the input for the extract_file MCP tool.
type ExtractFileInput struct {
	Path    string `json:"path" jsonschema:"file path; relative paths are taken from the project root"`
	Content string `json:"content,omitempty" jsonschema:"file content; when empty the file is read from disk"`
}

// ExtractFileOutput is the result of the extract_file MCP tool.
type ExtractFileOutput struct {
	Result extract.Result `json:"result"`
}

// BuildGraphInput is the input for the build_graph MCP tool.
type BuildGraphInput struct {
	RepoPath  string   `json:"repoPath,omitempty" jsonschema:"the absolute path to the repository to index (default: the project root)"`
	Languages []string `json:"languages,omitempty" jsonschema:"languages to index (default: all). Values: go, python, typescript, tsx, javascript, rust, java, c, cpp, csharp, ruby, php, zig"`
	Exclude   []string `json:"exclude,omitempty" jsonschema:"extra doublestar globs to exclude, relative to the repository (e.g. **/generated/**)"`
}

// BuildGraphOutput is the result of the build_graph MCP tool.
type BuildGraphOutput struct {
	Stats  graph.GraphStats `json:"stats"`
	Report pipeline.Report  `json:"report"`
}

// QuerySymbolsInput is the input for the query_symbols MCP tool.
type QuerySymbolsInput struct {
	Query string `json:"query" jsonschema:"search query for symbol names (substring match)"`
	Kind  string `json:"kind,omitempty" jsonschema:"filter by symbol kind: function, method, class, type, interface, enum, module, variable, constant"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results (default: 20)"`
}

// QuerySymbolsOutput is the result of the query_symbols MCP tool.
type QuerySymbolsOutput struct {
	Symbols []graph.Symbol `json:"symbols"`
	Total   int            `json:"total"`
}

// GetReferencesInput is the input for the get_references MCP tool.
type GetReferencesInput struct {
	ID        string `json:"id" jsonschema:"symbol ID (path#name) or file path"`
	Direction string `json:"direction,omitempty" jsonschema:"incoming (references to the node) or outgoing (references it makes). Default: incoming"`
}

// GetReferencesOutput is the result of the get_references MCP tool.
type GetReferencesOutput struct {
	References []graph.Reference `json:"references"`
	Total      int               `json:"total"`
}

// GetDependenciesInput is the input for the get_dependencies MCP tool.
type GetDependenciesInput struct {
	NodeID    string `json:"nodeId" jsonschema:"file path or symbol ID (path#name)"`
	Direction string `json:"direction,omitempty" jsonschema:"upstream (what it depends on) or downstream (what depends on it). Default: downstream"`
	MaxDepth  int    `json:"maxDepth,omitempty" jsonschema:"maximum traversal depth (default: 5)"`
}

// GetDependenciesOutput is the result of the get_dependencies MCP tool.
type GetDependenciesOutput struct {
	Chains []graph.DependencyChain `json:"chains"`
}

// AssessImpactInput is the input for the assess_impact MCP tool.
type AssessImpactInput struct {
	ChangedFiles []string `json:"changedFiles" jsonschema:"list of file paths that will be modified"`
}

// AssessImpactOutput is the result of the assess_impact MCP tool.
type AssessImpactOutput struct {
	Impact graph.ImpactResult `json:"impact"`
}

// GetClustersInput is the input for the get_clusters MCP tool.
type GetClustersInput struct{}

// GetClustersOutput is the result of the get_clusters MCP tool.
type GetClustersOutput struct {
	Clusters []graph.Cluster `json:"clusters"`
}
