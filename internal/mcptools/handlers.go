package mcptools

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dusk-indust/anchor/internal/config"
	"github.com/dusk-indust/anchor/internal/extract"
	"github.com/dusk-indust/anchor/internal/graph"
	"github.com/dusk-indust/anchor/internal/lang"
	"github.com/dusk-indust/anchor/internal/normalize"
	"github.com/dusk-indust/anchor/internal/pipeline"
)

// CodeIntelService holds the graph and indexing settings used by MCP tool
// handlers.
type CodeIntelService struct {
	graph     *graph.CodeGraph
	extractor pipeline.Extractor
	options   []pipeline.Option

	buildMu     sync.Mutex // serializes build_graph
	store       graph.Store
	projectRoot string
}

// NewCodeIntelService creates a CodeIntelService over g. opts are applied to
// every build_graph run.
func NewCodeIntelService(g *graph.CodeGraph, opts ...pipeline.Option) *CodeIntelService {
	return &CodeIntelService{graph: g, extractor: extract.New(), options: opts}
}

// SetProjectRoot sets the default repository for build_graph and the base of
// relative extract_file paths.
func (s *CodeIntelService) SetProjectRoot(root string) {
	s.projectRoot = root
}

// SetStore makes build_graph persist the graph into store after each run.
func (s *CodeIntelService) SetStore(store graph.Store) {
	s.store = store
}

// SetExtractor replaces the extractor used by extract_file.
func (s *CodeIntelService) SetExtractor(e pipeline.Extractor) {
	s.extractor = e
}

// ExtractFile extracts one file without touching the graph.
func (s *CodeIntelService) ExtractFile(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ExtractFileInput,
) (*mcp.CallToolResult, ExtractFileOutput, error) {
	if input.Path == "" {
		return nil, ExtractFileOutput{}, fmt.Errorf("path is required")
	}

	content := []byte(input.Content)
	if input.Content == "" {
		p := input.Path
		if !filepath.IsAbs(p) && s.projectRoot != "" {
			p = filepath.Join(s.projectRoot, p)
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, ExtractFileOutput{}, fmt.Errorf("read %s: %w", input.Path, err)
		}
		content = data
	}

	res, err := s.extractor.Extract(ctx, filepath.ToSlash(input.Path), content)
	if err != nil {
		return nil, ExtractFileOutput{}, fmt.Errorf("extract: %w", err)
	}
	if res.Symbols == nil {
		res.Symbols = []extract.SymbolRecord{}
	}
	if res.References == nil {
		res.References = []extract.ReferenceEdge{}
	}
	return nil, ExtractFileOutput{Result: *res}, nil
}

// BuildGraph indexes a repository into the graph. Re-running it is
// incremental: unchanged files are skipped and vanished files removed.
func (s *CodeIntelService) BuildGraph(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input BuildGraphInput,
) (*mcp.CallToolResult, BuildGraphOutput, error) {
	root := input.RepoPath
	if root == "" {
		root = s.projectRoot
	}
	if root == "" {
		return nil, BuildGraphOutput{}, fmt.Errorf("repoPath is required")
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, BuildGraphOutput{}, fmt.Errorf("cannot access repoPath: %w", err)
	}
	if !info.IsDir() {
		return nil, BuildGraphOutput{}, fmt.Errorf("repoPath is not a directory: %s", root)
	}

	opts := append([]pipeline.Option{}, s.options...)
	if len(input.Languages) > 0 {
		languages := make([]lang.Language, 0, len(input.Languages))
		for _, name := range input.Languages {
			l, ok := lang.Parse(name)
			if !ok {
				return nil, BuildGraphOutput{}, fmt.Errorf("unknown language %q", name)
			}
			languages = append(languages, l)
		}
		opts = append(opts, pipeline.WithLanguages(languages...))
	}
	if len(input.Exclude) > 0 {
		cfg := config.ProjectConfig{Exclude: input.Exclude}
		if err := cfg.Validate(); err != nil {
			return nil, BuildGraphOutput{}, err
		}
		opts = append(opts, pipeline.WithExcludes(cfg.Excludes()...))
	}

	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	report, err := pipeline.New(s.graph, opts...).Run(ctx, root)
	if err != nil {
		return nil, BuildGraphOutput{}, fmt.Errorf("build graph: %w", err)
	}

	stats, err := s.graph.Stats(ctx)
	if err != nil {
		return nil, BuildGraphOutput{}, fmt.Errorf("stats: %w", err)
	}

	if s.store != nil {
		if err := graph.Persist(ctx, s.store, s.graph); err != nil {
			log.Printf("warning: failed to persist graph: %v", err)
		}
	}

	return nil, BuildGraphOutput{Stats: *stats, Report: *report}, nil
}

// QuerySymbols searches for symbols by name substring match.
func (s *CodeIntelService) QuerySymbols(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QuerySymbolsInput,
) (*mcp.CallToolResult, QuerySymbolsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	// Filter by kind before limiting so matches are not cut off.
	queryLimit := limit
	if input.Kind != "" {
		queryLimit = 0
	}
	symbols, err := s.graph.QuerySymbols(ctx, input.Query, queryLimit)
	if err != nil {
		return nil, QuerySymbolsOutput{}, fmt.Errorf("query symbols: %w", err)
	}

	if input.Kind != "" {
		kind := normalize.SymbolKind(strings.ToLower(input.Kind))
		filtered := symbols[:0]
		for _, sym := range symbols {
			if sym.Kind == kind {
				filtered = append(filtered, sym)
			}
		}
		symbols = filtered
		if len(symbols) > limit {
			symbols = symbols[:limit]
		}
	}
	if symbols == nil {
		symbols = []graph.Symbol{}
	}

	return nil, QuerySymbolsOutput{
		Symbols: symbols,
		Total:   len(symbols),
	}, nil
}

// GetReferences lists the references into or out of a symbol or file.
func (s *CodeIntelService) GetReferences(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input GetReferencesInput,
) (*mcp.CallToolResult, GetReferencesOutput, error) {
	if input.ID == "" {
		return nil, GetReferencesOutput{}, fmt.Errorf("id is required")
	}
	_, isSymbol := s.graph.Symbol(input.ID)
	_, isFile := s.graph.File(input.ID)
	if !isSymbol && !isFile {
		return nil, GetReferencesOutput{}, fmt.Errorf("get references %s: %w", input.ID, graph.ErrNotFound)
	}

	var refs []graph.Reference
	switch strings.ToLower(input.Direction) {
	case "", "incoming":
		refs = s.graph.ReferencesTo(input.ID)
	case "outgoing":
		if isSymbol {
			refs = s.graph.ReferencesFrom(input.ID)
		} else {
			refs = s.graph.References(input.ID)
		}
	default:
		return nil, GetReferencesOutput{}, fmt.Errorf("direction must be incoming or outgoing, got %q", input.Direction)
	}
	if refs == nil {
		refs = []graph.Reference{}
	}

	return nil, GetReferencesOutput{References: refs, Total: len(refs)}, nil
}

// GetDependencies traverses the dependency graph from a given node.
func (s *CodeIntelService) GetDependencies(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetDependenciesInput,
) (*mcp.CallToolResult, GetDependenciesOutput, error) {
	if input.NodeID == "" {
		return nil, GetDependenciesOutput{}, fmt.Errorf("nodeId is required")
	}

	direction := graph.DirectionDownstream
	if input.Direction != "" {
		d, ok := graph.ParseDirection(strings.ToLower(input.Direction))
		if !ok {
			return nil, GetDependenciesOutput{}, fmt.Errorf("direction must be upstream or downstream, got %q", input.Direction)
		}
		direction = d
	}

	maxDepth := input.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 5
	}

	chains, err := s.graph.GetDependencies(ctx, input.NodeID, direction, maxDepth)
	if err != nil {
		return nil, GetDependenciesOutput{}, fmt.Errorf("get dependencies: %w", err)
	}
	if chains == nil {
		chains = []graph.DependencyChain{}
	}

	return nil, GetDependenciesOutput{Chains: chains}, nil
}

// AssessImpact computes the blast radius of modifying a set of files.
func (s *CodeIntelService) AssessImpact(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input AssessImpactInput,
) (*mcp.CallToolResult, AssessImpactOutput, error) {
	if len(input.ChangedFiles) == 0 {
		return nil, AssessImpactOutput{}, fmt.Errorf("changedFiles is required")
	}

	for _, f := range input.ChangedFiles {
		if _, ok := s.graph.File(f); !ok {
			return nil, AssessImpactOutput{}, fmt.Errorf("assess impact %s: %w", f, graph.ErrNotFound)
		}
	}

	return nil, AssessImpactOutput{Impact: *s.graph.Impact(input.ChangedFiles)}, nil
}

// GetClusters returns all file clusters in the graph.
func (s *CodeIntelService) GetClusters(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ GetClustersInput,
) (*mcp.CallToolResult, GetClustersOutput, error) {
	clusters := s.graph.Clusters()
	if clusters == nil {
		clusters = []graph.Cluster{}
	}
	return nil, GetClustersOutput{Clusters: clusters}, nil
}
