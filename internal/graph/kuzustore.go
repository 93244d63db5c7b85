//go:build cgo

package graph

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	kuzu "github.com/kuzudb/go-kuzu"

	"github.com/dusk-indust/anchor/internal/extract"
	"github.com/dusk-indust/anchor/internal/lang"
	"github.com/dusk-indust/anchor/internal/normalize"
)

// KuzuStore implements the Store interface using KuzuDB as the graph backend.
// It requires CGO because the go-kuzu driver wraps KuzuDB's C library.
//
// References are stored as Ref nodes carrying their resolution, so a file can
// be replaced without touching nodes owned by other files.
type KuzuStore struct {
	mu   sync.Mutex // serializes transactions on the single connection
	db   *kuzu.Database
	conn *kuzu.Connection
}

// Compile-time checks that KuzuStore satisfies Store and FileSource.
var (
	_ Store      = (*KuzuStore)(nil)
	_ FileSource = (*KuzuStore)(nil)
)

// NewKuzuStore creates a KuzuStore backed by an in-memory KuzuDB instance.
func NewKuzuStore() (*KuzuStore, error) {
	return openKuzu(":memory:")
}

// NewKuzuFileStore creates a KuzuStore backed by a file-based KuzuDB at the
// given path. KuzuDB creates the leaf itself for new databases.
func NewKuzuFileStore(dbPath string) (*KuzuStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create kuzu database: %w", err)
	}
	return openKuzu(dbPath)
}

func openKuzu(dbPath string) (*KuzuStore, error) {
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(dbPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("create kuzu database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// Close releases the KuzuDB connection and database.
func (s *KuzuStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	return nil
}

// ---------- Schema setup ----------

// ddlStatements defines the Cypher DDL executed by InitSchema.
// Node tables must precede relationship tables.
var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS File(
		path STRING,
		language STRING,
		loc INT64,
		content_hash INT64,
		partial BOOLEAN,
		PRIMARY KEY(path)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Symbol(
		id STRING,
		name STRING,
		qualified_name STRING,
		kind STRING,
		language STRING,
		exported BOOLEAN,
		anonymous BOOLEAN,
		file_path STRING,
		enclosing_id STRING,
		start_byte INT64,
		end_byte INT64,
		start_line INT64,
		start_col INT64,
		end_line INT64,
		end_col INT64,
		PRIMARY KEY(id)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Ref(
		id STRING,
		file_path STRING,
		source_id STRING,
		target STRING,
		kind STRING,
		resolved_id STRING,
		resolved_file STRING,
		start_byte INT64,
		end_byte INT64,
		start_line INT64,
		start_col INT64,
		end_line INT64,
		end_col INT64,
		PRIMARY KEY(id)
	)`,
	`CREATE REL TABLE IF NOT EXISTS DEFINES(FROM File TO Symbol)`,
	`CREATE REL TABLE IF NOT EXISTS ENCLOSES(FROM Symbol TO Symbol)`,
	`CREATE REL TABLE IF NOT EXISTS MAKES(FROM File TO Ref)`,
}

// InitSchema creates all node and relationship tables if they do not exist.
func (s *KuzuStore) InitSchema(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, stmt := range ddlStatements {
		res, err := s.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}
	return nil
}

// ---------- Write operations ----------

// ReplaceFile swaps the whole contribution of file.Path in one transaction.
func (s *KuzuStore) ReplaceFile(_ context.Context, file FileNode, symbols []Symbol, refs []Reference) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inTx(func() error {
		if err := s.deleteFile(file.Path); err != nil {
			return err
		}
		if err := s.exec(
			`CREATE (f:File {path: $path, language: $lang, loc: $loc, content_hash: $hash, partial: $partial})`,
			map[string]any{
				"path":    file.Path,
				"lang":    string(file.Language),
				"loc":     int64(file.LOC),
				"hash":    int64(file.ContentHash),
				"partial": file.Partial,
			},
		); err != nil {
			return err
		}
		for _, sym := range symbols {
			if err := s.addSymbol(file.Path, sym); err != nil {
				return err
			}
		}
		for _, sym := range symbols {
			if sym.EnclosingID == "" {
				continue
			}
			if err := s.exec(
				`MATCH (a:Symbol {id: $outer}), (b:Symbol {id: $inner}) CREATE (a)-[:ENCLOSES]->(b)`,
				map[string]any{"outer": sym.EnclosingID, "inner": sym.ID},
			); err != nil {
				return err
			}
		}
		for i, r := range refs {
			if err := s.addRef(file.Path, i, r); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *KuzuStore) addSymbol(path string, sym Symbol) error {
	params := spanParams(sym.Span)
	params["id"] = sym.ID
	params["name"] = sym.Name
	params["qname"] = sym.QualifiedName
	params["kind"] = string(sym.Kind)
	params["lang"] = string(sym.Language)
	params["exported"] = sym.Exported
	params["anonymous"] = sym.Anonymous
	params["fp"] = path
	params["enc"] = sym.EnclosingID
	if err := s.exec(
		`CREATE (s:Symbol {
			id: $id, name: $name, qualified_name: $qname, kind: $kind,
			language: $lang, exported: $exported, anonymous: $anonymous,
			file_path: $fp, enclosing_id: $enc,
			start_byte: $sb, end_byte: $eb,
			start_line: $sl, start_col: $sc, end_line: $el, end_col: $ec
		})`,
		params,
	); err != nil {
		return err
	}
	return s.exec(
		`MATCH (f:File {path: $fp}), (s:Symbol {id: $id}) CREATE (f)-[:DEFINES]->(s)`,
		map[string]any{"fp": path, "id": sym.ID},
	)
}

func (s *KuzuStore) addRef(path string, i int, r Reference) error {
	id := path + "@" + strconv.Itoa(i)
	params := spanParams(r.Span)
	params["id"] = id
	params["fp"] = path
	params["src"] = r.SourceID
	params["target"] = r.Target
	params["kind"] = string(r.Kind)
	params["rid"] = r.ResolvedID
	params["rfile"] = r.ResolvedFile
	if err := s.exec(
		`CREATE (r:Ref {
			id: $id, file_path: $fp, source_id: $src, target: $target, kind: $kind,
			resolved_id: $rid, resolved_file: $rfile,
			start_byte: $sb, end_byte: $eb,
			start_line: $sl, start_col: $sc, end_line: $el, end_col: $ec
		})`,
		params,
	); err != nil {
		return err
	}
	return s.exec(
		`MATCH (f:File {path: $fp}), (r:Ref {id: $id}) CREATE (f)-[:MAKES]->(r)`,
		map[string]any{"fp": path, "id": id},
	)
}

// RemoveFile deletes the contribution of path.
func (s *KuzuStore) RemoveFile(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inTx(func() error { return s.deleteFile(path) })
}

func (s *KuzuStore) deleteFile(path string) error {
	params := map[string]any{"fp": path}
	for _, cypher := range []string{
		`MATCH (r:Ref) WHERE r.file_path = $fp DETACH DELETE r`,
		`MATCH (s:Symbol) WHERE s.file_path = $fp DETACH DELETE s`,
		`MATCH (f:File) WHERE f.path = $fp DETACH DELETE f`,
	} {
		if err := s.exec(cypher, params); err != nil {
			return err
		}
	}
	return nil
}

// inTx runs fn inside an explicit transaction. The caller holds s.mu.
func (s *KuzuStore) inTx(fn func() error) error {
	if err := s.run("BEGIN TRANSACTION"); err != nil {
		return err
	}
	if err := fn(); err != nil {
		_ = s.run("ROLLBACK")
		return err
	}
	return s.run("COMMIT")
}

// ---------- Read operations ----------

// fileColumns is the projection rowToFile expects.
const fileColumns = "f.path, f.language, f.loc, f.content_hash, f.partial"

// GetFile retrieves a single File node by path, or returns nil if not found.
func (s *KuzuStore) GetFile(_ context.Context, path string) (*FileNode, error) {
	rows, err := s.query(
		"MATCH (f:File {path: $path}) RETURN "+fileColumns,
		map[string]any{"path": path},
	)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	f := rowToFile(rows[0])
	return &f, nil
}

// symbolColumns is the projection rowToSymbol expects.
const symbolColumns = `s.id, s.name, s.qualified_name, s.kind, s.language, s.exported,
	s.anonymous, s.file_path, s.enclosing_id,
	s.start_byte, s.end_byte, s.start_line, s.start_col, s.end_line, s.end_col`

// GetSymbol retrieves a single Symbol node by ID, or nil if not found.
func (s *KuzuStore) GetSymbol(_ context.Context, id string) (*Symbol, error) {
	rows, err := s.query(
		"MATCH (s:Symbol {id: $id}) RETURN "+symbolColumns,
		map[string]any{"id": id},
	)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	sym := rowToSymbol(rows[0])
	return &sym, nil
}

// QuerySymbols returns symbols whose name or qualified name contains the
// query (case-insensitive), ordered by ID. An empty query matches every
// symbol. A limit <= 0 returns all matches.
func (s *KuzuStore) QuerySymbols(_ context.Context, queryStr string, limit int) ([]Symbol, error) {
	cypher := `MATCH (s:Symbol) `
	params := map[string]any{}
	if queryStr != "" {
		// CONTAINS never matches the empty string in Kuzu.
		cypher += `WHERE lower(s.name) CONTAINS lower($q) OR lower(s.qualified_name) CONTAINS lower($q) `
		params["q"] = queryStr
	}
	cypher += `RETURN ` + symbolColumns + ` ORDER BY s.id`
	if limit > 0 {
		cypher += " LIMIT $lim"
		params["lim"] = int64(limit)
	}
	rows, err := s.query(cypher, params)
	if err != nil {
		return nil, err
	}
	out := make([]Symbol, 0, len(rows))
	for _, r := range rows {
		out = append(out, rowToSymbol(r))
	}
	return out, nil
}

// ForEachFile calls fn with every stored contribution in path order.
// Symbols come back in source order and references in insertion order.
func (s *KuzuStore) ForEachFile(ctx context.Context, fn func(FileContribution) error) error {
	files, err := s.query("MATCH (f:File) RETURN "+fileColumns+" ORDER BY f.path", nil)
	if err != nil {
		return err
	}
	for _, row := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		fc := FileContribution{File: rowToFile(row)}
		params := map[string]any{"fp": fc.File.Path}

		syms, err := s.query(
			"MATCH (s:Symbol) WHERE s.file_path = $fp RETURN "+symbolColumns+
				" ORDER BY s.start_byte, s.end_byte DESC, s.id",
			params,
		)
		if err != nil {
			return err
		}
		for _, r := range syms {
			fc.Symbols = append(fc.Symbols, rowToSymbol(r))
		}

		refs, err := s.query(
			`MATCH (r:Ref) WHERE r.file_path = $fp
			RETURN r.id, r.source_id, r.target, r.kind, r.resolved_id, r.resolved_file,
				r.start_byte, r.end_byte, r.start_line, r.start_col, r.end_line, r.end_col`,
			params,
		)
		if err != nil {
			return err
		}
		sort.Slice(refs, func(i, j int) bool {
			return refIndex(toString(refs[i][0])) < refIndex(toString(refs[j][0]))
		})
		for _, r := range refs {
			fc.References = append(fc.References, Reference{
				FilePath:     fc.File.Path,
				SourceID:     toString(r[1]),
				Target:       toString(r[2]),
				Kind:         normalize.ReferenceKind(toString(r[3])),
				ResolvedID:   toString(r[4]),
				ResolvedFile: toString(r[5]),
				Span:         rowToSpan(r[6:12]),
			})
		}
		if err := fn(fc); err != nil {
			return err
		}
	}
	return nil
}

// refIndex returns the insertion index encoded in a Ref id ("path@i").
func refIndex(id string) int {
	i := strings.LastIndexByte(id, '@')
	n, _ := strconv.Atoi(id[i+1:])
	return n
}

// ---------- Graph traversal ----------

// GetDependencies performs a BFS over stored reference resolutions starting
// from a file path or symbol ID. It returns one DependencyChain per
// reachable node.
func (s *KuzuStore) GetDependencies(_ context.Context, nodeID string, dir Direction, maxDepth int) ([]DependencyChain, error) {
	file, err := s.exists("MATCH (f:File {path: $id}) RETURN count(f)", nodeID)
	if err != nil {
		return nil, err
	}
	symbol := false
	if !file {
		if symbol, err = s.exists("MATCH (s:Symbol {id: $id}) RETURN count(s)", nodeID); err != nil {
			return nil, err
		}
		if !symbol {
			return nil, ErrNotFound
		}
	}

	type bfsEntry struct {
		path  []string
		depth int
	}
	visited := map[string]bool{nodeID: true}
	queue := []bfsEntry{{path: []string{nodeID}, depth: 0}}
	var chains []DependencyChain

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= maxDepth {
			continue
		}
		tip := cur.path[len(cur.path)-1]
		neighbors, err := s.neighbors(tip, file, dir)
		if err != nil {
			return nil, err
		}
		for _, nb := range neighbors {
			if visited[nb] {
				continue
			}
			visited[nb] = true
			newPath := make([]string, len(cur.path)+1)
			copy(newPath, cur.path)
			newPath[len(cur.path)] = nb
			chains = append(chains, DependencyChain{
				Nodes: newPath,
				Depth: cur.depth + 1,
			})
			queue = append(queue, bfsEntry{path: newPath, depth: cur.depth + 1})
		}
	}
	return chains, nil
}

// neighbors returns the immediate neighbors of id, sorted.
func (s *KuzuStore) neighbors(id string, file bool, dir Direction) ([]string, error) {
	var cypher string
	switch {
	case file && dir == DirectionUpstream:
		cypher = `MATCH (r:Ref) WHERE r.file_path = $id AND r.resolved_file <> '' AND r.resolved_file <> $id
			RETURN DISTINCT r.resolved_file`
	case file && dir == DirectionDownstream:
		cypher = `MATCH (r:Ref) WHERE r.resolved_file = $id AND r.file_path <> $id
			RETURN DISTINCT r.file_path`
	case dir == DirectionUpstream:
		cypher = `MATCH (r:Ref) WHERE r.source_id = $id AND r.resolved_id <> '' AND r.resolved_id <> $id
			RETURN DISTINCT r.resolved_id`
	case dir == DirectionDownstream:
		cypher = `MATCH (r:Ref) WHERE r.resolved_id = $id AND r.source_id <> '' AND r.source_id <> $id
			RETURN DISTINCT r.source_id`
	default:
		return nil, fmt.Errorf("kuzu: unknown direction: %s", dir)
	}
	rows, err := s.query(cypher, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, toString(r[0]))
	}
	sort.Strings(out)
	return out, nil
}

// ---------- Stats ----------

// Stats returns counts of files, symbols and references.
func (s *KuzuStore) Stats(_ context.Context) (*GraphStats, error) {
	files, err := s.count("MATCH (n:File) RETURN count(n)")
	if err != nil {
		return nil, err
	}
	symbols, err := s.count("MATCH (n:Symbol) RETURN count(n)")
	if err != nil {
		return nil, err
	}
	refs, err := s.count("MATCH (n:Ref) RETURN count(n)")
	if err != nil {
		return nil, err
	}
	resolved, err := s.count("MATCH (n:Ref) WHERE n.resolved_id <> '' OR n.resolved_file <> '' RETURN count(n)")
	if err != nil {
		return nil, err
	}
	return &GraphStats{
		FileCount:      files,
		SymbolCount:    symbols,
		ReferenceCount: refs,
		ResolvedCount:  resolved,
	}, nil
}

// ---------- Internal helpers ----------

// run executes a statement without parameters and discards its result.
func (s *KuzuStore) run(cypher string) error {
	res, err := s.conn.Query(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: %s: %w", cypher, err)
	}
	res.Close()
	return nil
}

// exec runs a parameterized Cypher statement that produces no result rows.
func (s *KuzuStore) exec(cypher string, params map[string]any) error {
	stmt, err := s.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := s.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

// query runs a parameterized Cypher statement and collects all result rows.
// Each row is a []any slice with values in column order.
func (s *KuzuStore) query(cypher string, params map[string]any) ([][]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res *kuzu.QueryResult
	var err error
	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		stmt, err = s.conn.Prepare(cypher)
		if err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

// count runs a single-value count query.
func (s *KuzuStore) count(cypher string) (int, error) {
	rows, err := s.query(cypher, nil)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}
	return int(toInt64(rows[0][0])), nil
}

func (s *KuzuStore) exists(cypher, id string) (bool, error) {
	rows, err := s.query(cypher, map[string]any{"id": id})
	if err != nil {
		return false, err
	}
	return len(rows) > 0 && toInt64(rows[0][0]) > 0, nil
}

func spanParams(sp extract.Span) map[string]any {
	return map[string]any{
		"sb": int64(sp.StartByte),
		"eb": int64(sp.EndByte),
		"sl": int64(sp.Start.Line),
		"sc": int64(sp.Start.Column),
		"el": int64(sp.End.Line),
		"ec": int64(sp.End.Column),
	}
}

// rowToFile converts a fileColumns row into a FileNode.
func rowToFile(r []any) FileNode {
	return FileNode{
		Path:        toString(r[0]),
		Language:    lang.Language(toString(r[1])),
		LOC:         int(toInt64(r[2])),
		ContentHash: uint64(toInt64(r[3])),
		Partial:     toBool(r[4]),
	}
}

// rowToSymbol converts a symbolColumns row into a Symbol.
func rowToSymbol(r []any) Symbol {
	return Symbol{
		ID:            toString(r[0]),
		Name:          toString(r[1]),
		QualifiedName: toString(r[2]),
		Kind:          normalize.SymbolKind(toString(r[3])),
		Language:      lang.Language(toString(r[4])),
		Exported:      toBool(r[5]),
		Anonymous:     toBool(r[6]),
		FilePath:      toString(r[7]),
		EnclosingID:   toString(r[8]),
		Span:          rowToSpan(r[9:15]),
	}
}

// rowToSpan converts six span columns (start byte, end byte, start line,
// start column, end line, end column) into a Span.
func rowToSpan(r []any) extract.Span {
	return extract.Span{
		StartByte: int(toInt64(r[0])),
		EndByte:   int(toInt64(r[1])),
		Start:     extract.Point{Line: int(toInt64(r[2])), Column: int(toInt64(r[3]))},
		End:       extract.Point{Line: int(toInt64(r[4])), Column: int(toInt64(r[5]))},
	}
}

// ---------- Type coercion helpers ----------
// KuzuDB returns typed Go values (int64, float64, bool, string).

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case uint64:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func toBool(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return false
}
