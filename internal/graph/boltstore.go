package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bucket keys
var (
	bucketFiles       = []byte("files")        // path -> FileNode
	bucketSymbols     = []byte("symbols")      // symbol ID -> Symbol
	bucketRefs        = []byte("refs")         // path -> []Reference
	bucketFileSymbols = []byte("file_symbols") // path -> []symbol ID, document order
)

// Compile-time assertions: *BoltStore satisfies Store and FileSource.
var (
	_ Store      = (*BoltStore)(nil)
	_ FileSource = (*BoltStore)(nil)
)

// BoltStore implements Store on an embedded bbolt database. Every file
// contribution is written in a single transaction, so a crash mid-write
// cannot leave a file half replaced.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (or creates) a bbolt database at path.
func NewBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("open bolt store: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt store: %w", err)
	}
	s := &BoltStore{db: db}
	if err := s.InitSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// InitSchema creates the buckets if they do not exist.
func (s *BoltStore) InitSchema(_ context.Context) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketFiles, bucketSymbols, bucketRefs, bucketFileSymbols} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("bolt: create bucket %s: %w", name, err)
			}
		}
		return nil
	})
}

// ReplaceFile swaps the whole contribution of file.Path in one transaction.
func (s *BoltStore) ReplaceFile(_ context.Context, file FileNode, symbols []Symbol, refs []Reference) error {
	key := []byte(file.Path)
	fileJSON, err := json.Marshal(file)
	if err != nil {
		return fmt.Errorf("bolt: marshal file: %w", err)
	}
	if refs == nil {
		refs = []Reference{}
	}
	refsJSON, err := json.Marshal(refs)
	if err != nil {
		return fmt.Errorf("bolt: marshal references: %w", err)
	}
	ids := make([]string, 0, len(symbols))
	symJSON := make([][]byte, 0, len(symbols))
	for _, sym := range symbols {
		data, err := json.Marshal(sym)
		if err != nil {
			return fmt.Errorf("bolt: marshal symbol %s: %w", sym.ID, err)
		}
		ids = append(ids, sym.ID)
		symJSON = append(symJSON, data)
	}
	idsJSON, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("bolt: marshal symbol index: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		if err := deleteFile(tx, key); err != nil {
			return err
		}
		sb := tx.Bucket(bucketSymbols)
		for i, id := range ids {
			if err := sb.Put([]byte(id), symJSON[i]); err != nil {
				return err
			}
		}
		if err := tx.Bucket(bucketFileSymbols).Put(key, idsJSON); err != nil {
			return err
		}
		if err := tx.Bucket(bucketRefs).Put(key, refsJSON); err != nil {
			return err
		}
		return tx.Bucket(bucketFiles).Put(key, fileJSON)
	})
}

// RemoveFile deletes the contribution of path.
func (s *BoltStore) RemoveFile(_ context.Context, path string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return deleteFile(tx, []byte(path))
	})
}

// deleteFile removes every record owned by the file at key.
func deleteFile(tx *bolt.Tx, key []byte) error {
	fsb := tx.Bucket(bucketFileSymbols)
	if fsb == nil {
		return fmt.Errorf("bolt: schema not initialized")
	}
	if v := fsb.Get(key); v != nil {
		var ids []string
		if err := json.Unmarshal(v, &ids); err != nil {
			return fmt.Errorf("bolt: unmarshal symbol index: %w", err)
		}
		sb := tx.Bucket(bucketSymbols)
		for _, id := range ids {
			if err := sb.Delete([]byte(id)); err != nil {
				return err
			}
		}
	}
	for _, name := range [][]byte{bucketFileSymbols, bucketRefs, bucketFiles} {
		if err := tx.Bucket(name).Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// GetFile returns the file node for path, or nil if not found.
func (s *BoltStore) GetFile(_ context.Context, path string) (*FileNode, error) {
	var out *FileNode
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketFiles).Get([]byte(path))
		if v == nil {
			return nil
		}
		out = new(FileNode)
		return json.Unmarshal(v, out)
	})
	if err != nil {
		return nil, fmt.Errorf("bolt: get file: %w", err)
	}
	return out, nil
}

// GetSymbol returns the symbol with the given ID, or nil if not found.
func (s *BoltStore) GetSymbol(_ context.Context, id string) (*Symbol, error) {
	var out *Symbol
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketSymbols).Get([]byte(id))
		if v == nil {
			return nil
		}
		out = new(Symbol)
		return json.Unmarshal(v, out)
	})
	if err != nil {
		return nil, fmt.Errorf("bolt: get symbol: %w", err)
	}
	return out, nil
}

// QuerySymbols returns symbols whose name or qualified name contains query
// (case-insensitive) in ID order, up to limit results. A limit <= 0 returns
// all matches.
func (s *BoltStore) QuerySymbols(_ context.Context, query string, limit int) ([]Symbol, error) {
	lowerQuery := strings.ToLower(query)
	var results []Symbol
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketSymbols).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var sym Symbol
			if err := json.Unmarshal(v, &sym); err != nil {
				return fmt.Errorf("symbol %s: %w", k, err)
			}
			if strings.Contains(strings.ToLower(sym.Name), lowerQuery) ||
				strings.Contains(strings.ToLower(sym.QualifiedName), lowerQuery) {
				results = append(results, sym)
				if limit > 0 && len(results) >= limit {
					return nil
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("bolt: query symbols: %w", err)
	}
	return results, nil
}

// GetDependencies walks the references stored with their resolution. nodeID
// is a file path or a symbol ID.
func (s *BoltStore) GetDependencies(_ context.Context, nodeID string, direction Direction, maxDepth int) ([]DependencyChain, error) {
	var fileLinks, symbolLinks [][2]string
	var isFile, isSymbol bool
	err := s.db.View(func(tx *bolt.Tx) error {
		isFile = tx.Bucket(bucketFiles).Get([]byte(nodeID)) != nil
		isSymbol = tx.Bucket(bucketSymbols).Get([]byte(nodeID)) != nil
		var err error
		fileLinks, symbolLinks, err = storedLinks(tx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("bolt: dependencies: %w", err)
	}
	switch {
	case isFile:
		return bfsChains(nodeID, orient(fileLinks, direction), maxDepth), nil
	case isSymbol:
		return bfsChains(nodeID, orient(symbolLinks, direction), maxDepth), nil
	}
	return nil, ErrNotFound
}

// storedLinks derives distinct file and symbol links from the refs bucket.
func storedLinks(tx *bolt.Tx) (files, symbols [][2]string, err error) {
	seen := make(map[[2]string]bool)
	err = tx.Bucket(bucketRefs).ForEach(func(k, v []byte) error {
		var refs []Reference
		if err := json.Unmarshal(v, &refs); err != nil {
			return fmt.Errorf("refs %s: %w", k, err)
		}
		path := string(k)
		for _, r := range refs {
			if r.ResolvedFile != "" && r.ResolvedFile != path {
				l := [2]string{path, r.ResolvedFile}
				if !seen[l] {
					seen[l] = true
					files = append(files, l)
				}
			}
			if r.SourceID != "" && r.ResolvedID != "" && r.ResolvedID != r.SourceID {
				l := [2]string{r.SourceID, r.ResolvedID}
				if !seen[l] {
					seen[l] = true
					symbols = append(symbols, l)
				}
			}
		}
		return nil
	})
	return files, symbols, err
}

// Stats returns counts of files, symbols and references.
func (s *BoltStore) Stats(_ context.Context) (*GraphStats, error) {
	st := &GraphStats{}
	err := s.db.View(func(tx *bolt.Tx) error {
		st.FileCount = tx.Bucket(bucketFiles).Stats().KeyN
		st.SymbolCount = tx.Bucket(bucketSymbols).Stats().KeyN
		return tx.Bucket(bucketRefs).ForEach(func(k, v []byte) error {
			var refs []Reference
			if err := json.Unmarshal(v, &refs); err != nil {
				return fmt.Errorf("refs %s: %w", k, err)
			}
			st.ReferenceCount += len(refs)
			for _, r := range refs {
				if !r.Dangling() {
					st.ResolvedCount++
				}
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("bolt: stats: %w", err)
	}
	return st, nil
}

// ForEachFile calls fn with every stored contribution in path order.
func (s *BoltStore) ForEachFile(_ context.Context, fn func(FileContribution) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		sb := tx.Bucket(bucketSymbols)
		fsb := tx.Bucket(bucketFileSymbols)
		rb := tx.Bucket(bucketRefs)
		return tx.Bucket(bucketFiles).ForEach(func(k, v []byte) error {
			var fc FileContribution
			if err := json.Unmarshal(v, &fc.File); err != nil {
				return fmt.Errorf("bolt: file %s: %w", k, err)
			}
			var ids []string
			if raw := fsb.Get(k); raw != nil {
				if err := json.Unmarshal(raw, &ids); err != nil {
					return fmt.Errorf("bolt: symbol index %s: %w", k, err)
				}
			}
			for _, id := range ids {
				raw := sb.Get([]byte(id))
				if raw == nil {
					continue
				}
				var sym Symbol
				if err := json.Unmarshal(raw, &sym); err != nil {
					return fmt.Errorf("bolt: symbol %s: %w", id, err)
				}
				fc.Symbols = append(fc.Symbols, sym)
			}
			if raw := rb.Get(k); raw != nil {
				if err := json.Unmarshal(raw, &fc.References); err != nil {
					return fmt.Errorf("bolt: refs %s: %w", k, err)
				}
			}
			return fn(fc)
		})
	})
}
