package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/okian/formmatch/internal/domain/template"
	"gopkg.in/yaml.v3"
)

// DefaultTable is the table used when no collection is configured.
const DefaultTable = "forms"

// FileStore reads templates from a TinyDB-format document:
//
//	{"forms": {"1": {"name": "Contact", "user_email": "email"}, "2": {...}}}
//
// Files ending in .yaml or .yml are parsed as YAML, where a table may also
// be a plain list of records. Templates are ordered by numeric document id,
// or by list position.
//
// Without watching, every ListTemplates reads the file. With watching, the
// file is parsed once and again whenever it changes on disk.
type FileStore struct {
	path  string
	table string
	yaml  bool

	writeMu sync.Mutex
	watch   *watcher
}

// NewFileStore opens the file store at path. A missing file is an empty
// table and is created by the first Seed.
func NewFileStore(ctx context.Context, path, table string, watch bool, opts ...Option) (*FileStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, unavailable("open", errors.New("file path is empty"))
	}
	if table == "" {
		table = DefaultTable
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, unavailable("open", err)
	}
	ext := strings.ToLower(filepath.Ext(abs))
	s := &FileStore{
		path:  abs,
		table: table,
		yaml:  ext == ".yaml" || ext == ".yml",
	}
	if watch {
		o := applyOptions(opts)
		w, err := newWatcher(ctx, abs, o.debounce, o.log.Named("file-watch"), func() ([]template.Template, error) {
			return s.read("reload")
		})
		if err != nil {
			return nil, err
		}
		s.watch = w
	}
	return s, nil
}

// Path returns the absolute path of the underlying file.
func (s *FileStore) Path() string { return s.path }

// ListTemplates returns the templates of the configured table.
func (s *FileStore) ListTemplates(ctx context.Context) ([]template.Template, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("list templates", err)
	}
	if s.watch != nil {
		return s.watch.current()
	}
	return s.read("list templates")
}

// Ping checks that the file is readable if it exists.
func (s *FileStore) Ping(_ context.Context) error {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return unavailable("ping", err)
	}
	return f.Close()
}

// Seed appends records to the table under fresh document ids and rewrites
// the file.
func (s *FileStore) Seed(ctx context.Context, records []template.Record) error {
	if _, err := decodeRecords("seed", recordMaps(records)); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	doc, err := s.readDocument("seed")
	if err != nil {
		return err
	}
	table, err := appendRecords(doc[s.table], records)
	if err != nil {
		return corrupt("seed", err)
	}
	doc[s.table] = table

	if err := s.writeDocument(doc); err != nil {
		return unavailable("seed", err)
	}
	if s.watch != nil {
		s.watch.reload(ctx)
	}
	return nil
}

// Close stops the watcher, if any.
func (s *FileStore) Close() error {
	if s.watch != nil {
		return s.watch.close()
	}
	return nil
}

func (s *FileStore) read(op string) ([]template.Template, error) {
	doc, err := s.readDocument(op)
	if err != nil {
		return nil, err
	}
	records, err := tableRecords(doc[s.table])
	if err != nil {
		return nil, corruptf(op, err, "table %q", s.table)
	}
	return decodeRecords(op, records)
}

func (s *FileStore) readDocument(op string) (map[string]any, error) {
	// #nosec G304 -- path is configured at startup
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, unavailable(op, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return map[string]any{}, nil
	}

	doc := map[string]any{}
	if s.yaml {
		var node any
		if err := yaml.Unmarshal(data, &node); err != nil {
			return nil, corrupt(op, err)
		}
		switch v := normalizeYAML(node).(type) {
		case map[string]any:
			doc = v
		case []any:
			doc[s.table] = v
		case nil:
		default:
			return nil, corrupt(op, fmt.Errorf("unexpected document of type %T", v))
		}
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, corrupt(op, err)
	}
	return doc, nil
}

func (s *FileStore) writeDocument(doc map[string]any) error {
	var (
		data []byte
		err  error
	)
	if s.yaml {
		data, err = yaml.Marshal(doc)
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// tableRecords flattens a table into records in document order.
func tableRecords(table any) ([]map[string]any, error) {
	switch t := table.(type) {
	case nil:
		return nil, nil
	case []any:
		out := make([]map[string]any, 0, len(t))
		for i, item := range t {
			rec, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("record %d is %T, not a mapping", i, item)
			}
			out = append(out, rec)
		}
		return out, nil
	case map[string]any:
		ids := sortedIDs(t)
		out := make([]map[string]any, 0, len(ids))
		for _, id := range ids {
			rec, ok := t[id].(map[string]any)
			if !ok {
				return nil, fmt.Errorf("document %s is %T, not a mapping", id, t[id])
			}
			out = append(out, rec)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("table is %T, not a mapping", table)
	}
}

// sortedIDs orders numeric ids numerically, followed by any other ids
// lexically.
func sortedIDs(table map[string]any) []string {
	ids := make([]string, 0, len(table))
	for id := range table {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, aErr := strconv.Atoi(ids[i])
		b, bErr := strconv.Atoi(ids[j])
		switch {
		case aErr == nil && bErr == nil:
			return a < b
		case aErr == nil:
			return true
		case bErr == nil:
			return false
		default:
			return ids[i] < ids[j]
		}
	})
	return ids
}

func appendRecords(table any, records []template.Record) (any, error) {
	switch t := table.(type) {
	case []any:
		for _, r := range records {
			t = append(t, map[string]any(r))
		}
		return t, nil
	case nil, map[string]any:
		m, _ := t.(map[string]any)
		if m == nil {
			m = map[string]any{}
		}
		next := 1
		for id := range m {
			if n, err := strconv.Atoi(id); err == nil && n >= next {
				next = n + 1
			}
		}
		for _, r := range records {
			m[strconv.Itoa(next)] = map[string]any(r)
			next++
		}
		return m, nil
	default:
		return nil, fmt.Errorf("table is %T, not a mapping", table)
	}
}

// normalizeYAML rewrites mappings with non-string keys, such as numeric
// document ids, into string-keyed maps.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[fmt.Sprint(k)] = normalizeYAML(item)
		}
		return out
	case map[string]any:
		for k, item := range t {
			t[k] = normalizeYAML(item)
		}
		return t
	case []any:
		for i, item := range t {
			t[i] = normalizeYAML(item)
		}
		return t
	default:
		return v
	}
}
