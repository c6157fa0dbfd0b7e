// Package fstools implements the concrete filesystem tools the built-in
// agent roster is configured against: read_file, write_file, edit_file,
// find_files, search_files, move_file, create_directory, rm_file, and
// rm_directory. Every tool is rooted at a fixed project directory and
// rejects any resolved path that escapes it.
package fstools

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/corvidrun/corvid/internal/tool"
)

// Root resolves and validates paths against a fixed project directory,
// shared by every tool in this package.
type Root struct {
	base string
}

// NewRoot constructs a Root rooted at base (made absolute).
func NewRoot(base string) (*Root, error) {
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, err
	}
	return &Root{base: abs}, nil
}

// Resolve joins rel onto the root and rejects any path that escapes it.
func (r *Root) Resolve(rel string) (string, error) {
	clean := filepath.Join(r.base, rel)
	inside, err := filepath.Rel(r.base, clean)
	if err != nil || inside == ".." || strings.HasPrefix(inside, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the project root", rel)
	}
	return clean, nil
}

func def(name, description string, props map[string]tool.PropertySchema, required ...string) tool.Definition {
	return tool.Definition{
		Name:        name,
		Description: description,
		Parameters:  tool.ToolParameters{Type: "object", Properties: props, Required: required},
	}
}

// ---- read_file ----

type readFile struct{ root *Root }

// NewReadFile constructs the read_file tool.
func NewReadFile(root *Root) tool.Tool { return readFile{root} }

func (readFile) Name() string        { return "read_file" }
func (readFile) Description() string { return "Reads a file's contents, optionally filtered by grep or a line range." }
func (t readFile) Definition() tool.Definition {
	return def(t.Name(), t.Description(), map[string]tool.PropertySchema{
		"path":  {Type: "string", Description: "Path relative to the project root"},
		"grep":  {Type: "string", Description: "Only return lines matching this regex"},
		"start": {Type: "integer", Description: "First line to return, 1-indexed"},
		"end":   {Type: "integer", Description: "Last line to return, inclusive"},
	}, "path")
}
func (readFile) IsBlocking() bool { return true }
func (t readFile) Execute(ctx context.Context, rawArgs string) (tool.Output, error) {
	var args struct {
		Path  string `json:"path"`
		Grep  string `json:"grep"`
		Start int    `json:"start"`
		End   int    `json:"end"`
	}
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return tool.Failure(err.Error()), nil
	}
	full, err := t.root.Resolve(args.Path)
	if err != nil {
		return tool.Failure(err.Error()), nil
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return tool.Failure(err.Error()), nil
	}

	lines := strings.Split(string(data), "\n")
	if args.Start > 0 || args.End > 0 {
		start := args.Start
		if start < 1 {
			start = 1
		}
		end := args.End
		if end <= 0 || end > len(lines) {
			end = len(lines)
		}
		if start > len(lines) {
			lines = nil
		} else {
			lines = lines[start-1 : end]
		}
	}
	if args.Grep != "" {
		re, err := regexp.Compile(args.Grep)
		if err != nil {
			return tool.Failure(fmt.Sprintf("invalid grep pattern: %v", err)), nil
		}
		var filtered []string
		for _, l := range lines {
			if re.MatchString(l) {
				filtered = append(filtered, l)
			}
		}
		lines = filtered
	}
	return tool.Success(strings.Join(lines, "\n")), nil
}

// ---- write_file ----

type writeFile struct{ root *Root }

// NewWriteFile constructs the write_file tool.
func NewWriteFile(root *Root) tool.Tool { return writeFile{root} }

func (writeFile) Name() string        { return "write_file" }
func (writeFile) Description() string { return "Creates a new file with the given content, or overwrites an existing one." }
func (t writeFile) Definition() tool.Definition {
	return def(t.Name(), t.Description(), map[string]tool.PropertySchema{
		"path":    {Type: "string", Description: "Path relative to the project root"},
		"content": {Type: "string", Description: "File content to write"},
	}, "path", "content")
}
func (writeFile) IsBlocking() bool { return true }
func (t writeFile) Execute(ctx context.Context, rawArgs string) (tool.Output, error) {
	var args struct{ Path, Content string }
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return tool.Failure(err.Error()), nil
	}
	full, err := t.root.Resolve(args.Path)
	if err != nil {
		return tool.Failure(err.Error()), nil
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return tool.Failure(err.Error()), nil
	}
	if err := os.WriteFile(full, []byte(args.Content), 0o644); err != nil {
		return tool.Failure(err.Error()), nil
	}
	return tool.Success(fmt.Sprintf("wrote %d bytes to %s", len(args.Content), args.Path)), nil
}

// ---- edit_file ----

type editFile struct{ root *Root }

// NewEditFile constructs the edit_file tool, supporting a literal or
// regex search/replace — the "replace" mode the coder agent's prompt
// calls out as preferred over rewriting a whole file.
func NewEditFile(root *Root) tool.Tool { return editFile{root} }

func (editFile) Name() string        { return "edit_file" }
func (editFile) Description() string { return "Replaces a search string (literal or regex) within an existing file." }
func (t editFile) Definition() tool.Definition {
	return def(t.Name(), t.Description(), map[string]tool.PropertySchema{
		"path":    {Type: "string", Description: "Path relative to the project root"},
		"search":  {Type: "string", Description: "Text or regex to find"},
		"replace": {Type: "string", Description: "Replacement text"},
		"regex":   {Type: "boolean", Description: "Treat search as a regex (default false)"},
	}, "path", "search", "replace")
}
func (editFile) IsBlocking() bool { return true }
func (t editFile) Execute(ctx context.Context, rawArgs string) (tool.Output, error) {
	var args struct {
		Path, Search, Replace string
		Regex                 bool
	}
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return tool.Failure(err.Error()), nil
	}
	full, err := t.root.Resolve(args.Path)
	if err != nil {
		return tool.Failure(err.Error()), nil
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return tool.Failure(err.Error()), nil
	}

	var updated string
	if args.Regex {
		re, err := regexp.Compile(args.Search)
		if err != nil {
			return tool.Failure(fmt.Sprintf("invalid regex: %v", err)), nil
		}
		updated = re.ReplaceAllString(string(data), args.Replace)
	} else {
		if !strings.Contains(string(data), args.Search) {
			return tool.Failure("search text not found in file"), nil
		}
		updated = strings.ReplaceAll(string(data), args.Search, args.Replace)
	}
	if err := os.WriteFile(full, []byte(updated), 0o644); err != nil {
		return tool.Failure(err.Error()), nil
	}
	return tool.Success(fmt.Sprintf("updated %s", args.Path)), nil
}

// ---- move_file ----

type moveFile struct{ root *Root }

// NewMoveFile constructs the move_file tool.
func NewMoveFile(root *Root) tool.Tool { return moveFile{root} }

func (moveFile) Name() string        { return "move_file" }
func (moveFile) Description() string { return "Moves or renames a file or directory." }
func (t moveFile) Definition() tool.Definition {
	return def(t.Name(), t.Description(), map[string]tool.PropertySchema{
		"from": {Type: "string", Description: "Source path relative to the project root"},
		"to":   {Type: "string", Description: "Destination path relative to the project root"},
	}, "from", "to")
}
func (moveFile) IsBlocking() bool { return true }
func (t moveFile) Execute(ctx context.Context, rawArgs string) (tool.Output, error) {
	var args struct{ From, To string }
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return tool.Failure(err.Error()), nil
	}
	fromFull, err := t.root.Resolve(args.From)
	if err != nil {
		return tool.Failure(err.Error()), nil
	}
	toFull, err := t.root.Resolve(args.To)
	if err != nil {
		return tool.Failure(err.Error()), nil
	}
	if err := os.MkdirAll(filepath.Dir(toFull), 0o755); err != nil {
		return tool.Failure(err.Error()), nil
	}
	if err := os.Rename(fromFull, toFull); err != nil {
		return tool.Failure(err.Error()), nil
	}
	return tool.Success(fmt.Sprintf("moved %s to %s", args.From, args.To)), nil
}

// ---- create_directory ----

type createDirectory struct{ root *Root }

// NewCreateDirectory constructs the create_directory tool.
func NewCreateDirectory(root *Root) tool.Tool { return createDirectory{root} }

func (createDirectory) Name() string        { return "create_directory" }
func (createDirectory) Description() string { return "Creates a directory, including any missing parents." }
func (t createDirectory) Definition() tool.Definition {
	return def(t.Name(), t.Description(), map[string]tool.PropertySchema{
		"path": {Type: "string", Description: "Path relative to the project root"},
	}, "path")
}
func (createDirectory) IsBlocking() bool { return true }
func (t createDirectory) Execute(ctx context.Context, rawArgs string) (tool.Output, error) {
	var args struct{ Path string }
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return tool.Failure(err.Error()), nil
	}
	full, err := t.root.Resolve(args.Path)
	if err != nil {
		return tool.Failure(err.Error()), nil
	}
	if err := os.MkdirAll(full, 0o755); err != nil {
		return tool.Failure(err.Error()), nil
	}
	return tool.Success(fmt.Sprintf("created %s", args.Path)), nil
}

// ---- rm_file / rm_directory ----

type rmFile struct{ root *Root }

// NewRmFile constructs the rm_file tool.
func NewRmFile(root *Root) tool.Tool { return rmFile{root} }

func (rmFile) Name() string        { return "rm_file" }
func (rmFile) Description() string { return "Removes a single file." }
func (t rmFile) Definition() tool.Definition {
	return def(t.Name(), t.Description(), map[string]tool.PropertySchema{
		"path": {Type: "string", Description: "Path relative to the project root"},
	}, "path")
}
func (rmFile) IsBlocking() bool { return true }
func (t rmFile) Execute(ctx context.Context, rawArgs string) (tool.Output, error) {
	var args struct{ Path string }
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return tool.Failure(err.Error()), nil
	}
	full, err := t.root.Resolve(args.Path)
	if err != nil {
		return tool.Failure(err.Error()), nil
	}
	info, err := os.Stat(full)
	if err != nil {
		return tool.Failure(err.Error()), nil
	}
	if info.IsDir() {
		return tool.Failure(fmt.Sprintf("%s is a directory, use rm_directory", args.Path)), nil
	}
	if err := os.Remove(full); err != nil {
		return tool.Failure(err.Error()), nil
	}
	return tool.Success(fmt.Sprintf("removed %s", args.Path)), nil
}

type rmDirectory struct{ root *Root }

// NewRmDirectory constructs the rm_directory tool.
func NewRmDirectory(root *Root) tool.Tool { return rmDirectory{root} }

func (rmDirectory) Name() string        { return "rm_directory" }
func (rmDirectory) Description() string { return "Recursively removes a directory and its contents." }
func (t rmDirectory) Definition() tool.Definition {
	return def(t.Name(), t.Description(), map[string]tool.PropertySchema{
		"path": {Type: "string", Description: "Path relative to the project root"},
	}, "path")
}
func (rmDirectory) IsBlocking() bool { return true }
func (t rmDirectory) Execute(ctx context.Context, rawArgs string) (tool.Output, error) {
	var args struct{ Path string }
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return tool.Failure(err.Error()), nil
	}
	full, err := t.root.Resolve(args.Path)
	if err != nil {
		return tool.Failure(err.Error()), nil
	}
	if err := os.RemoveAll(full); err != nil {
		return tool.Failure(err.Error()), nil
	}
	return tool.Success(fmt.Sprintf("removed %s", args.Path)), nil
}

// ---- find_files ----

type findFiles struct{ root *Root }

// NewFindFiles constructs the find_files tool.
func NewFindFiles(root *Root) tool.Tool { return findFiles{root} }

func (findFiles) Name() string        { return "find_files" }
func (findFiles) Description() string { return "Recursively finds files by extension or glob pattern, with an optional depth limit." }
func (t findFiles) Definition() tool.Definition {
	return def(t.Name(), t.Description(), map[string]tool.PropertySchema{
		"path":       {Type: "string", Description: "Directory to search, relative to the project root (default '.')"},
		"extensions": {Type: "array", Description: "File extensions to match, without the dot", Items: &tool.PropertySchema{Type: "string"}},
		"pattern":    {Type: "string", Description: "Glob pattern to match against the file name"},
		"max_depth":  {Type: "integer", Description: "Maximum directory depth to descend (0 = unlimited)"},
	})
}
func (findFiles) IsBlocking() bool { return true }
func (t findFiles) Execute(ctx context.Context, rawArgs string) (tool.Output, error) {
	var args struct {
		Path       string   `json:"path"`
		Extensions []string `json:"extensions"`
		Pattern    string   `json:"pattern"`
		MaxDepth   int      `json:"max_depth"`
	}
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return tool.Failure(err.Error()), nil
	}
	if args.Path == "" {
		args.Path = "."
	}
	startFull, err := t.root.Resolve(args.Path)
	if err != nil {
		return tool.Failure(err.Error()), nil
	}

	extSet := make(map[string]struct{}, len(args.Extensions))
	for _, e := range args.Extensions {
		extSet["."+strings.TrimPrefix(e, ".")] = struct{}{}
	}

	var matches []string
	err = filepath.WalkDir(startFull, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if strings.Contains(path, string(filepath.Separator)+".git") {
				return filepath.SkipDir
			}
			if args.MaxDepth > 0 {
				rel, _ := filepath.Rel(startFull, path)
				if rel != "." && strings.Count(rel, string(filepath.Separator))+1 >= args.MaxDepth {
					return filepath.SkipDir
				}
			}
			return nil
		}
		if len(extSet) > 0 {
			if _, ok := extSet[filepath.Ext(path)]; !ok {
				return nil
			}
		}
		if args.Pattern != "" {
			if ok, _ := filepath.Match(args.Pattern, d.Name()); !ok {
				return nil
			}
		}
		rel, _ := filepath.Rel(t.root.base, path)
		matches = append(matches, rel)
		return nil
	})
	if err != nil {
		return tool.Failure(err.Error()), nil
	}
	return tool.Success(strings.Join(matches, "\n")), nil
}

// ---- search_files ----

type searchFiles struct{ root *Root }

// NewSearchFiles constructs the search_files tool.
func NewSearchFiles(root *Root) tool.Tool { return searchFiles{root} }

func (searchFiles) Name() string        { return "search_files" }
func (searchFiles) Description() string { return "Searches file contents for a regex pattern, returning matching path:line:text entries." }
func (t searchFiles) Definition() tool.Definition {
	return def(t.Name(), t.Description(), map[string]tool.PropertySchema{
		"path":    {Type: "string", Description: "Directory to search, relative to the project root (default '.')"},
		"pattern": {Type: "string", Description: "Regex pattern to search for"},
	}, "pattern")
}
func (searchFiles) IsBlocking() bool { return true }
func (t searchFiles) Execute(ctx context.Context, rawArgs string) (tool.Output, error) {
	var args struct{ Path, Pattern string }
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return tool.Failure(err.Error()), nil
	}
	if args.Path == "" {
		args.Path = "."
	}
	re, err := regexp.Compile(args.Pattern)
	if err != nil {
		return tool.Failure(fmt.Sprintf("invalid pattern: %v", err)), nil
	}
	startFull, err := t.root.Resolve(args.Path)
	if err != nil {
		return tool.Failure(err.Error()), nil
	}

	var hits []string
	_ = filepath.WalkDir(startFull, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		rel, _ := filepath.Rel(t.root.base, path)
		for i, line := range strings.Split(string(data), "\n") {
			if re.MatchString(line) {
				hits = append(hits, fmt.Sprintf("%s:%d:%s", rel, i+1, line))
			}
		}
		return nil
	})
	return tool.Success(strings.Join(hits, "\n")), nil
}
