package sharding

import (
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/hugo-lorenzo-mato/quorum-forge/internal/core"
)

// filePathPattern matches file-path-looking tokens: back-ticked names,
// markdown link targets, and bare paths containing a slash or a common
// extension. It deliberately excludes URLs (http://, https://).
var filePathPattern = regexp.MustCompile(
	"`([^`\\s]+\\.[A-Za-z0-9]+)`" + // `path/to/file.go`
		"|\\[[^\\]]*\\]\\(([^)\\s]+)\\)" + // [text](path/to/file.go)
		"|\\b([\\w./-]+/[\\w./-]+\\.[A-Za-z0-9]+)\\b", // bare/path/file.ext
)

// planFiles implements spec.md §4.9's "files" strategy: scan for
// file-path-looking tokens, group by top-level directory, one shard per
// group with allowed_paths = ["<dir>/**"] (or the explicit file list for
// root-level files). Returns nil when no paths are found so the caller
// falls back to the heading strategy.
func planFiles(taskText string, maxFilesPerShard int) []core.Shard {
	paths := extractPaths(taskText)
	if len(paths) == 0 {
		return nil
	}

	groups := map[string][]string{}
	var dirOrder []string
	for _, p := range paths {
		dir := topLevelDir(p)
		if _, ok := groups[dir]; !ok {
			dirOrder = append(dirOrder, dir)
		}
		groups[dir] = append(groups[dir], p)
	}
	sort.Strings(dirOrder)

	var shards []core.Shard
	for _, dir := range dirOrder {
		files := dedupStrings(groups[dir])
		sort.Strings(files)

		chunks := chunkFiles(files, maxFilesPerShard)
		for _, chunk := range chunks {
			var allowed []string
			if dir == "." {
				allowed = append(allowed, chunk...)
			} else {
				allowed = append(allowed, dir+"/**")
			}
			shards = append(shards, core.Shard{
				ID:           shardID(len(shards)),
				Title:        dir,
				Content:      taskText,
				AllowedPaths: allowed,
			})
		}
	}
	return shards
}

func extractPaths(text string) []string {
	var out []string
	for _, m := range filePathPattern.FindAllStringSubmatch(text, -1) {
		for _, candidate := range m[1:] {
			if candidate == "" {
				continue
			}
			if strings.Contains(candidate, "://") {
				continue
			}
			out = append(out, strings.TrimPrefix(candidate, "./"))
			break
		}
	}
	return out
}

func topLevelDir(p string) string {
	dir := path.Dir(p)
	if dir == "." || dir == "/" {
		return "."
	}
	parts := strings.Split(dir, "/")
	return parts[0]
}

func dedupStrings(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func chunkFiles(files []string, maxPerShard int) [][]string {
	if maxPerShard <= 0 || len(files) <= maxPerShard {
		return [][]string{files}
	}
	var chunks [][]string
	for i := 0; i < len(files); i += maxPerShard {
		end := i + maxPerShard
		if end > len(files) {
			end = len(files)
		}
		chunks = append(chunks, files[i:end])
	}
	return chunks
}
