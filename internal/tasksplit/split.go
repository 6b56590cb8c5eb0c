// Package tasksplit implements the Task Splitter (spec.md §4.11): when a
// task is too large for one pipeline run, it chunks the task text (LLM-
// assisted heading grouping with a heuristic fallback) and invokes
// internal/pipeline once per chunk, threading each chunk's final summary
// forward as carry-over context. Manifest/chunk persistence is grounded
// on the teacher's internal/service/workflow/manifest_fs.go
// ComprehensiveTaskManifest/TaskManifestItem shapes, repurposed from
// "scan a directory of pre-written task-*.md files" to "split one big
// task into chunk_###.md files and track them the same way."
package tasksplit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/hugo-lorenzo-mato/quorum-forge/internal/cliadapter"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/core"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/fsutil"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/pipeline"
	"github.com/hugo-lorenzo-mato/quorum-forge/internal/prompt"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// slug lowercases s and collapses every run of non-alphanumeric
// characters into a single hyphen, trimming leading/trailing hyphens.
// No slugify library appears anywhere in the retrieved example pack;
// this is a small enough transform that DESIGN.md justifies it as a
// standard-library edge rather than reaching for an unexercised
// dependency.
func slug(s string) string {
	lowered := strings.ToLower(s)
	replaced := nonSlugChars.ReplaceAllString(lowered, "-")
	return strings.Trim(replaced, "-")
}

// Run implements spec.md §4.11's run_split(pipeline, args, cfg): load
// task text, decide whether to split, plan chunks (LLM-first, heuristic
// fallback), run the pipeline once per pending chunk with carry-over
// context, and persist the manifest after each chunk.
func Run(ctx context.Context, p *pipeline.Pipeline, args pipeline.RunArgs, cfg *core.AppConfig, noResume bool) (int, error) {
	taskSource, taskText, err := loadTaskText(args.Workdir, args.Task)
	if err != nil {
		return 1, err
	}

	if !shouldSplit(taskText, cfg.TaskSplit, cfg.PromptLimits.TokenChars) {
		result, err := p.Run(ctx, args)
		if err != nil {
			return 1, err
		}
		return result.ReturnCode, nil
	}

	sum := sha256.Sum256([]byte(taskText))
	splitID := fmt.Sprintf("%s_%s", slug(nonEmpty(taskSource, "inline_task")), hex.EncodeToString(sum[:])[:8])

	splitDir := filepath.Join(args.Workdir, renderOutputDir(cfg.TaskSplit.OutputDirTemplate, splitID))
	tasksDir := filepath.Join(splitDir, "tasks")
	if err := os.MkdirAll(tasksDir, 0o755); err != nil {
		return 1, core.ErrState(core.CodeStateCorrupted, "creating split dir: "+err.Error())
	}

	manifest, err := loadManifest(splitDir)
	if err != nil {
		return 1, err
	}
	canResume := cfg.TaskSplit.AutoResume && !noResume
	if manifest == nil || !canResume {
		manifest, err = planChunks(cfg, p.Providers, splitDir, splitID, taskSource, taskText)
		if err != nil {
			return 1, err
		}
		if err := saveManifest(splitDir, manifest); err != nil {
			return 1, err
		}
	}

	carryOver := ""
	anyFailed := false
	for i := range manifest.Chunks {
		chunk := &manifest.Chunks[i]
		if chunk.Status != core.ChunkPending {
			if chunk.Status == core.ChunkFailed {
				anyFailed = true
			}
			if chunk.Summary != "" {
				carryOver = chunk.Summary
			}
			continue
		}

		taskPath, err := writeChunkTask(tasksDir, chunk, carryOver, cfg.TaskSplit.CarryOverMaxChars)
		if err != nil {
			return 1, err
		}

		chunkArgs := args
		chunkArgs.Task = "@" + taskPath
		chunkArgs.RunIDOverride = fmt.Sprintf("%s-%s-%s", splitID, chunk.ID, time.Now().UTC().Format("20060102-150405"))

		result, runErr := p.Run(ctx, chunkArgs)
		if runErr != nil || result.ReturnCode != 0 {
			chunk.Status = core.ChunkFailed
			anyFailed = true
			if result != nil {
				rc := result.ReturnCode
				chunk.ReturnCode = &rc
			}
		} else {
			chunk.Status = core.ChunkDone
			rc := result.ReturnCode
			chunk.ReturnCode = &rc
		}

		if result != nil {
			summaryPath := filepath.Join(result.RunDir, "final_summary.txt")
			if data, readErr := fsutil.ReadFileScoped(summaryPath); readErr == nil {
				summary := prompt.Summarize(string(data), cfg.TaskSplit.CarryOverMaxChars)
				chunk.Summary = summary
				carryOver = summary
				_ = fsutil.AtomicWriteFile(filepath.Join(splitDir, "carry_over.md"), []byte(summary), 0o644)
			}
		}

		if err := saveManifest(splitDir, manifest); err != nil {
			return 1, err
		}
	}

	if anyFailed {
		return 1, nil
	}
	return 0, nil
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// renderOutputDir substitutes "<split_id>" in the configured template, or
// falls back to "task_splits/<split_id>" if none was configured.
func renderOutputDir(tmpl, splitID string) string {
	if tmpl == "" {
		tmpl = "task_splits/<split_id>"
	}
	return strings.ReplaceAll(tmpl, "<split_id>", splitID)
}

// loadTaskText returns (source, text): source is the "@path" the task
// came from ("" for inline text), mirroring spec.md §4.11 step 3's
// "task_source or inline_task".
func loadTaskText(workdir, raw string) (source, text string, err error) {
	if !strings.HasPrefix(raw, "@") {
		return "", raw, nil
	}
	rel := strings.TrimPrefix(raw, "@")
	path := rel
	if !filepath.IsAbs(path) {
		path = filepath.Join(workdir, rel)
	}
	data, readErr := fsutil.ReadFileScoped(path)
	if readErr != nil {
		return "", "", core.ErrValidation("TASK_FILE_UNREADABLE", fmt.Sprintf("reading task file %q: %v", path, readErr))
	}
	return rel, string(data), nil
}

// planChunks implements spec.md §4.11 step 6: try an LLM plan over
// heading groups, fall back to the heuristic splitter, then write each
// chunk as chunk_###.md and build the initial manifest.
func planChunks(cfg *core.AppConfig, providers *cliadapter.Registry, splitDir, splitID, taskSource, taskText string) (*core.SplitManifest, error) {
	blocks := splitBlocks(taskText)
	n := headingCount(blocks)

	var texts []string
	if n > 0 && n <= cfg.TaskSplit.LLMMaxHeadings {
		if groups := planWithLLM(providers, cfg.TaskSplit.LLMTimeoutSec, blocks); groups != nil {
			for _, g := range groups {
				var parts []string
				for _, b := range blocks[g.Start-1 : g.End] {
					parts = append(parts, b.body)
				}
				texts = append(texts, strings.Join(parts, "\n"))
			}
		}
	}

	if len(texts) == 0 {
		texts = planHeuristic(blocks, cfg.TaskSplit.HeuristicMaxChars, cfg.TaskSplit.ChunkMinChars)
	}
	if len(texts) == 0 {
		texts = []string{taskText}
	}

	manifest := &core.SplitManifest{SplitID: splitID, Source: taskSource}
	for i, text := range texts {
		chunkID := fmt.Sprintf("chunk_%03d", i+1)
		chunkFile := filepath.Join(splitDir, chunkID+".md")
		if err := fsutil.AtomicWriteFile(chunkFile, []byte(text), 0o644); err != nil {
			return nil, core.ErrState(core.CodeStateCorrupted, "writing "+chunkID+": "+err.Error())
		}
		manifest.Chunks = append(manifest.Chunks, core.ManifestChunk{
			ID: chunkID, File: chunkFile, Status: core.ChunkPending,
		})
	}
	return manifest, nil
}

// writeChunkTask composes task_###.md = base chunk + (if carryOver is
// non-empty) an appended "Kontext aus vorherigem Run" block truncated to
// carryOverMaxChars, per spec.md §4.11 step 7.
func writeChunkTask(tasksDir string, chunk *core.ManifestChunk, carryOver string, carryOverMaxChars int) (string, error) {
	base, err := fsutil.ReadFileScoped(chunk.File)
	if err != nil {
		return "", core.ErrState(core.CodeStateCorrupted, "reading "+chunk.ID+": "+err.Error())
	}

	text := string(base)
	if carryOver != "" {
		truncated := prompt.Summarize(carryOver, carryOverMaxChars)
		text = text + "\n\n## Kontext aus vorherigem Run\n" + truncated
	}

	taskPath := filepath.Join(tasksDir, "task_"+strings.TrimPrefix(chunk.ID, "chunk_")+".md")
	if err := fsutil.AtomicWriteFile(taskPath, []byte(text), 0o644); err != nil {
		return "", core.ErrState(core.CodeStateCorrupted, "writing task file for "+chunk.ID+": "+err.Error())
	}
	return taskPath, nil
}
