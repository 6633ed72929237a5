package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/CageChen/fileorganizer/internal/config"
	mfs "github.com/CageChen/fileorganizer/internal/fs"
	"github.com/CageChen/fileorganizer/internal/organize"
	"github.com/CageChen/fileorganizer/internal/report"
	"github.com/CageChen/fileorganizer/internal/scan"
	"github.com/rs/zerolog"
)

// Command names exposed to the GUI.
const (
	CmdScanDirectory  = "scan_directory"
	CmdScanReport     = "scan_report"
	CmdListDirectory  = "list_directory"
	CmdRecentRoots    = "recent_roots"
	CmdGeneratePrompt = "generate_prompt"
	CmdValidatePlan   = "validate_plan"
	CmdSavePlan       = "save_plan"
	CmdLoadPlan       = "load_plan"
)

// RootWatcher is told about every root that was scanned.
type RootWatcher interface {
	AddRoot(root string) error
}

// PathArgs is the argument object of the path-taking commands
type PathArgs struct {
	Path string `json:"path"`
}

// PromptArgs is the argument object of generate_prompt
type PromptArgs struct {
	Path     string `json:"path"`
	MaxFiles int    `json:"max_files,omitempty"`
}

// PlanArgs is the argument object of validate_plan and save_plan
type PlanArgs struct {
	Path string         `json:"path,omitempty"`
	Plan *organize.Plan `json:"plan"`
}

// SavePlanResponse is the result of save_plan
type SavePlanResponse struct {
	Path string `json:"path"`
}

// DirListing is one entry returned by list_directory
type DirListing struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	IsDir bool   `json:"isDir"`
}

// ListResponse is the result of list_directory
type ListResponse struct {
	Path    string       `json:"path"`
	Parent  string       `json:"parent,omitempty"`
	Entries []DirListing `json:"entries"`
}

// Commands implements the built-in commands
type Commands struct {
	cfg      *config.Config
	watcher  RootWatcher
	scanner  *scan.Scanner
	renderer *report.Renderer
	planPath string
	logger   zerolog.Logger
}

// NewCommands creates the built-in commands. watcher may be nil.
func NewCommands(cfg *config.Config, watcher RootWatcher, logger zerolog.Logger) *Commands {
	logger = logger.With().Str("component", "commands").Logger()
	var onError scan.ErrorHandler = scan.SkipSilently
	if cfg.Verbose {
		onError = scan.LogSkips(logger)
	}
	return &Commands{
		cfg:      cfg,
		watcher:  watcher,
		scanner:  scan.New(scan.WithErrorHandler(onError)),
		renderer: report.NewRenderer(),
		planPath: filepath.Join(filepath.Dir(cfg.GetConfigFilePath()), "plan.json"),
		logger:   logger,
	}
}

// Register adds every built-in command to r
func (c *Commands) Register(r *Registry) {
	r.Register(CmdScanDirectory, c.ScanDirectory)
	r.Register(CmdScanReport, c.ScanReport)
	r.Register(CmdListDirectory, c.ListDirectory)
	r.Register(CmdRecentRoots, c.RecentRoots)
	r.Register(CmdGeneratePrompt, c.GeneratePrompt)
	r.Register(CmdValidatePlan, c.ValidatePlan)
	r.Register(CmdSavePlan, c.SavePlan)
	r.Register(CmdLoadPlan, c.LoadPlan)
}

// ScanDirectory returns the metadata of every file below args.path. The path is
// not validated; a missing or unreadable root gives an empty list.
func (c *Commands) ScanDirectory(ctx context.Context, args json.RawMessage) (any, error) {
	var req PathArgs
	if err := decodeArgs(args, &req); err != nil {
		return nil, err
	}

	res, err := awaitScan(ctx, c.scanner, req.Path)
	if err != nil {
		return nil, err
	}
	c.logger.Info().Str("root", req.Path).Int("files", len(res.Files)).Msg("scan finished")
	c.remember(req.Path)
	return res.Files, nil
}

// ScanReport scans args.path while collecting skipped paths and returns a rendered summary.
func (c *Commands) ScanReport(ctx context.Context, args json.RawMessage) (any, error) {
	var req PathArgs
	if err := decodeArgs(args, &req); err != nil {
		return nil, err
	}

	var skipped []scan.SkippedPath
	onError := scan.Collect(&skipped)
	if c.cfg.Verbose {
		onError = scan.Chain(onError, scan.LogSkips(c.logger))
	}
	scanner := scan.New(scan.WithErrorHandler(onError))

	res, err := awaitScan(ctx, scanner, req.Path)
	if err != nil {
		return nil, err
	}
	c.remember(req.Path)
	return report.Build(c.renderer, req.Path, res.Files, skipped)
}

// ListDirectory lists one level of args.path, directories first. An empty path
// lists the user's home directory. Unlike the scan commands it reports errors.
func (c *Commands) ListDirectory(_ context.Context, args json.RawMessage) (any, error) {
	var req PathArgs
	if err := decodeArgs(args, &req); err != nil {
		return nil, err
	}

	path := req.Path
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = home
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	entries, err := mfs.NewLocalFS(path).ReadDir("")
	if err != nil {
		return nil, err
	}

	// Sort: directories first, then files, both alphabetically
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})

	resp := ListResponse{Path: path, Entries: make([]DirListing, 0, len(entries))}
	if parent := filepath.Dir(path); parent != path {
		resp.Parent = parent
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, DirListing{
			Name:  e.Name,
			Path:  filepath.Join(path, e.Name),
			IsDir: e.IsDir,
		})
	}
	return resp, nil
}

// RecentRoots returns the recently scanned roots
func (c *Commands) RecentRoots(context.Context, json.RawMessage) (any, error) {
	return c.cfg.RecentRoots(), nil
}

// GeneratePrompt scans args.path and returns a prompt asking for a
// reorganization plan of a diverse sample of its files.
func (c *Commands) GeneratePrompt(ctx context.Context, args json.RawMessage) (any, error) {
	var req PromptArgs
	if err := decodeArgs(args, &req); err != nil {
		return nil, err
	}
	if req.MaxFiles < 0 {
		return nil, fmt.Errorf("%w: max_files must not be negative", ErrBadArgs)
	}

	res, err := awaitScan(ctx, c.scanner, req.Path)
	if err != nil {
		return nil, err
	}
	prompt, err := organize.BuildPrompt(req.Path, res.Files, req.MaxFiles)
	if err != nil {
		return nil, err
	}
	c.logger.Info().Str("root", req.Path).Int("files", prompt.TotalFiles).Int("sampled", prompt.Sampled).Msg("prompt generated")
	return prompt, nil
}

// ValidatePlan checks args.plan against the files under args.path.
func (c *Commands) ValidatePlan(_ context.Context, args json.RawMessage) (any, error) {
	var req PlanArgs
	if err := decodeArgs(args, &req); err != nil {
		return nil, err
	}
	if req.Plan == nil {
		return nil, fmt.Errorf("%w: plan is required", ErrBadArgs)
	}
	return organize.Check(req.Plan, req.Path), nil
}

// SavePlan stores args.plan next to the config file.
func (c *Commands) SavePlan(_ context.Context, args json.RawMessage) (any, error) {
	var req PlanArgs
	if err := decodeArgs(args, &req); err != nil {
		return nil, err
	}
	if req.Plan == nil {
		return nil, fmt.Errorf("%w: plan is required", ErrBadArgs)
	}
	if err := organize.SavePlan(c.planPath, req.Plan); err != nil {
		return nil, err
	}
	return SavePlanResponse{Path: c.planPath}, nil
}

// LoadPlan returns the plan stored by save_plan.
func (c *Commands) LoadPlan(context.Context, json.RawMessage) (any, error) {
	return organize.LoadPlan(c.planPath)
}

// awaitScan runs the scan off the caller's goroutine. If ctx ends first the
// caller gets ctx.Err() and the walk finishes unobserved.
func awaitScan(ctx context.Context, s *scan.Scanner, root string) (scan.Result, error) {
	select {
	case res := <-s.ScanAsync(root):
		return res, nil
	case <-ctx.Done():
		return scan.Result{}, ctx.Err()
	}
}

// remember records an existing directory root in the config and starts watching it.
func (c *Commands) remember(root string) {
	info, err := mfs.NewLocalFS(root).Stat("")
	if err != nil || !info.IsDir {
		return
	}

	if c.cfg.AddRecent(root) {
		if err := c.cfg.Save(); err != nil {
			c.logger.Warn().Err(err).Msg("failed to save recent roots")
		}
	}
	if c.cfg.Watch && c.watcher != nil {
		if err := c.watcher.AddRoot(root); err != nil {
			c.logger.Warn().Str("root", root).Err(err).Msg("failed to watch root")
		}
	}
}
