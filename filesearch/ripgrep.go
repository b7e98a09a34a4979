package filesearch

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/poiesic/fileoracle/core"
)

// Ripgrep implements Searcher by running the rg binary.
type Ripgrep struct {
	binary string
	limits Limits
	logger *slog.Logger
}

var _ Searcher = (*Ripgrep)(nil)

// NewRipgrep locates rg on PATH. Returns ErrToolNotFound when it is missing.
func NewRipgrep(limits Limits, logger *slog.Logger) (*Ripgrep, error) {
	binary, err := lookPath("rg")
	if err != nil {
		return nil, ErrToolNotFound
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ripgrep{
		binary: binary,
		limits: limits,
		logger: logger.With("component", "ripgrep"),
	}, nil
}

// ByName lists files whose names match *keyword* case-insensitively.
func (r *Ripgrep) ByName(ctx context.Context, keyword, dir string) ([]string, core.Outcome) {
	if strings.TrimSpace(keyword) == "" {
		return nil, core.OutcomeEmpty
	}
	return r.run(ctx, "name", keyword, dir, r.nameArgs(keyword, dir))
}

// ByContent lists files whose contents contain keyword case-insensitively.
func (r *Ripgrep) ByContent(ctx context.Context, keyword, dir string) ([]string, core.Outcome) {
	if strings.TrimSpace(keyword) == "" {
		return nil, core.OutcomeEmpty
	}
	return r.run(ctx, "content", keyword, dir, r.contentArgs(keyword, dir))
}

func (r *Ripgrep) nameArgs(keyword, dir string) []string {
	args := []string{"--files", "--no-ignore", "--no-messages", "--iglob", "*" + escapeGlob(keyword) + "*"}
	args = append(args, r.exclusionArgs()...)
	return append(args, "--", dir)
}

func (r *Ripgrep) contentArgs(keyword, dir string) []string {
	args := []string{"--files-with-matches", "--no-ignore", "--ignore-case", "--fixed-strings", "--no-messages"}
	if r.limits.MaxDepth > 0 {
		args = append(args, "--max-depth", strconv.Itoa(r.limits.MaxDepth))
	}
	if r.limits.MaxFileSize > 0 {
		args = append(args, "--max-filesize", strconv.FormatInt(r.limits.MaxFileSize, 10))
	}
	args = append(args, r.exclusionArgs()...)
	for _, ext := range r.limits.BinaryExtensions {
		args = append(args, "--iglob", "!*"+ext)
	}
	return append(args, "--", keyword, dir)
}

func (r *Ripgrep) exclusionArgs() []string {
	args := make([]string, 0, 2*len(r.limits.ExcludeDirs))
	for _, d := range r.limits.ExcludeDirs {
		args = append(args, "--glob", "!"+d+"/")
	}
	return args
}

func (r *Ripgrep) run(ctx context.Context, channel, keyword, dir string, args []string) ([]string, core.Outcome) {
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		r.logger.Debug("search directory unavailable", "channel", channel, "dir", dir, "err", err)
		return nil, core.OutcomeNotFound
	}
	if r.limits.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.limits.Timeout)
		defer cancel()
	}

	r.logger.Debug("running ripgrep",
		"channel", channel,
		"keyword", keyword,
		"dir", dir)

	cmd := exec.CommandContext(ctx, r.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()

	if ctx.Err() != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			r.logger.Warn("search timed out", "channel", channel, "keyword", keyword, "dir", dir, "timeout", r.limits.Timeout)
			return nil, core.OutcomeTimedOut
		}
		return nil, core.OutcomeServiceError
	}

	paths := parseLines(stdout.Bytes())
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			// rg exits 1 when nothing matched
			return nil, core.OutcomeEmpty
		}
		if len(paths) == 0 {
			r.logger.Warn("ripgrep failed", "channel", channel, "keyword", keyword, "dir", dir,
				"stderr", strings.TrimSpace(stderr.String()), "err", err)
			return nil, core.OutcomeServiceError
		}
		// Exit code 2 with output means some paths were unreadable; keep what matched
		r.logger.Debug("ripgrep reported partial errors", "channel", channel, "dir", dir, "err", err)
	}

	if len(paths) == 0 {
		return nil, core.OutcomeEmpty
	}
	return paths, core.OutcomeOK
}

func parseLines(out []byte) []string {
	var paths []string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			paths = append(paths, line)
		}
	}
	return paths
}

// escapeGlob escapes glob metacharacters so keyword matches literally.
func escapeGlob(keyword string) string {
	var b strings.Builder
	for _, r := range keyword {
		switch r {
		case '*', '?', '[', ']', '{', '}', '\\', '!':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
