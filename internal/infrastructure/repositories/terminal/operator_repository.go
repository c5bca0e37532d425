package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-git/go-git/v5/config"
	logger "github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/spine-tools/spine-conductor/internal/domain/entities"
	"github.com/spine-tools/spine-conductor/internal/domain/repositories"
)

const editMessageMode = 0o644

//nolint:gochecknoglobals // styles are immutable
var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#9B59B6"))
	indexStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	promptStyle = lipgloss.NewStyle().Bold(true)
)

// OperatorRepository talks to the person at the terminal: indexed selections
// on stdin and commit messages through their editor.
type OperatorRepository struct {
	in          *bufio.Reader
	out         io.Writer
	interactive bool
	getenv      func(string) string
	coreEditor  func() string
}

var _ repositories.OperatorRepository = (*OperatorRepository)(nil)

// NewOperatorRepository binds the operator to the process stdio.
func NewOperatorRepository() *OperatorRepository {
	return &OperatorRepository{
		in:          bufio.NewReader(os.Stdin),
		out:         os.Stdout,
		interactive: term.IsTerminal(int(os.Stdin.Fd())),
		getenv:      os.Getenv,
		coreEditor:  globalCoreEditor,
	}
}

// NewScriptedOperatorRepository reads answers from in instead of a terminal.
func NewScriptedOperatorRepository(in io.Reader, out io.Writer) *OperatorRepository {
	return &OperatorRepository{
		in:          bufio.NewReader(in),
		out:         out,
		interactive: true,
		getenv:      func(string) string { return "" },
		coreEditor:  func() string { return "" },
	}
}

// WithEnvironment overrides the environment and git config lookups used to
// find the editor.
func (o *OperatorRepository) WithEnvironment(getenv func(string) string, coreEditor string) *OperatorRepository {
	o.getenv = getenv
	o.coreEditor = func() string { return coreEditor }
	return o
}

func (o *OperatorRepository) Choose(ctx context.Context, header string, choices []string) ([]int, error) {
	if !o.interactive {
		return nil, entities.Errorf(entities.UserInputErr, "an interactive terminal is required to answer %q", header)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fmt.Fprintln(o.out, headerStyle.Render(header))
	for i, choice := range choices {
		fmt.Fprintf(o.out, "  %s %s\n", indexStyle.Render(fmt.Sprintf("[%d]", i)), choice)
	}
	fmt.Fprint(o.out, promptStyle.Render("Select (comma or space separated indices, empty for none): "))

	line, err := o.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, entities.Errorf(entities.UserInputErr, "failed to read answer: %w", err)
	}
	return ParseSelection(line, len(choices))
}

// ParseSelection turns "0, 2 3" into indices below limit, dropping duplicates.
func ParseSelection(answer string, limit int) ([]int, error) {
	fields := strings.FieldsFunc(answer, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	seen := make(map[int]bool, len(fields))
	selected := make([]int, 0, len(fields))
	for _, field := range fields {
		index, err := strconv.Atoi(field)
		if err != nil {
			return nil, entities.Errorf(entities.UserInputErr, "%q is not an index", field)
		}
		if index < 0 || index >= limit {
			return nil, entities.Errorf(entities.UserInputErr, "index %d is out of range [0, %d)", index, limit)
		}
		if !seen[index] {
			seen[index] = true
			selected = append(selected, index)
		}
	}
	return selected, nil
}

func (o *OperatorRepository) Edit(ctx context.Context, path, text string) (string, error) {
	if err := os.WriteFile(path, []byte(text), editMessageMode); err != nil {
		return "", fmt.Errorf("failed to write %q: %w", path, err)
	}

	fields := strings.Fields(o.editor())
	if len(fields) == 0 {
		return "", entities.ErrEditorCancelled
	}
	//nolint:gosec // the editor comes from the operator's own configuration
	cmd := exec.CommandContext(ctx, fields[0], append(fields[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		logger.Debugf("Editor %q failed: %v", fields[0], err)
		return "", entities.ErrEditorCancelled
	}

	edited, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %q: %w", path, err)
	}
	return string(edited), nil
}

func (o *OperatorRepository) editor() string {
	return ResolveEditor(o.getenv, o.coreEditor())
}

// ResolveEditor picks the editor the way git does: GIT_EDITOR, core.editor,
// VISUAL, EDITOR, then the platform default.
func ResolveEditor(getenv func(string) string, coreEditor string) string {
	candidates := []string{getenv("GIT_EDITOR"), coreEditor, getenv("VISUAL"), getenv("EDITOR")}
	for _, candidate := range candidates {
		if strings.TrimSpace(candidate) != "" {
			return candidate
		}
	}
	if runtime.GOOS == "windows" {
		return "notepad"
	}
	return "vi"
}

func globalCoreEditor() string {
	cfg, err := config.LoadConfig(config.GlobalScope)
	if err != nil {
		logger.Debugf("Failed to read global git config: %v", err)
		return ""
	}
	return cfg.Raw.Section("core").Option("editor")
}
