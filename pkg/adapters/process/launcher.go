package process

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// BrowserCommand is the name of the command used to open URLs.
const BrowserCommand = "browser"

// Launcher starts local processes from an allow-list of named commands.
// Targets are appended as the last argument and exported as LATTICE_TARGET,
// never interpolated into a shell line.
type Launcher struct {
	commands map[string]Command
	baseDir  string
}

// Command is an allowed executable with its fixed leading arguments.
type Command struct {
	Path string
	Args []string
}

// LauncherOption configures the launcher.
type LauncherOption func(*Launcher)

// WithCommands adds commands loaded from a configuration file.
func WithCommands(cmds map[string]CommandConfig) LauncherOption {
	return func(l *Launcher) {
		for name, c := range cmds {
			l.Register(name, c.Command, c.Args...)
		}
	}
}

// WithCommand overrides a single command.
func WithCommand(name, path string, args ...string) LauncherOption {
	return func(l *Launcher) {
		l.Register(name, path, args...)
	}
}

// WithBaseDir sets the working directory for launched processes.
func WithBaseDir(dir string) LauncherOption {
	return func(l *Launcher) {
		l.baseDir = dir
	}
}

// NewLauncher creates a launcher whose "browser" command is the platform
// URL opener.
func NewLauncher(opts ...LauncherOption) *Launcher {
	l := &Launcher{
		commands: make(map[string]Command),
	}
	path, args := defaultBrowser()
	l.Register(BrowserCommand, path, args...)

	for _, opt := range opts {
		opt(l)
	}
	return l
}

func defaultBrowser() (string, []string) {
	switch runtime.GOOS {
	case "darwin":
		return "open", nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler"}
	default:
		return "xdg-open", nil
	}
}

// Register adds a trusted command to the allow-list.
func (l *Launcher) Register(name, path string, args ...string) {
	l.commands[name] = Command{Path: path, Args: args}
}

// Lookup returns the command registered under name.
func (l *Launcher) Lookup(name string) (Command, bool) {
	c, ok := l.commands[name]
	return c, ok
}

// Open opens target with the browser command.
func (l *Launcher) Open(ctx context.Context, target string) error {
	_, err := l.Run(ctx, BrowserCommand, target)
	return err
}

// Run executes the named command with target and returns its trimmed
// standard output.
func (l *Launcher) Run(ctx context.Context, name, target string) (string, error) {
	c, ok := l.commands[name]
	if !ok {
		return "", fmt.Errorf("command not registered: %s", name)
	}

	args := append(append([]string(nil), c.Args...), target)
	cmd := exec.CommandContext(ctx, c.Path, args...)
	cmd.Dir = l.baseDir
	cmd.Env = append(cmd.Environ(), "LATTICE_TARGET="+target)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("execution failed: %w. Stderr: %s", err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}
