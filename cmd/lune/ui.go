package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Style definitions
var (
	primaryColor = lipgloss.Color("#a78bfa")
	successColor = lipgloss.Color("#10b981")
	warningColor = lipgloss.Color("#f59e0b")
	errorColor   = lipgloss.Color("#ef4444")
	mutedColor   = lipgloss.Color("#94a3b8")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	successStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(warningColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)
)

// printer writes human status lines unless the project is silent
type printer struct {
	w      io.Writer
	root   string
	silent bool
}

func (p printer) title(msg string) {
	if !p.silent {
		fmt.Fprintln(p.w, titleStyle.Render(msg))
	}
}

func (p printer) compiled(source string, deps []string, cached bool) {
	if p.silent {
		return
	}
	line := successStyle.Render("✓ ") + p.rel(source)
	if cached {
		line += mutedStyle.Render(" (cached)")
	}
	if len(deps) > 0 {
		line += mutedStyle.Render("  deps: " + strings.Join(deps, ", "))
	}
	fmt.Fprintln(p.w, line)
}

func (p printer) removed(source string) {
	if !p.silent {
		fmt.Fprintln(p.w, warningStyle.Render("− ")+p.rel(source))
	}
}

func (p printer) failed(source string, err error) {
	if !p.silent {
		fmt.Fprintln(p.w, errorStyle.Render("✗ ")+p.rel(source)+": "+err.Error())
	}
}

func (p printer) summary(ok, failed int) {
	if p.silent {
		return
	}
	msg := fmt.Sprintf("%d compiled", ok)
	if failed > 0 {
		fmt.Fprintln(p.w, errorStyle.Render(fmt.Sprintf("%s, %d failed", msg, failed)))
		return
	}
	fmt.Fprintln(p.w, successStyle.Render(msg))
}

func (p printer) rel(path string) string {
	if rel, err := filepath.Rel(p.root, path); err == nil {
		return rel
	}
	return path
}
