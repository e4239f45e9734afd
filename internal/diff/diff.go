// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package diff renders line based unified diffs of properties files for
// dry run previews.
package diff

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Result is a rendered diff and its statistics.
type Result struct {
	Unified string
	Added   int
	Deleted int
}

// Empty reports whether there were no changes.
func (r Result) Empty() bool {
	return r.Added == 0 && r.Deleted == 0
}

// Summary returns a short description of the changes.
func (r Result) Summary() string {
	if r.Empty() {
		return "no changes"
	}
	return fmt.Sprintf("+%d -%d lines", r.Added, r.Deleted)
}

// Generator renders diffs.
type Generator struct {
	colorEnabled bool
}

// NewGenerator returns a Generator which colours its output when
// colorEnabled is set.
func NewGenerator(colorEnabled bool) *Generator {
	return &Generator{colorEnabled: colorEnabled}
}

// Unified diffs two file contents line by line. Every line of the file is
// shown, so the whole file fits in a single hunk.
func (g *Generator) Unified(before, after, filename string) Result {
	if before == after {
		return Result{}
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var (
		body     strings.Builder
		res      Result
		oldCount int
		newCount int
	)
	for _, d := range diffs {
		for _, line := range splitLines(d.Text) {
			switch d.Type {
			case diffmatchpatch.DiffInsert:
				res.Added++
				newCount++
				body.WriteString(g.colorize("+"+line+"\n", color.FgGreen))
			case diffmatchpatch.DiffDelete:
				res.Deleted++
				oldCount++
				body.WriteString(g.colorize("-"+line+"\n", color.FgRed))
			default:
				oldCount++
				newCount++
				body.WriteString(" " + line + "\n")
			}
		}
	}

	var sb strings.Builder
	sb.WriteString(g.colorize("--- a/"+filename+"\n", color.FgRed))
	sb.WriteString(g.colorize("+++ b/"+filename+"\n", color.FgGreen))
	sb.WriteString(g.colorize(fmt.Sprintf("@@ -%d,%d +%d,%d @@\n", start(oldCount), oldCount, start(newCount), newCount), color.FgCyan))
	sb.WriteString(body.String())
	res.Unified = sb.String()
	return res
}

func (g *Generator) colorize(text string, attrs ...color.Attribute) string {
	if !g.colorEnabled {
		return text
	}
	c := color.New(attrs...)
	c.EnableColor()
	return c.Sprint(text)
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

// start is the first line number of a hunk, which is 0 for an empty side.
func start(count int) int {
	if count == 0 {
		return 0
	}
	return 1
}
