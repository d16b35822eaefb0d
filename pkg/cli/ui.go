// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cli

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v3"

	"github.com/researchplatform/rpctl/pkg/errors"
	"github.com/researchplatform/rpctl/pkg/serializer"
)

// Console colours of the status lines.
var (
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	titleStyle   = lipgloss.NewStyle().Bold(true)
)

func (a *app) println(style lipgloss.Style, format string, args ...any) {
	fmt.Fprintln(a.stdout, style.Render(fmt.Sprintf(format, args...)))
}

func (a *app) info(format string, args ...any)    { a.println(infoStyle, format, args...) }
func (a *app) success(format string, args ...any) { a.println(successStyle, format, args...) }
func (a *app) warn(format string, args ...any)    { a.println(warnStyle, format, args...) }
func (a *app) fail(format string, args ...any)    { a.println(errorStyle, format, args...) }
func (a *app) title(format string, args ...any)   { a.println(titleStyle, format, args...) }

// soft reports err as a warning and lets the command carry on. It returns
// true when err is nil.
func (a *app) soft(err error, msg string) bool {
	if err == nil {
		return true
	}
	slog.Debug(msg, "error", err)
	a.warn("%s: %s", msg, errorMessage(err))
	return false
}

// errorMessage prefers the message of a structured error over the full chain.
func errorMessage(err error) string {
	var se *errors.StructuredError
	if stderrors.As(err, &se) {
		if se.Cause != nil {
			return se.Message + ": " + se.Cause.Error()
		}
		return se.Message
	}
	return err.Error()
}

// write serializes v in the format chosen with --format to --output or stdout.
func (a *app) write(ctx context.Context, cmd *cli.Command, v any) error {
	format := serializer.Format(cmd.String("format"))

	var w *serializer.Writer
	if out := cmd.String("output"); out != "" {
		w = serializer.NewFileWriterOrStdout(format, out)
	} else {
		w = serializer.NewWriter(format, a.stdout)
	}
	defer func() {
		if err := w.Close(); err != nil {
			slog.Warn("failed to close output", "error", err)
		}
	}()

	if err := w.Serialize(ctx, v); err != nil {
		return fmt.Errorf("failed to serialize output: %w", err)
	}
	return nil
}

// confirm asks a yes/no question on stdin. Anything but y or yes declines.
func (a *app) confirm(prompt string) (bool, error) {
	fmt.Fprint(a.stdout, warnStyle.Render(prompt+" [y/N] "))
	line, err := bufio.NewReader(a.stdin).ReadString('\n')
	if err != nil && line == "" {
		return false, nil
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
