// Package printer writes styled, human-facing command output.
package printer

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/colonyops/mender/internal/core/styles"
)

type ctxKey struct{}

// Printer writes status lines to out. Errors and warnings go to err so that
// stdout stays usable for piped output.
type Printer struct {
	out io.Writer
	err io.Writer
}

func New(out, err io.Writer) *Printer {
	return &Printer{out: out, err: err}
}

// NewContext returns a copy of ctx carrying p.
func NewContext(ctx context.Context, p *Printer) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// Ctx returns the Printer stored in ctx, or one writing to the standard
// streams.
func Ctx(ctx context.Context) *Printer {
	if p, ok := ctx.Value(ctxKey{}).(*Printer); ok {
		return p
	}
	return New(os.Stdout, os.Stderr)
}

// Out is the writer for plain output.
func (p *Printer) Out() io.Writer { return p.out }

func (p *Printer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *Printer) Infof(format string, args ...any) {
	_, _ = fmt.Fprintln(p.out, styles.LabelStyle.Render(fmt.Sprintf(format, args...)))
}

func (p *Printer) Successf(format string, args ...any) {
	_, _ = fmt.Fprintln(p.out, styles.SuccessStyle.Render(styles.IconCheck+" "+fmt.Sprintf(format, args...)))
}

func (p *Printer) Warnf(format string, args ...any) {
	_, _ = fmt.Fprintln(p.err, styles.WarningStyle.Render(styles.IconWarning+" "+fmt.Sprintf(format, args...)))
}

func (p *Printer) Errorf(format string, args ...any) {
	_, _ = fmt.Fprintln(p.err, styles.ErrorStyle.Render(styles.IconCross+" "+fmt.Sprintf(format, args...)))
}

// Header prints a bold section title.
func (p *Printer) Header(title string) {
	_, _ = fmt.Fprintln(p.out, styles.HeaderStyle.Render(title))
}

// Success prints a success line followed by a muted detail line.
func (p *Printer) Success(title, detail string) {
	p.Successf("%s", title)
	if detail != "" {
		_, _ = fmt.Fprintln(p.out, "  "+styles.MutedStyle.Render(detail))
	}
}
