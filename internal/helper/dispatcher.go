// Package helper implements the remote-helper dispatcher: the
// line-oriented request/response loop git drives over this process's
// stdin/stdout.
package helper

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/abstracted-labs/inv4-git/internal/inv4err"
	"github.com/abstracted-labs/inv4-git/internal/objects"
	"github.com/abstracted-labs/inv4-git/internal/sync"
)

// Logger is the narrow logging capability the dispatcher needs.
type Logger interface {
	Info(msg string, keyValues ...interface{})
	Error(msg string, keyValues ...interface{})
}

// Dispatcher reads one newline-terminated command per iteration from
// in and writes responses to out. Commands are processed strictly
// sequentially; no command begins before the previous response has
// been fully written.
type Dispatcher struct {
	session  *sync.Session
	manifest *objects.RepoData
	repoID   uint32
	subasset uint32
	log      Logger

	in  *bufio.Scanner
	out io.Writer
}

// New builds a dispatcher over an already-loaded manifest. The
// manifest is read once at session startup and owned exclusively by
// the dispatcher for the session's duration.
func New(session *sync.Session, manifest *objects.RepoData, repoID, subassetID uint32, log Logger, in io.Reader, out io.Writer) *Dispatcher {
	return &Dispatcher{
		session:  session,
		manifest: manifest,
		repoID:   repoID,
		subasset: subassetID,
		log:      log,
		in:       bufio.NewScanner(in),
		out:      out,
	}
}

// Run drives the loop until EOF, returning nil on a clean exit.
func (d *Dispatcher) Run() error {
	for d.in.Scan() {
		line := d.in.Text()
		if line == "" {
			continue
		}
		if err := d.dispatch(line); err != nil {
			return err
		}
	}
	if err := d.in.Err(); err != nil {
		return err
	}
	return nil
}

func (d *Dispatcher) dispatch(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	switch fields[0] {
	case "capabilities":
		return d.handleCapabilities()
	case "list":
		return d.handleList()
	case "push":
		if len(fields) < 2 {
			return d.writeUnknown()
		}
		return d.handlePush(fields[1])
	case "fetch":
		if len(fields) < 3 {
			return d.writeUnknown()
		}
		return d.handleFetch(fields[1], fields[2])
	default:
		d.log.Error("unrecognized command", "line", line)
		return d.writeUnknown()
	}
}

func (d *Dispatcher) writeUnknown() error {
	if err := d.writeLine("unknown command"); err != nil {
		return err
	}
	return d.writeLine("")
}

func (d *Dispatcher) handleCapabilities() error {
	if err := d.writeLine("push"); err != nil {
		return err
	}
	if err := d.writeLine("fetch"); err != nil {
		return err
	}
	return d.writeLine("")
}

func (d *Dispatcher) handleList() error {
	for name, oid := range d.manifest.Refs {
		if err := d.writeLine(fmt.Sprintf("%s %s", oid, name)); err != nil {
			return err
		}
	}
	return d.writeLine("")
}

func (d *Dispatcher) handlePush(refspec string) error {
	next, err := sync.Push(d.session, d.manifest, refspec)
	dst := refspec
	if i := strings.IndexByte(refspec, ':'); i >= 0 {
		dst = refspec[i+1:]
	}
	dst = strings.TrimPrefix(dst, "+")

	if err != nil {
		d.log.Error("push failed", "refspec", refspec, "error", err.Error())
		if werr := d.writeLine(fmt.Sprintf("error %s %q", dst, userMessage(err))); werr != nil {
			return werr
		}
		return d.writeLine("")
	}

	d.manifest = next
	if werr := d.writeLine(fmt.Sprintf("ok %s", dst)); werr != nil {
		return werr
	}
	return d.writeLine("")
}

func (d *Dispatcher) handleFetch(sha, name string) error {
	if err := sync.Fetch(d.session, d.manifest, sha, name); err != nil {
		d.log.Error("fetch failed", "sha", sha, "name", name, "error", err.Error())
	}
	return d.writeLine("")
}

func (d *Dispatcher) writeLine(s string) error {
	_, err := fmt.Fprintln(d.out, s)
	return err
}

func userMessage(err error) string {
	if inv4err.IsConflict(err) {
		return "ledger rejected swap; repository moved, re-read manifest and retry"
	}
	var perr *inv4err.ProtocolError
	if errors.As(err, &perr) {
		return perr.Msg
	}
	return err.Error()
}
