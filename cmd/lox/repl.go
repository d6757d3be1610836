package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"

	"github.com/peterh/liner"

	lox "github.com/brauliobz/crafting-interpreters"
)

const helpText = `REPL commands:
  :help     Show this help
  :globals  List global names
  :quit     Exit the REPL
`

// lineReader is the part of *liner.State the REPL loop needs.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// session holds the persistent interpreter behind a REPL.
type session struct {
	ip     *lox.Interpreter
	out    io.Writer
	errOut io.Writer
}

func (a *app) cmdRepl(args []string) int {
	fs, common := a.newFlagSet("repl")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	cfg, opts, err := a.setup(common)
	if err != nil {
		fmt.Fprintf(a.stderr, "%s: %v\n", appName, err)
		return exitUsage
	}

	lox.EnableColor = true
	fmt.Fprintf(a.stdout, "Lox %s REPL\nCtrl+C cancels input, Ctrl+D exits. Type :help for commands.\n", version)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	histPath := cfg.historyPath()
	loadHistory(ln, histPath)
	var saveOnce sync.Once
	save := func() {
		saveOnce.Do(func() {
			if err := saveHistory(ln, histPath); err != nil {
				fmt.Fprintf(a.stderr, "%s: %v\n", appName, err)
			}
		})
	}
	defer save()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	done := make(chan struct{})
	defer close(done)
	go watchSignals(sigc, done, func(os.Signal) {
		save()
		ln.Close()
		os.Exit(130)
	})

	s := &session{ip: lox.NewInterpreter(a.stdout, opts...), out: a.stdout, errOut: a.stderr}
	s.loop(ln, cfg.Prompt)
	return exitOK
}

// historyStore is the history half of *liner.State.
type historyStore interface {
	ReadHistory(r io.Reader) (int, error)
	WriteHistory(w io.Writer) (int, error)
}

// loadHistory reads path into h. A missing file is not an error.
func loadHistory(h historyStore, path string) {
	if path == "" {
		return
	}
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = h.ReadHistory(f)
}

func saveHistory(h historyStore, path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	if _, err := h.WriteHistory(f); err != nil {
		f.Close()
		return fmt.Errorf("history: write %s: %w", path, err)
	}
	return f.Close()
}

// watchSignals calls onSignal for the first signal on sigc, or returns
// without calling it once done is closed.
func watchSignals(sigc <-chan os.Signal, done <-chan struct{}, onSignal func(os.Signal)) {
	select {
	case sig := <-sigc:
		onSignal(sig)
	case <-done:
	}
}

// loop reads and evaluates inputs until EOF or :quit. Errors are printed and
// the loop continues.
func (s *session) loop(r lineReader, prompt string) {
	for {
		code, ok := readByParseProbe(r, prompt, promptCont)
		if !ok {
			fmt.Fprintln(s.out)
			return
		}
		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ":") {
			if s.command(trimmed) {
				return
			}
			continue
		}
		r.AppendHistory(strings.ReplaceAll(code, "\n", " "))
		if err := s.eval(code); err != nil {
			fmt.Fprintln(s.errOut, lox.Red(strings.TrimRight(lox.WrapErrorWithName(err, "<repl>", code).Error(), "\n")))
		}
	}
}

// command runs a :command and reports whether the REPL should exit.
func (s *session) command(cmd string) bool {
	switch strings.ToLower(cmd) {
	case ":quit", ":q", ":exit":
		return true
	case ":help":
		fmt.Fprint(s.out, helpText)
	case ":globals":
		names := s.ip.Globals()
		sort.Strings(names)
		for _, n := range names {
			fmt.Fprintln(s.out, n)
		}
	default:
		fmt.Fprintln(s.out, "unknown command. Type :help for a list.")
	}
	return false
}

// eval runs one complete input against the persistent globals. A bare
// expression (no trailing ';') is evaluated and its value echoed.
func (s *session) eval(code string) error {
	toks, err := lox.ScanTokens(code)
	if err != nil {
		return err
	}
	if e, perr := lox.ParseExpr(toks); perr == nil {
		v, err := s.ip.EvalExpr(e)
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, lox.Blue(lox.FormatValue(v)))
		return nil
	}
	return s.ip.Run(code)
}

// readByParseProbe keeps reading lines while the accumulated input fails to
// parse only because it ended too early (open block, unterminated string).
// It returns false at end of input.
func readByParseProbe(r lineReader, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		p := prompt
		if b.Len() > 0 {
			p = cont
		}
		line, err := r.Prompt(p)
		if errors.Is(err, io.EOF) {
			if b.Len() > 0 {
				return b.String(), true
			}
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if lox.IsIncomplete(probe(src)) {
			continue
		}
		return src, true
	}
}

func probe(src string) error {
	toks, err := lox.ScanTokens(src)
	if err != nil {
		return err
	}
	if _, err := lox.ParseExpr(toks); err == nil {
		return nil
	}
	_, err = lox.Parse(toks)
	return err
}
