// Package repl is the interactive front end: it reads input, parses it,
// evaluates it against one long-lived environment and prints the result.
// It also decides when the heap is collected.
package repl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"monkey/evaluator"
	"monkey/lexer"
	"monkey/object"
	"monkey/parser"
	"monkey/token"
)

const (
	PROMPT              = ">> "
	CONTINUATION_PROMPT = ".. "
)

// ErrInterrupted is returned by a LineReader when the user cancels the
// current input. The REPL drops what it has buffered and prompts again.
var ErrInterrupted = errors.New("repl: input interrupted")

// LineReader reads one line of input after showing prompt. It returns
// io.EOF when there is no more input.
type LineReader interface {
	Prompt(prompt string) (string, error)
}

type Options struct {
	Prompt             string
	ContinuationPrompt string

	// Reader replaces the line scanner built on the input stream, for
	// example with a terminal line editor.
	Reader LineReader

	MaxCallDepth int

	// GCEvery is the number of evaluated inputs between collections; 0
	// disables them. GCReport prints the result of each one.
	GCEvery  int
	GCReport bool

	Logger *slog.Logger

	// History, when set, receives every complete input that was evaluated.
	History func(input string)
}

type scannerReader struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// NewScannerReader reads lines from in and writes prompts to out.
func NewScannerReader(in io.Reader, out io.Writer) LineReader {
	return &scannerReader{scanner: bufio.NewScanner(in), out: out}
}

func (r *scannerReader) Prompt(prompt string) (string, error) {
	io.WriteString(r.out, prompt)
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.scanner.Text(), nil
}

// Session is the state that survives between inputs.
type Session struct {
	Heap      *object.Heap
	Env       *object.Environment
	Evaluator *evaluator.Evaluator

	inputs int
}

func NewSession(logger *slog.Logger, maxDepth int) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	heap := object.NewHeap()
	heap.Logger = logger

	ev := evaluator.New(heap)
	ev.Logger = logger
	if maxDepth > 0 {
		ev.MaxDepth = maxDepth
	}

	return &Session{
		Heap:      heap,
		Env:       heap.NewEnvironment(nil),
		Evaluator: ev,
	}
}

// Start runs the loop until the input is exhausted or the user types
// :quit.
func Start(in io.Reader, out io.Writer, opts Options) error {
	if opts.Prompt == "" {
		opts.Prompt = PROMPT
	}
	if opts.ContinuationPrompt == "" {
		opts.ContinuationPrompt = CONTINUATION_PROMPT
	}
	reader := opts.Reader
	if reader == nil {
		reader = NewScannerReader(in, out)
	}

	s := NewSession(opts.Logger, opts.MaxCallDepth)

	for {
		input, err := readInput(reader, opts.Prompt, opts.ContinuationPrompt)
		if errors.Is(err, ErrInterrupted) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("repl: read input: %w", err)
		}

		trimmed := strings.TrimSpace(input)
		if trimmed == "" {
			continue
		}

		if strings.HasPrefix(trimmed, ":") {
			if quit := s.command(out, trimmed); quit {
				return nil
			}
			continue
		}

		if ok := s.eval(out, input); !ok {
			continue
		}
		if opts.History != nil {
			opts.History(input)
		}

		s.inputs++
		if opts.GCEvery > 0 && s.inputs%opts.GCEvery == 0 {
			stats := s.Heap.Collect(s.Env)
			if opts.GCReport {
				fmt.Fprintf(out, "gc: kept=%d freed=%d\n", stats.Kept, stats.Freed)
			}
		}
	}
}

// ParseError carries the messages of an input that did not parse.
type ParseError struct {
	Errors []string
}

func (e *ParseError) Error() string {
	return "parse failed:\n\t" + strings.Join(e.Errors, "\n\t")
}

// Exec parses input and evaluates it in the session environment. A
// runtime failure is an *object.Error result, not a Go error.
func (s *Session) Exec(input string) (object.Object, error) {
	l := lexer.New(input)
	p := parser.New(l)

	program := p.ParseProgram()
	if len(p.Errors()) != 0 {
		return nil, &ParseError{Errors: p.Errors()}
	}

	return s.Evaluator.Eval(program, s.Env), nil
}

// eval runs one complete input and prints the result. It reports false
// when the input did not parse.
func (s *Session) eval(out io.Writer, input string) bool {
	evaluated, err := s.Exec(input)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			printParserErrors(out, perr.Errors)
		}
		return false
	}

	if evaluated != nil && evaluated != object.NULL {
		io.WriteString(out, evaluated.Inspect())
		io.WriteString(out, "\n")
	}
	return true
}

func (s *Session) command(out io.Writer, cmd string) (quit bool) {
	switch strings.ToLower(cmd) {
	case ":quit", ":q":
		return true
	case ":gc":
		stats := s.Heap.Collect(s.Env)
		heap := s.Heap.Stats()
		fmt.Fprintf(out, "gc: kept=%d freed=%d live=%d cycles=%d in %s\n",
			stats.Kept, stats.Freed, heap.Live, heap.Cycles, stats.Duration)
	case ":env":
		for _, name := range s.Env.Names() {
			val, _ := s.Env.Get(name)
			fmt.Fprintf(out, "%s = %s\n", name, val.Inspect())
		}
	default:
		fmt.Fprintf(out, "unknown command %s. Commands: :quit, :gc, :env\n", cmd)
	}
	return false
}

// readInput keeps reading lines while the input has unclosed brackets.
func readInput(r LineReader, prompt, cont string) (string, error) {
	var b strings.Builder

	for {
		p := prompt
		if b.Len() > 0 {
			p = cont
		}

		line, err := r.Prompt(p)
		if err != nil {
			// input cut short by EOF is still evaluated
			if errors.Is(err, io.EOF) && b.Len() > 0 {
				return b.String(), nil
			}
			return "", err
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		if openBrackets(b.String()) <= 0 {
			return b.String(), nil
		}
	}
}

// openBrackets counts opening minus closing brackets outside of strings.
func openBrackets(input string) int {
	depth := 0
	l := lexer.New(input)
	for tok := l.NextToken(); tok.Type != token.EOF; tok = l.NextToken() {
		switch tok.Type {
		case token.LPAREN, token.LBRACE, token.LBRACKET:
			depth++
		case token.RPAREN, token.RBRACE, token.RBRACKET:
			depth--
		}
	}
	return depth
}

const MONKEY_FACE = `            __,__
   .--.  .-"     "-.  .--.
  / .. \/  .-. .-.  \/ .. \
 | |  '|  /   Y   \  |'  | |
 | \   \  \ 0 | 0 /  /   / |
  \ '- ,\.-"""""""-./, -' /
   ''-' /_   ^ ^   _\ '-''
       |  \._   _./  |
       \   \ '~' /   /
        '._ '-=-' _.'
           '-----'
`

func printParserErrors(out io.Writer, msgs []string) {
	io.WriteString(out, MONKEY_FACE)
	io.WriteString(out, "Woops! We ran into some monkey business here!\n")
	io.WriteString(out, " parser errors:\n")
	for _, msg := range msgs {
		io.WriteString(out, "\t"+msg+"\n")
	}
}
