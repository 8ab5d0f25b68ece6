package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/genterm/genterm/internal/config"
	"github.com/genterm/genterm/internal/doc"
	"github.com/genterm/genterm/internal/exitcode"
	"github.com/genterm/genterm/internal/proc"
	"github.com/genterm/genterm/internal/prompt"
	"github.com/genterm/genterm/internal/render"
	"github.com/genterm/genterm/internal/session"
	"github.com/genterm/genterm/internal/stream"
	"github.com/genterm/genterm/internal/ui"
)

var (
	runModel       string
	runFile        string
	runLines       string
	runReplace     bool
	runDiff        bool
	runText        bool
	runNoAutoClose bool
)

var runCmd = &cobra.Command{
	Use:   "run [template] [input...]",
	Short: "Stream one generation",
	Long: `Run a prompt template once and stream the response.

The first argument selects a template when it names one; everything else
becomes the template's $input. Without a template name, ask is used when
selection or stdin text is present and chat otherwise. Piped stdin with no
--file acts as a filter: stdin becomes $text and the result streams to
stdout.

Examples:
  genterm run "why is the sky blue"
  genterm run grammar -f notes.md --lines 3:10 --replace
  genterm run change-code "add error handling" -f main.go --lines 10:30 --diff
  git diff --staged | genterm run summarize
  genterm run generate "a haiku about curl" --text`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runModel, "model", "m", "", "Model to use (overrides template and config)")
	runCmd.Flags().StringVarP(&runFile, "file", "f", "", "File whose selection supplies $text")
	runCmd.Flags().StringVar(&runLines, "lines", "", "Line range inside --file: 3:10, 7, or 12:$")
	runCmd.Flags().BoolVar(&runReplace, "replace", false, "Substitute the result back into the selection")
	runCmd.Flags().BoolVar(&runDiff, "diff", false, "Preview the replacement as a diff instead of writing")
	runCmd.Flags().BoolVarP(&runText, "text", "t", false, "Plain text output, no TUI")
	runCmd.Flags().BoolVar(&runNoAutoClose, "no-auto-close", false, "Keep the pane open after completion")
	rootCmd.AddCommand(runCmd)
}

// diffPreview satisfies doc.Document but captures a unified diff of the
// would-be replacement instead of writing the file.
type diffPreview struct {
	file *doc.File
	out  *string
}

func (p *diffPreview) Selection() doc.Selection { return p.file.Selection() }
func (p *diffPreview) Text() (string, error)    { return p.file.Text() }

func (p *diffPreview) Replace(lines []string) error {
	d, err := p.file.Preview(lines)
	if err != nil {
		return err
	}
	*p.out = d
	return nil
}

func runRun(cmd *cobra.Command, args []string) error {
	if (runReplace || runDiff) && runFile == "" {
		return fmt.Errorf("--replace and --diff require --file")
	}

	reg := prompt.NewRegistry()
	if path, err := config.TemplatesPath(); err == nil {
		if err := reg.LoadUser(path); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	// The first argument selects a template when it names one; the rest
	// of the arguments are $input.
	inputArgs := args
	var tmpl prompt.Template
	tmplName := ""
	if len(args) > 0 {
		if t, ok := reg.Get(args[0]); ok {
			tmpl = t
			tmplName = args[0]
			inputArgs = args[1:]
		}
	}

	stdinPiped := !term.IsTerminal(int(os.Stdin.Fd()))

	// Collect $text from the file selection or piped stdin.
	var text, filetype string
	sel := doc.Selection{StartLine: 1}
	if runFile != "" {
		if runLines != "" {
			var err error
			sel, err = doc.ParseRange(runLines)
			if err != nil {
				return err
			}
		}
		file := &doc.File{Path: runFile, Sel: sel}
		var err error
		text, err = file.Text()
		if err != nil {
			return err
		}
		filetype = prompt.DetectFiletype(runFile)
	} else if stdinPiped {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		text = string(b)
	}

	if tmplName == "" {
		tmplName = "chat"
		if strings.TrimSpace(text) != "" {
			tmplName = "ask"
		}
		tmpl, _ = reg.Get(tmplName)
	}

	input := strings.Join(inputArgs, " ")
	if input == "" && tmpl.Needs("$input") && !stdinPiped {
		var err error
		input, err = ui.AskInput("Prompt")
		if err != nil {
			return exitcode.Cancel()
		}
	}

	built, err := prompt.Build(tmpl, prompt.Input{
		Input:    input,
		Text:     text,
		Filetype: filetype,
		Register: prompt.ClipboardRegister,
	})
	if err != nil {
		return err
	}

	extractRe, err := tmpl.CompileExtract(filetype)
	if err != nil {
		return err
	}

	model := runModel
	if model == "" {
		model = tmpl.Model
	}
	opts, err := loadOptions(model)
	if err != nil {
		return err
	}

	// --diff captures the preview; plain replace edits the file in place.
	var document doc.Document
	var diffOut string
	file := &doc.File{Path: runFile, Sel: sel}
	switch {
	case runFile != "" && runDiff:
		document = &diffPreview{file: file, out: &diffOut}
	case runFile != "" && (runReplace || tmpl.Replace):
		document = file
	}

	log := openLog(opts)
	defer log.Close()

	useTUI := !runText && term.IsTerminal(int(os.Stdout.Fd()))

	var target render.Target
	var surface *render.Surface
	if useTUI {
		surface = render.NewSurface()
		target = surface
	} else {
		target = render.NewWriter(os.Stdout)
	}

	sess := session.New(session.Options{
		Model:       opts.Model,
		Mode:        opts.Mode,
		Endpoint:    opts.Endpoint(),
		Command:     opts.Command,
		Prompt:      built,
		Extract:     extractRe,
		Document:    document,
		NoAutoClose: runNoAutoClose,
		Runner:      proc.Shell{},
		Target:      target,
		Context:     &stream.Context{},
		Log:         log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		<-ctx.Done()
		sess.Cancel()
	}()

	if err := sess.Start(ctx); err != nil {
		return err
	}

	var res session.Result
	if useTUI {
		resCh := make(chan session.Result, 1)
		outcome := make(chan render.Outcome, 1)
		go func() {
			r := <-sess.Done()
			resCh <- r
			outcome <- render.Outcome{
				Clean:   r.State == session.Closed && document == nil,
				Hold:    runNoAutoClose && r.State != session.Cancelled,
				Summary: runSummary(r, document != nil),
			}
		}()
		if err := render.RunPane(surface, outcome, sess.Cancel); err != nil {
			sess.Cancel()
			return err
		}
		res = <-resCh
	} else {
		res = <-sess.Done()
	}

	switch res.State {
	case session.Cancelled:
		return exitcode.Cancel()
	case session.Failed:
		if errors.Is(res.Err, session.ErrNoMatch) {
			return exitcode.NoEdits(res.Err.Error())
		}
		return res.Err
	}

	if diffOut != "" {
		width := 0
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			width = w
		}
		fmt.Print(ui.RenderDiff(diffOut, runFile, width))
	}
	return nil
}

// runSummary builds the pane's footer line: replacement note plus stats.
func runSummary(res session.Result, replaced bool) string {
	var parts []string
	if replaced && res.State == session.Closed {
		if runDiff {
			parts = append(parts, "diff only, file unchanged")
		} else {
			parts = append(parts, "wrote "+runFile)
		}
	}
	if s := statsSummary(res.Stats); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, "  ")
}

func statsSummary(st *stream.Stats) string {
	if st == nil {
		return ""
	}
	if tps := st.TokensPerSec(); tps > 0 {
		return fmt.Sprintf("%d tokens, %.1f tokens/s", st.OutputTokens, tps)
	}
	return ""
}
