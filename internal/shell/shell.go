// Package shell is the line based terminal front end: it drives an editor
// and a post list from typed commands.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/debemdeboas/draftdesk/internal/bloglist"
	"github.com/debemdeboas/draftdesk/internal/editor"
	"github.com/debemdeboas/draftdesk/internal/model"
	"github.com/debemdeboas/draftdesk/internal/render"
	"github.com/pkg/errors"
)

const timeFormat = "2006-01-02 15:04"

// Editor is what the shell needs from *editor.Editor.
type Editor interface {
	Load(post *model.Post) error
	SetTitle(title string) error
	SetContent(content string) error
	SetTags(raw string) error
	Autosave(ctx context.Context) error
	Publish(ctx context.Context) error
	Snapshot() editor.WorkingCopy
}

type Shell struct {
	editor    Editor
	list      *bloglist.List
	previewer *render.Previewer
	theme     string

	in  *bufio.Scanner
	out io.Writer

	// Post ids in the order of the last listing, for numeric references.
	index []model.PostID

	promptStyle    lipgloss.Style
	headingStyle   lipgloss.Style
	publishedStyle lipgloss.Style
	draftStyle     lipgloss.Style
	selectedStyle  lipgloss.Style
	dimStyle       lipgloss.Style
	errorStyle     lipgloss.Style
}

func New(ed Editor, list *bloglist.List, syntaxTheme string, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		editor:    ed,
		list:      list,
		previewer: render.NewPreviewer(syntaxTheme),
		theme:     syntaxTheme,
		in:        bufio.NewScanner(in),
		out:       out,

		promptStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true),
		headingStyle:   lipgloss.NewStyle().Bold(true).Underline(true),
		publishedStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		draftStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		selectedStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true),
		dimStyle:       lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		errorStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
}

type command struct {
	usage string
	help  string
	run   func(s *Shell, ctx context.Context, arg string) error
}

var errQuit = errors.New("quit")

var commands map[string]command

// order is the help listing order.
var order = []string{"list", "edit", "new", "title", "content", "md", "tags", "show", "save", "publish", "preview", "close", "delete", "help", "quit"}

func init() {
	commands = map[string]command{
		"list":    {"list", "fetch and show all blogs", (*Shell).cmdList},
		"edit":    {"edit <n|id>", "load a blog into the editor", (*Shell).cmdEdit},
		"new":     {"new", "start a new blog", (*Shell).cmdNew},
		"title":   {"title <text>", "set the title", (*Shell).cmdTitle},
		"content": {"content [html]", "set the content; without text, read lines until a lone '.'", (*Shell).cmdContent},
		"md":      {"md <file>", "set the content from a markdown file", (*Shell).cmdMarkdown},
		"tags":    {"tags <a, b, c>", "set comma separated tags", (*Shell).cmdTags},
		"show":    {"show", "show the working copy", (*Shell).cmdShow},
		"save":    {"save", "save the working copy as a draft now", (*Shell).cmdSave},
		"publish": {"publish", "publish the working copy", (*Shell).cmdPublish},
		"preview": {"preview <n|id>", "show a blog's content read-only", (*Shell).cmdPreview},
		"close":   {"close", "close the preview", (*Shell).cmdClose},
		"delete":  {"delete <n|id>", "delete a blog after confirmation", (*Shell).cmdDelete},
		"help":    {"help", "show this help", (*Shell).cmdHelp},
		"quit":    {"quit", "leave", func(*Shell, context.Context, string) error { return errQuit }},
	}
}

// Run fetches the list and then reads commands until quit, EOF or ctx is
// done. Command errors are printed, never returned.
func (s *Shell) Run(ctx context.Context) error {
	if err := s.cmdList(ctx, ""); err != nil {
		s.printErr(err)
	}
	fmt.Fprintln(s.out, s.dimStyle.Render("Type 'help' for commands."))

	for ctx.Err() == nil {
		fmt.Fprint(s.out, s.promptStyle.Render("draftdesk> "))

		line, ok := s.readLine()
		if !ok {
			break
		}
		if line == "" {
			continue
		}

		if err := s.Exec(ctx, line); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			s.printErr(err)
		}
	}

	return s.in.Err()
}

// Exec runs a single command line.
func (s *Shell) Exec(ctx context.Context, line string) error {
	name, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	cmd, ok := commands[strings.ToLower(name)]
	if !ok {
		return errors.Errorf("unknown command %q, try 'help'", name)
	}
	return cmd.run(s, ctx, strings.TrimSpace(arg))
}

func (s *Shell) readLine() (string, bool) {
	if !s.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

func (s *Shell) printErr(err error) {
	fmt.Fprintln(s.out, s.errorStyle.Render("Error: "+err.Error()))
}

// resolve accepts a listing number or a post id.
func (s *Shell) resolve(arg string) (model.PostID, error) {
	if arg == "" {
		return "", errors.New("which blog? give its number or id")
	}
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(s.index) {
			return "", errors.Errorf("no blog number %d, run 'list'", n)
		}
		return s.index[n-1], nil
	}
	return model.PostID(arg), nil
}

func (s *Shell) cmdList(ctx context.Context, _ string) error {
	if err := s.list.FetchAll(ctx); err != nil {
		return err
	}
	s.printList()
	return nil
}

func (s *Shell) printList() {
	s.index = s.index[:0]
	selected := s.list.Selected()

	section := func(heading string, style lipgloss.Style, posts []model.Post) {
		fmt.Fprintln(s.out, s.headingStyle.Render(heading))
		if len(posts) == 0 {
			fmt.Fprintln(s.out, s.dimStyle.Render("  (none)"))
		}
		for _, p := range posts {
			s.index = append(s.index, p.ID)
			marker := "  "
			if p.ID == selected {
				marker = s.selectedStyle.Render("> ")
			}
			title := p.Title
			if strings.TrimSpace(title) == "" {
				title = "(untitled)"
			}
			fmt.Fprintf(s.out, "%s%2d. %s %s %s\n",
				marker, len(s.index), style.Render(title),
				s.dimStyle.Render("updated "+p.UpdatedAt.Local().Format(timeFormat)),
				s.dimStyle.Render("["+string(p.ID)+"]"),
			)
		}
	}

	section("Published", s.publishedStyle, s.list.Published())
	section("Drafts", s.draftStyle, s.list.Drafts())
}

func (s *Shell) cmdEdit(ctx context.Context, arg string) error {
	id, err := s.resolve(arg)
	if err != nil {
		return err
	}
	if err := s.list.Select(id); err != nil {
		return err
	}
	return s.cmdShow(ctx, "")
}

func (s *Shell) cmdNew(context.Context, string) error {
	return s.editor.Load(nil)
}

func (s *Shell) cmdTitle(_ context.Context, arg string) error {
	return s.editor.SetTitle(arg)
}

func (s *Shell) cmdContent(_ context.Context, arg string) error {
	if arg != "" {
		return s.editor.SetContent(arg)
	}

	fmt.Fprintln(s.out, s.dimStyle.Render("Enter content, end with a line containing only '.'"))
	var lines []string
	for s.in.Scan() {
		line := s.in.Text()
		if strings.TrimSpace(line) == "." {
			break
		}
		lines = append(lines, line)
	}
	return s.editor.SetContent(strings.Join(lines, "\n"))
}

// cmdMarkdown converts a markdown file to HTML content. A first level
// heading becomes the title when the working copy has none.
func (s *Shell) cmdMarkdown(_ context.Context, arg string) error {
	if arg == "" {
		return errors.New("md needs a file path")
	}

	md, err := os.ReadFile(arg)
	if err != nil {
		return errors.Wrapf(err, "reading %s", arg)
	}

	if strings.TrimSpace(s.editor.Snapshot().Title) == "" {
		if title := render.Title(md); title != "" {
			if err := s.editor.SetTitle(title); err != nil {
				return err
			}
		}
	}
	return s.editor.SetContent(string(render.MarkdownToHTML(md, s.theme)))
}

func (s *Shell) cmdTags(_ context.Context, arg string) error {
	return s.editor.SetTags(arg)
}

func (s *Shell) cmdShow(context.Context, string) error {
	wc := s.editor.Snapshot()

	id := string(wc.ID)
	if id == "" {
		id = "(not saved yet)"
	}

	fmt.Fprintln(s.out, s.headingStyle.Render("Working copy"))
	fmt.Fprintf(s.out, "  id:      %s\n", id)
	fmt.Fprintf(s.out, "  title:   %s\n", wc.Title)
	fmt.Fprintf(s.out, "  tags:    %s\n", model.JoinTags(model.ParseTags(wc.TagsRaw)))
	fmt.Fprintf(s.out, "  content: %d bytes\n", len(wc.Content))
	return nil
}

func (s *Shell) cmdSave(ctx context.Context, _ string) error {
	if s.editor.Snapshot().IsBlank() {
		fmt.Fprintln(s.out, s.dimStyle.Render("Nothing to save."))
		return nil
	}
	return s.editor.Autosave(ctx)
}

func (s *Shell) cmdPublish(ctx context.Context, _ string) error {
	err := s.editor.Publish(ctx)
	if errors.Is(err, editor.ErrValidation) {
		// Already reported through the notifier.
		return nil
	}
	return err
}

func (s *Shell) cmdPreview(_ context.Context, arg string) error {
	id, err := s.resolve(arg)
	if err != nil {
		return err
	}

	post, err := s.list.Preview(id)
	if err != nil {
		return err
	}

	fmt.Fprintln(s.out, s.headingStyle.Render(post.Title))
	fmt.Fprintln(s.out, s.dimStyle.Render(fmt.Sprintf("%s, updated %s, tags: %s",
		post.Status, post.UpdatedAt.Local().Format(timeFormat), model.JoinTags(post.Tags))))
	fmt.Fprintln(s.out, s.previewer.Preview(post.Content))
	fmt.Fprintln(s.out, s.dimStyle.Render("Type 'close' to close the preview."))
	return nil
}

func (s *Shell) cmdClose(context.Context, string) error {
	s.list.ClosePreview()
	return nil
}

func (s *Shell) cmdDelete(ctx context.Context, arg string) error {
	id, err := s.resolve(arg)
	if err != nil {
		return err
	}

	deleted, err := s.list.Delete(ctx, id, s.confirm)
	if err != nil {
		return err
	}
	if deleted {
		s.printList()
	}
	return nil
}

func (s *Shell) confirm(prompt string) bool {
	fmt.Fprint(s.out, s.promptStyle.Render(prompt+" [y/N] "))
	answer, ok := s.readLine()
	if !ok {
		return false
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes"
}

func (s *Shell) cmdHelp(context.Context, string) error {
	for _, name := range order {
		cmd := commands[name]
		fmt.Fprintf(s.out, "  %-16s %s\n", cmd.usage, s.dimStyle.Render(cmd.help))
	}
	return nil
}
