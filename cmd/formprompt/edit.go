package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	formprompt "github.com/goliatone/go-formprompt"
	"github.com/goliatone/go-formprompt/pkg/catalog"
	"github.com/goliatone/go-formprompt/pkg/fillin"
	"github.com/goliatone/go-formprompt/pkg/merge"
	"github.com/goliatone/go-formprompt/pkg/model"
	"github.com/goliatone/go-formprompt/pkg/session"
	"github.com/goliatone/go-formprompt/pkg/store"
)

const (
	actionPrompt   = "Add fields from a prompt"
	actionRemove   = "Remove a field"
	actionCategory = "Change category"
	actionReset    = "Reset to the base form"
	actionExport   = "Export as JSON"
	actionSubmit   = "Submit for clients"
	actionQuit     = "Quit"
)

var editActions = []string{
	actionPrompt,
	actionRemove,
	actionCategory,
	actionReset,
	actionExport,
	actionSubmit,
	actionQuit,
}

func newEditCmd(a *app) *cobra.Command {
	var (
		category  string
		exportDir string
	)
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Interactively grow a category form with prompts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.edit(cmd.Context(), cmd.OutOrStdout(), category, exportDir)
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "category code to start with")
	cmd.Flags().StringVar(&exportDir, "export-dir", ".", "directory for exported form files")
	return cmd
}

type editor struct {
	sess      *session.Session
	cats      []catalog.Category
	driver    fillin.PromptDriver
	kv        store.KV
	out       io.Writer
	exportDir string
	logger    *zap.Logger
}

func (a *app) edit(ctx context.Context, out io.Writer, category, exportDir string) error {
	fetcher, cats, err := formprompt.NewFetcher(a.cfg.Catalog)
	if err != nil {
		return err
	}
	proposer := a.proposer
	if proposer == nil {
		proposer, err = formprompt.NewProposer(ctx, a.cfg, a.logger)
		if err != nil {
			return err
		}
	}
	kv := a.kv
	if kv == nil {
		opened, closer, err := formprompt.OpenStore(ctx, a.cfg.Store)
		if err != nil {
			return err
		}
		defer closer.Close()
		kv = opened
	}

	sess, err := session.New(fetcher, proposer,
		session.WithEngine(merge.New(merge.WithPolicy(a.cfg.MergePolicy()))),
		session.WithLogger(a.logger),
	)
	if err != nil {
		return err
	}

	e := &editor{
		sess:      sess,
		cats:      cats,
		driver:    a.promptDriver(),
		kv:        kv,
		out:       out,
		exportDir: exportDir,
		logger:    a.logger,
	}
	return e.run(ctx, category)
}

func (e *editor) run(ctx context.Context, category string) error {
	if err := e.chooseCategory(ctx, category); err != nil {
		return err
	}
	for {
		e.printForm()

		idx, err := e.driver.Select(ctx, fillin.SelectConfig{
			Message: "Next step",
			Options: editActions,
		})
		if err != nil {
			if errors.Is(err, fillin.ErrAborted) {
				return nil
			}
			return err
		}

		switch editActions[idx] {
		case actionPrompt:
			err = e.prompt(ctx)
		case actionRemove:
			err = e.remove(ctx)
		case actionCategory:
			err = e.chooseCategory(ctx, "")
		case actionReset:
			e.sess.Reset()
		case actionExport:
			err = e.export()
		case actionSubmit:
			if err = e.sess.Submit(ctx, e.kv); err == nil {
				fmt.Fprintln(e.out, "Form saved for clients.")
			}
		case actionQuit:
			return nil
		}
		if err != nil {
			if errors.Is(err, fillin.ErrAborted) {
				return nil
			}
			// Recoverable failures leave the session as it was.
			fmt.Fprintf(e.out, "! %v\n", err)
		}
	}
}

func (e *editor) chooseCategory(ctx context.Context, code string) error {
	if code == "" {
		if len(e.cats) == 0 {
			answer, err := e.driver.Input(ctx, fillin.InputConfig{Message: "Category code"})
			if err != nil {
				return err
			}
			code = answer
		} else {
			labels := make([]string, 0, len(e.cats))
			for _, c := range e.cats {
				labels = append(labels, c.Code+" "+c.Label)
			}
			idx, err := e.driver.Select(ctx, fillin.SelectConfig{
				Message:  "Merchant category",
				Options:  labels,
				PageSize: 10,
			})
			if err != nil {
				return err
			}
			code = e.cats[idx].Code
		}
	}
	return e.sess.SelectCategory(ctx, code)
}

func (e *editor) prompt(ctx context.Context) error {
	text, err := e.driver.Input(ctx, fillin.InputConfig{
		Message: "Describe the fields to add",
		Default: e.sess.Prompt(),
	})
	if err != nil {
		return err
	}
	e.sess.SetPrompt(text)

	outcome, err := e.sess.SubmitPrompt(ctx, text)
	if err != nil {
		return err
	}
	if outcome.Skipped {
		return nil
	}
	for _, d := range outcome.Discarded {
		e.logger.Debug("candidate discarded", zap.String("name", d.Field.Name), zap.String("reason", string(d.Reason)))
	}
	fmt.Fprintf(e.out, "Added %d field(s).\n", len(outcome.Added))
	return nil
}

func (e *editor) remove(ctx context.Context) error {
	snap := e.sess.Snapshot()
	if snap.Current == nil {
		return session.ErrNoForm
	}
	editable := snap.Current.Editable()
	if len(editable) == 0 {
		fmt.Fprintln(e.out, "No editable fields.")
		return nil
	}
	options := make([]string, 0, len(editable))
	for _, f := range editable {
		options = append(options, fmt.Sprintf("%s %s (%s)", f.ID, f.Name, f.Label))
	}
	idx, err := e.driver.Select(ctx, fillin.SelectConfig{Message: "Field to remove", Options: options})
	if err != nil {
		return err
	}
	return e.sess.RemoveField(editable[idx].ID)
}

func (e *editor) export() error {
	data, name, err := e.sess.Export()
	if err != nil {
		return err
	}
	path := filepath.Join(e.exportDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	fmt.Fprintf(e.out, "Exported %s\n", path)
	return nil
}

func (e *editor) printForm() {
	snap := e.sess.Snapshot()
	if snap.Current == nil {
		fmt.Fprintln(e.out, "(no form)")
		return
	}
	fmt.Fprintf(e.out, "\n%s [%s]\n", snap.Current.ID, snap.Category)
	for _, f := range snap.Current.Fields {
		fmt.Fprintln(e.out, "  "+describeField(f))
	}
}

func describeField(f model.Field) string {
	var b strings.Builder
	if f.Locked {
		b.WriteString("# ")
	} else {
		b.WriteString("  ")
	}
	fmt.Fprintf(&b, "%-9s %-18s %-9s %s", f.ID, f.Name, f.Type, f.Label)
	if f.Required {
		b.WriteString(" *")
	}
	return b.String()
}
