package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	notemerge "github.com/c0deZ3R0/go-note-merge"
	"github.com/c0deZ3R0/go-note-merge/codec"
	"github.com/c0deZ3R0/go-note-merge/merge"
	"github.com/c0deZ3R0/go-note-merge/model"
	"github.com/c0deZ3R0/go-note-merge/storage"
)

func newImportCmd(a *app) *cobra.Command {
	var noteID, in string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Store a new note",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openInput(cmd, in)
			if err != nil {
				return fmt.Errorf("open note: %w", err)
			}
			defer r.Close()

			var file codec.NoteFile
			if err := codec.ReadJSON(r, &file); err != nil {
				return fmt.Errorf("read note: %w", err)
			}
			if noteID == "" {
				noteID = file.ID
			}

			return a.withService(cmd.Context(), func(svc *notemerge.Service) error {
				note, err := svc.CreateNote(cmd.Context(), noteID, file.Document.Model(), file.Media)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %s at revision %d\n", note.ID, note.Revision)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&noteID, "note", "", "Note id (defaults to the id in the file)")
	cmd.Flags().StringVar(&in, "in", "-", "Note file, - for stdin")
	return cmd
}

func newApplyCmd(a *app) *cobra.Command {
	var noteID, in, out, from string

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Merge diff lists into a stored note",
		Long: `Read the primary and secondary diff lists and merge them into the stored
note. The merged note is saved as a new revision and the merge is recorded in
the note's history. Without a selection in the input the stored selection is
carried through, owned by --selection-from.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if noteID == "" {
				return fmt.Errorf("note id not specified (use --note)")
			}
			if from == "" {
				from = a.config.Merge.DefaultSelectionFrom
			}
			owner, err := model.ParseSelectionFrom(from)
			if err != nil {
				return err
			}

			r, err := openInput(cmd, in)
			if err != nil {
				return fmt.Errorf("open diffs: %w", err)
			}
			defer r.Close()

			var req codec.ApplyRequest
			if err := codec.ReadJSON(r, &req); err != nil {
				return fmt.Errorf("read diffs: %w", err)
			}

			return a.withService(cmd.Context(), func(svc *notemerge.Service) error {
				res, err := svc.Reconcile(cmd.Context(), notemerge.ReconcileRequest{
					NoteID:    noteID,
					Selection: req.Selection,
					From:      owner,
					Primary:   req.Primary,
					Secondary: req.Secondary,
				})
				if err != nil {
					return err
				}
				return writeOutput(cmd, out, func(w io.Writer) error {
					return codec.WriteJSON(w, applyView{
						NoteID:    res.NoteID,
						Revision:  res.Revision,
						RecordID:  res.RecordID,
						Document:  codec.Document(res.Document),
						Media:     res.Media,
						Selection: res.Selection,
						Stats:     res.Stats,
					})
				})
			})
		},
	}

	cmd.Flags().StringVar(&noteID, "note", "", "Note id")
	cmd.Flags().StringVar(&in, "in", "-", "Diff file, - for stdin")
	cmd.Flags().StringVar(&out, "out", "-", "Result file, - for stdout")
	cmd.Flags().StringVar(&from, "selection-from", "", "Selection owner: primary or secondary (defaults to the configured owner)")
	return cmd
}

type applyView struct {
	NoteID    string               `json:"note_id"`
	Revision  int64                `json:"revision"`
	RecordID  string               `json:"record_id"`
	Document  codec.Document       `json:"document"`
	Media     []model.Media        `json:"media,omitempty"`
	Selection model.SelectionRange `json:"selection"`
	Stats     merge.Stats          `json:"stats"`
}

func newShowCmd(a *app) *cobra.Command {
	var noteID string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print a stored note",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if noteID == "" {
				return fmt.Errorf("note id not specified (use --note)")
			}
			return a.withService(cmd.Context(), func(svc *notemerge.Service) error {
				note, err := svc.Note(cmd.Context(), noteID)
				if err != nil {
					return err
				}
				return codec.WriteJSON(cmd.OutOrStdout(), codec.NoteFile{
					ID:       note.ID,
					Revision: note.Revision,
					Document: codec.Document(note.Document),
					Media:    note.Media,
				})
			})
		},
	}

	cmd.Flags().StringVar(&noteID, "note", "", "Note id")
	return cmd
}

func newHistoryCmd(a *app) *cobra.Command {
	var (
		noteID    string
		limit     int
		withDiffs bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the merges applied to a note, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if noteID == "" {
				return fmt.Errorf("note id not specified (use --note)")
			}
			return a.withService(cmd.Context(), func(svc *notemerge.Service) error {
				records, err := history(cmd.Context(), svc, noteID, limit)
				if err != nil {
					return err
				}
				views := make([]recordView, 0, len(records))
				for _, rec := range records {
					views = append(views, newRecordView(rec, withDiffs))
				}
				return codec.WriteJSON(cmd.OutOrStdout(), views)
			})
		},
	}

	cmd.Flags().StringVar(&noteID, "note", "", "Note id")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of records (defaults to the configured history limit)")
	cmd.Flags().BoolVar(&withDiffs, "diffs", false, "Include the merged diff lists")
	return cmd
}

func history(ctx context.Context, svc *notemerge.Service, noteID string, limit int) ([]storage.MergeRecord, error) {
	if limit < 0 {
		return nil, fmt.Errorf("limit must not be negative")
	}
	return svc.History(ctx, noteID, limit)
}

type recordView struct {
	ID             string      `json:"id"`
	Timestamp      time.Time   `json:"timestamp"`
	Duration       string      `json:"duration"`
	SelectionFrom  string      `json:"selection_from"`
	BaseRevision   int64       `json:"base_revision"`
	ResultRevision int64       `json:"result_revision"`
	Stats          merge.Stats `json:"stats"`
	Primary        codec.Diffs `json:"primary,omitempty"`
	Secondary      codec.Diffs `json:"secondary,omitempty"`
}

func newRecordView(rec storage.MergeRecord, withDiffs bool) recordView {
	v := recordView{
		ID:             rec.ID,
		Timestamp:      rec.Timestamp,
		Duration:       rec.Duration.String(),
		SelectionFrom:  rec.SelectionFrom.String(),
		BaseRevision:   rec.BaseRevision,
		ResultRevision: rec.ResultRevision,
		Stats:          rec.Stats,
	}
	if withDiffs {
		v.Primary = rec.PrimaryDiffs
		v.Secondary = rec.SecondaryDiffs
	}
	return v
}
