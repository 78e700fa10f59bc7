package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/c0deZ3R0/go-note-merge/codec"
	"github.com/c0deZ3R0/go-note-merge/merge"
)

func newMergeCmd(a *app) *cobra.Command {
	var in, out string

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge a request file and write the merged note",
		Long: `Read a merge request (base document, media, selection and the primary
and secondary diff lists) and write the merged document, media, selection and
statistics. No store is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openInput(cmd, in)
			if err != nil {
				return fmt.Errorf("open request: %w", err)
			}
			defer r.Close()

			req, err := codec.ReadRequest(r)
			if err != nil {
				return fmt.Errorf("read request: %w", err)
			}

			resp := mergeRequest(merge.New(merge.WithLogger(a.logger)), req)
			a.logger.Debug("request merged",
				slog.Int("blocks", len(resp.Document.Blocks)),
				slog.Int("discarded", resp.Stats.Discarded),
			)

			return writeOutput(cmd, out, func(w io.Writer) error {
				return codec.WriteResponse(w, resp)
			})
		},
	}

	cmd.Flags().StringVar(&in, "in", "-", "Merge request file, - for stdin")
	cmd.Flags().StringVar(&out, "out", "-", "Result file, - for stdout")
	return cmd
}

// mergeRequest merges the document (blocks and ink) and the media list.
func mergeRequest(m *merge.Merger, req codec.MergeRequest) codec.MergeResponse {
	doc := m.MergeDocument(req.Document.Model(), req.Selection, req.Primary, req.Secondary)
	media := m.MergeMedia(req.Media, req.Primary, req.Secondary)
	return codec.MergeResponse{
		Document:  codec.Document(doc.Document),
		Media:     media.Media,
		Selection: doc.Selection,
		Stats:     doc.Stats.Add(media.Stats),
	}
}
