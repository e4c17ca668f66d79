package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"keywordpulse/pkg/imageedit"
)

type editOptions struct {
	image  string
	prompt string
	out    string
}

func newEditCommand(a *app) *cobra.Command {
	opts := &editOptions{}

	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit an image with a text instruction",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, a, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.image, "image", "i", "", "PNG, JPEG, GIF or WebP file to edit")
	cmd.Flags().StringVarP(&opts.prompt, "prompt", "p", "", "edit instruction")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output file (default: edit-<id>.<ext>)")
	_ = cmd.MarkFlagRequired("image")
	return cmd
}

func runEdit(cmd *cobra.Command, a *app, opts *editOptions) error {
	raw, err := os.ReadFile(opts.image)
	if err != nil {
		return fmt.Errorf("reading image: %w", err)
	}
	asset, err := imageedit.NewAsset(raw, a.cfg.Upload.MaxBytes)
	if err != nil {
		return err
	}

	entry, err := imageedit.NewOrchestrator(a.client).Edit(cmd.Context(), asset.DataURI(), opts.prompt)
	if err != nil {
		return err
	}

	edited, err := entry.Asset()
	if err != nil {
		return err
	}
	data, err := edited.Bytes()
	if err != nil {
		return fmt.Errorf("decoding edited image: %w", err)
	}

	path := opts.out
	if path == "" {
		path = entry.Filename()
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing image: %w", err)
	}

	a.printer.Success("Saved %s (%d bytes, %s)", path, len(data), edited.MIMEType)
	return nil
}
