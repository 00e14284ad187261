package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/Shivanand-hulikatti/academic-event-manager/internal/archive"
	"github.com/Shivanand-hulikatti/academic-event-manager/internal/handler"
	"github.com/Shivanand-hulikatti/academic-event-manager/internal/integrity"
	"github.com/spf13/cobra"
)

// NewInitCommand creates the init command, which prepares empty storage.
func NewInitCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the event store if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := opts.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "%s store ready\n", opts.cfg.Store.Backend)
			return nil
		},
	}
}

// NewCountCommand creates the count command.
func NewCountCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of stored events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, store, err := opts.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := svc.CountEvents(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
}

// NewHashCommand creates the hash command. With a file argument it hashes
// that file directly instead of the configured store.
func NewHashCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "hash [file]",
		Short: "Print the SHA-256 digest of the events data",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var sum string
			if len(args) == 1 {
				var err error
				if sum, err = integrity.DigestFile(args[0]); err != nil {
					return err
				}
			} else {
				svc, store, err := opts.openService(cmd.Context())
				if err != nil {
					return err
				}
				defer store.Close()
				if sum, err = svc.Hash(cmd.Context()); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), sum)
			return nil
		},
	}
}

// NewExportCommand creates the export command, which writes the zipped
// events data to a file or, with "-o -", to stdout.
func NewExportCommand(opts *RootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Write the events data as a zip archive",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var zr *bytes.Reader
			if len(args) == 1 {
				var err error
				if zr, err = archive.PackageFile(args[0]); err != nil {
					return err
				}
			} else {
				svc, store, err := opts.openService(cmd.Context())
				if err != nil {
					return err
				}
				defer store.Close()
				if _, zr, err = svc.Archive(cmd.Context()); err != nil {
					return err
				}
			}

			if output == "-" {
				_, err := io.Copy(cmd.OutOrStdout(), zr)
				return err
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			defer f.Close()
			if _, err := io.Copy(f, zr); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", handler.ArchiveFilename, `output path, or "-" for stdout`)
	return cmd
}
