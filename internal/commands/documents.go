package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func (a *app) newUploadCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a text document for indexing",
		Long: `Upload a UTF-8 text document to the answering service.

The document is stored under its base name unless --name is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}
			filename := name
			if filename == "" {
				filename = filepath.Base(args[0])
			}

			client, err := a.client()
			if err != nil {
				return err
			}

			stop := a.progress("Uploading " + filename)
			res, err := client.UploadDocument(cmd.Context(), filename, content)
			if err != nil {
				stop(false, "")
				return fmt.Errorf("upload failed: %w", err)
			}
			stop(true, "Uploaded")

			if res.Message != "" {
				fmt.Fprintln(a.out(), res.Message)
			}
			fmt.Fprintf(a.out(), "doc_id: %s\n", res.DocID)
			if res.S3Key != "" {
				fmt.Fprintf(a.out(), "s3_key: %s\n", res.S3Key)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Store the document under this name")
	return cmd
}

func (a *app) newFetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch [session-id]",
		Short: "Show the stored response of a session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var sessionID string
			if len(args) > 0 {
				sessionID = args[0]
			}

			client, err := a.client()
			if err != nil {
				return err
			}
			res, err := client.FetchStatus(cmd.Context(), sessionID)
			if err != nil {
				return fmt.Errorf("fetch failed: %w", err)
			}

			if res.SessionID != "" {
				fmt.Fprintf(a.out(), "session: %s\n", res.SessionID)
			}
			fmt.Fprintln(a.out(), res.Response)
			return nil
		},
	}
}
