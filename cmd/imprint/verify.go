package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/chewton2k/Imprint/provenance"
)

func newVerifyCmd(opts *rootOptions) *cobra.Command {
	var recordID string
	cmd := &cobra.Command{
		Use:   "verify <file>",
		Short: "Check a file against a registered record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			s, closeFn, err := opts.openStore()
			if err != nil {
				return err
			}
			defer closeFn()

			out, err := opts.engine(s).VerifyContent(cmd.Context(), recordID, content)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "status:     %s\n", out.Status)
			fmt.Fprintf(cmd.OutOrStdout(), "title:      %s\n", out.Record.Title)
			fmt.Fprintf(cmd.OutOrStdout(), "creator id: %s\n", out.Record.CreatorID)
			fmt.Fprintf(cmd.OutOrStdout(), "signed at:  %s\n", out.Record.SignedAt)
			if out.Status != provenance.StatusVerified {
				return fmt.Errorf("verification failed: %s", out.Status)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&recordID, "id", "", "record ID to verify against")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newLookupCmd(opts *rootOptions) *cobra.Command {
	var contentType string
	cmd := &cobra.Command{
		Use:   "lookup <file>",
		Short: "Resolve a file against registered records, exact then perceptual",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if contentType == "" {
				contentType = http.DetectContentType(content)
			}
			s, closeFn, err := opts.openStore()
			if err != nil {
				return err
			}
			defer closeFn()

			res, err := opts.engine(s).ResolveContent(cmd.Context(), content, contentType)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "status: %s\n", res.Status)
			for _, c := range res.Candidates {
				sig := "signature ok"
				if !c.SignatureValid {
					sig = "SIGNATURE INVALID"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tdistance=%d\t%s\t%q by %s\n",
					c.Record.ID, c.Distance, sig, c.Record.Title, c.Record.CreatorID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&contentType, "content-type", "", "MIME type (default: sniffed from content)")
	return cmd
}
