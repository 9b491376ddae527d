package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/chewton2k/Imprint/model"
	"github.com/chewton2k/Imprint/provenance"
)

func newRegisterCmd(opts *rootOptions) *cobra.Command {
	var (
		keyName     string
		title       string
		contentType string
		aiTraining  string
		aiDeriv     string
		commercial  string
		attribution bool
		license     string
		policyNote  string
	)
	cmd := &cobra.Command{
		Use:   "register <file>",
		Short: "Fingerprint, sign, and register a file's provenance record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if contentType == "" {
				contentType = http.DetectContentType(content)
			}
			if title == "" {
				title = args[0]
			}

			training, err := parsePermission("ai-training", aiTraining)
			if err != nil {
				return err
			}
			deriv, err := parsePermission("ai-derivatives", aiDeriv)
			if err != nil {
				return err
			}
			comm, err := parsePermission("commercial", commercial)
			if err != nil {
				return err
			}

			ks, err := opts.keyStore()
			if err != nil {
				return err
			}
			creator, err := ks.Load(keyName)
			if err != nil {
				return err
			}

			s, closeFn, err := opts.openStore()
			if err != nil {
				return err
			}
			defer closeFn()

			rec, err := opts.engine(s).Register(cmd.Context(), provenance.RegisterRequest{
				Content:     content,
				Title:       title,
				ContentType: contentType,
				Policy: model.UsagePolicy{
					AITraining:             training,
					AIDerivativeGeneration: deriv,
					CommercialUse:          comm,
					AttributionRequired:    attribution,
					License:                license,
					PolicyNote:             policyNote,
				},
				Creator: creator,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "record id:       %s\n", rec.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "creator id:      %s\n", rec.CreatorID)
			fmt.Fprintf(cmd.OutOrStdout(), "content hash:    %s\n", rec.ContentHash)
			if rec.PerceptualHash != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "perceptual hash: %s\n", rec.PerceptualHash)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "signed at:       %s\n", rec.SignedAt)
			return nil
		},
	}
	cmd.Flags().StringVar(&keyName, "key", "default", "name of the signing key")
	cmd.Flags().StringVar(&title, "title", "", "work title (default: the file name)")
	cmd.Flags().StringVar(&contentType, "content-type", "", "MIME type (default: sniffed from content)")
	cmd.Flags().StringVar(&aiTraining, "ai-training", "deny", "allow or deny AI training use")
	cmd.Flags().StringVar(&aiDeriv, "ai-derivatives", "deny", "allow or deny AI derivative generation")
	cmd.Flags().StringVar(&commercial, "commercial", "deny", "allow or deny commercial use")
	cmd.Flags().BoolVar(&attribution, "attribution", true, "require attribution")
	cmd.Flags().StringVar(&license, "license", "", "license identifier, e.g. CC-BY-4.0")
	cmd.Flags().StringVar(&policyNote, "note", "", "free-form policy note")
	return cmd
}
