package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chewton2k/Imprint/signing"
	"github.com/chewton2k/Imprint/store/grpcstore"
)

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	var (
		recordID   string
		keyName    string
		verifyOnly bool
	)
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete an owned record with a fresh signed authorization",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ks, err := opts.keyStore()
			if err != nil {
				return err
			}
			creator, err := ks.Load(keyName)
			if err != nil {
				return err
			}

			if opts.remote != "" {
				c, err := grpcstore.Dial(opts.remote, grpcstore.DialOptions{Timeout: opts.timeout})
				if err != nil {
					return err
				}
				defer c.Close()
				c.Timeout = opts.timeout

				proof, err := signing.SignAction(signing.ActionDelete, recordID, creator.PrivateKey, nil)
				if err != nil {
					return err
				}
				if err := c.DeleteAuthorized(cmd.Context(), recordID, proof, verifyOnly); err != nil {
					return err
				}
			} else {
				s, closeFn, err := opts.openStore()
				if err != nil {
					return err
				}
				defer closeFn()

				eng := opts.engine(s)
				proof, err := eng.AuthorizeDeletion(recordID, creator)
				if err != nil {
					return err
				}
				if err := eng.Delete(cmd.Context(), recordID, proof, verifyOnly); err != nil {
					return err
				}
			}

			if verifyOnly {
				fmt.Fprintf(cmd.OutOrStdout(), "authorization for %s verified; record kept\n", recordID)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", recordID)
			return nil
		},
	}
	cmd.Flags().StringVar(&recordID, "id", "", "record ID to delete")
	cmd.Flags().StringVar(&keyName, "key", "default", "name of the creator's signing key")
	cmd.Flags().BoolVar(&verifyOnly, "verify-only", false, "check authorization without deleting")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}
