package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chewton2k/Imprint/keys"
)

func newKeygenCmd(opts *rootOptions) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a new signing keypair and store it under a name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ks, err := opts.keyStore()
			if err != nil {
				return err
			}
			kp, err := keys.Generate()
			if err != nil {
				return err
			}
			if err := ks.Save(name, kp); err != nil {
				return err
			}
			did, err := kp.DID()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "name:       %s\n", name)
			fmt.Fprintf(cmd.OutOrStdout(), "creator id: %s\n", did)
			fmt.Fprintf(cmd.OutOrStdout(), "public key: %s\n", kp.PublicHex())
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "default", "name to store the keypair under")
	return cmd
}

func newKeysCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List stored signing keys and their creator identities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ks, err := opts.keyStore()
			if err != nil {
				return err
			}
			names, err := ks.List()
			if err != nil {
				return err
			}
			for _, name := range names {
				kp, err := ks.Load(name)
				if err != nil {
					return err
				}
				did, err := kp.DID()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, did)
			}
			return nil
		},
	}
}
