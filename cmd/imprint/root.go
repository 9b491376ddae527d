package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/chewton2k/Imprint/keys"
	"github.com/chewton2k/Imprint/model"
	"github.com/chewton2k/Imprint/provenance"
	"github.com/chewton2k/Imprint/store"
	"github.com/chewton2k/Imprint/store/grpcstore"
	"github.com/chewton2k/Imprint/store/pebblestore"
)

type rootOptions struct {
	remote  string
	dataDir string
	keysDir string
	timeout time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "imprint",
		Short:         "Sign, register, and verify content provenance records",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.remote, "remote", "", "imprintd address; empty means the local store")
	cmd.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "local record store directory (default ~/.imprint/records)")
	cmd.PersistentFlags().StringVar(&opts.keysDir, "keys-dir", "", "key store directory (default ~/.imprint/keys)")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "remote call timeout")

	cmd.AddCommand(
		newKeygenCmd(opts),
		newKeysCmd(opts),
		newRegisterCmd(opts),
		newVerifyCmd(opts),
		newLookupCmd(opts),
		newDeleteCmd(opts),
	)
	return cmd
}

func (o *rootOptions) keyStore() (*keys.KeyStore, error) {
	return keys.OpenKeyStore(o.keysDir)
}

// remoteStore adapts the gRPC client to the full store contract. Plain
// deletes are refused; the daemon only accepts signature-authorized ones.
type remoteStore struct {
	*grpcstore.Client
}

func (remoteStore) Delete(_ context.Context, _ string) error {
	return fmt.Errorf("remote records require an authorized delete; use the delete command")
}

// openStore opens the configured backend. The returned close function is
// never nil.
func (o *rootOptions) openStore() (store.Store, func() error, error) {
	if o.remote != "" {
		c, err := grpcstore.Dial(o.remote, grpcstore.DialOptions{Timeout: o.timeout})
		if err != nil {
			return nil, nil, err
		}
		c.Timeout = o.timeout
		return remoteStore{c}, c.Close, nil
	}
	dir := o.dataDir
	if dir == "" {
		var err error
		dir, err = defaultRecordDir()
		if err != nil {
			return nil, nil, err
		}
	}
	db, err := pebblestore.Open(dir)
	if err != nil {
		return nil, nil, err
	}
	return db, db.Close, nil
}

func (o *rootOptions) engine(s store.Store) *provenance.Engine {
	return provenance.New(s)
}

func defaultRecordDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".imprint", "records"), nil
}

func parsePermission(flagName, v string) (model.Permission, error) {
	switch v {
	case "allow":
		return model.PermissionAllowed, nil
	case "deny":
		return model.PermissionDenied, nil
	default:
		return "", fmt.Errorf("--%s must be allow or deny, got %q", flagName, v)
	}
}
