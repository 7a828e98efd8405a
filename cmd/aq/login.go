package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/esolhaug/aq/internal/config"
	"github.com/esolhaug/aq/internal/datalab"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// newClient builds a Data Lab client from the configured service endpoints.
func newClient(cfg *config.Config) (*datalab.Client, error) {
	return datalab.New(datalab.Opts{
		AuthURL:    cfg.Service.AuthURL,
		QueryURL:   cfg.Service.QueryURL,
		StorageURL: cfg.Service.StorageURL,
	})
}

// login prompts for credentials and authenticates the client. The password
// is read without echo when stdin is a terminal, and as a plain line
// otherwise (tests, piped input).
func login(ctx context.Context, cmd *cobra.Command, c *datalab.Client) error {
	out := cmd.OutOrStdout()
	in := bufio.NewReader(cmd.InOrStdin())

	fmt.Fprint(out, "Data Lab username: ")
	user, err := in.ReadString('\n')
	if err != nil && user == "" {
		return fmt.Errorf("read username: %w", err)
	}
	user = strings.TrimSpace(user)

	fmt.Fprint(out, "Data Lab password: ")
	var pass string
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		pw, err := readPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		pass = string(pw)
	} else {
		line, err := in.ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read password: %w", err)
		}
		pass = strings.TrimRight(line, "\r\n")
	}

	if _, err := datalab.Login(ctx, c, user, pass); err != nil {
		return err
	}
	fmt.Fprintln(out, "Authenticated.")
	return nil
}

// vosStore adapts the datalab client to the fetcher's Storage interface.
type vosStore struct {
	c *datalab.Client
}

func (s vosStore) List(ctx context.Context, name string) ([]string, error) {
	return datalab.List(ctx, s.c, name)
}

func (s vosStore) Get(ctx context.Context, name, localPath string) error {
	return datalab.Get(ctx, s.c, name, localPath)
}
