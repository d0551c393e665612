package makeadmin

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/shopauth/internal/common"
	"github.com/dmitrijs2005/shopauth/internal/server/models"
)

var ErrPasswordMismatch = errors.New("passwords do not match")

// Ensurer creates or promotes an admin account.
type Ensurer interface {
	EnsureAdmin(ctx context.Context, name, email string, password []byte) (*models.Account, bool, error)
}

// Options preset values that are otherwise prompted for.
type Options struct {
	Name  string
	Email string
}

// Run prompts for missing details and the password (twice), then ensures
// the admin account exists. Both password buffers are wiped on return.
func Run(ctx context.Context, e Ensurer, opts Options, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)

	var err error
	if opts.Email == "" {
		if opts.Email, err = GetSimpleText(reader, "Admin email", out); err != nil {
			return err
		}
	}
	if opts.Email == "" {
		return fmt.Errorf("email is required: %w", common.ErrValidation)
	}
	if opts.Name == "" {
		if opts.Name, err = GetSimpleText(reader, "Admin name (optional)", out); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
	}

	password, err := GetPassword(out, "Enter password: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	confirm, err := GetPassword(out, "Repeat password: ")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	if !bytes.Equal(password, confirm) {
		return ErrPasswordMismatch
	}

	account, created, err := e.EnsureAdmin(ctx, opts.Name, opts.Email, password)
	if err != nil {
		return err
	}

	if created {
		fmt.Fprintf(out, "Admin account created: %s (%s)\n", account.Email, account.ID)
	} else {
		fmt.Fprintf(out, "Account promoted to admin: %s (%s)\n", account.Email, account.ID)
	}
	return nil
}
