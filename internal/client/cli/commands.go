package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dmitrijs2005/securevault/internal/client/models"
	"github.com/dmitrijs2005/securevault/internal/common"
	"github.com/dmitrijs2005/securevault/internal/filex"
	"github.com/dmitrijs2005/securevault/internal/netx"
)

const timeLayout = "2006-01-02 15:04"

var errPasswordMismatch = common.NewValidationError("confirmation", "does not match")

func (a *App) requireLogin() error {
	if !a.isLoggedIn() {
		return common.ErrNotAuthenticated
	}
	return nil
}

func (a *App) Register(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	name, err := GetSimpleText(a.reader, "Username", a.out)
	if err != nil {
		return err
	}
	secret, err := GetSecret(a.reader, "Password", a.out)
	if err != nil {
		return err
	}
	confirm, err := GetSecret(a.reader, "Confirm password", a.out)
	if err != nil {
		return err
	}
	if secret != confirm {
		return errPasswordMismatch
	}

	id, err := a.session.SignUp(ctx, email, secret, name)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Account created. Signed in as %s\n", id.Email)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	secret, err := GetSecret(a.reader, "Password", a.out)
	if err != nil {
		return err
	}

	id, err := a.session.SignIn(ctx, email, secret)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s\n", id.Email)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	a.session.SignOut(ctx)
	fmt.Fprintln(a.out, "Signed out.")
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	id := a.session.CurrentIdentity()
	if id == nil {
		return common.ErrNotAuthenticated
	}
	name := id.DisplayName
	if name == "" {
		name = "-"
	}
	fmt.Fprintf(a.out, "%s (%s)\n", id.Email, name)
	return nil
}

func (a *App) List(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	a.printEntries(a.store.Entries())
	return nil
}

func (a *App) Search(ctx context.Context, query string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	if query == "" {
		var err error
		if query, err = GetSimpleText(a.reader, "Search for", a.out); err != nil {
			return err
		}
	}
	a.printEntries(a.store.Search(query))
	return nil
}

func (a *App) printEntries(entries []*models.CredentialEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No passwords saved yet.")
		return
	}
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSITE\tUSERNAME\tADDED")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.ID, e.SiteName, e.Username, e.CreatedAt.Local().Format(timeLayout))
	}
	_ = tw.Flush()
}

// entryID takes the id from the command line or asks for it.
func (a *App) entryID(id, prompt string) (string, error) {
	if id != "" {
		return id, nil
	}
	return GetSimpleText(a.reader, prompt, a.out)
}

func (a *App) Show(ctx context.Context, id string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	id, err := a.entryID(id, "Entry id")
	if err != nil {
		return err
	}
	e, err := a.store.Get(id)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Site:     %s\n", e.SiteName)
	fmt.Fprintf(a.out, "Username: %s\n", e.Username)
	fmt.Fprintf(a.out, "Password: %s\n", e.Secret)
	fmt.Fprintf(a.out, "Color:    %s\n", e.ColorTag)
	fmt.Fprintf(a.out, "Added:    %s\n", e.CreatedAt.Local().Format(timeLayout))
	if e.UpdatedAt != nil {
		fmt.Fprintf(a.out, "Updated:  %s\n", e.UpdatedAt.Local().Format(timeLayout))
	}
	return nil
}

func (a *App) Add(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	a.editor.Begin(nil)
	return a.editDraft(ctx, false)
}

func (a *App) Edit(ctx context.Context, id string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	id, err := a.entryID(id, "Entry id")
	if err != nil {
		return err
	}
	e, err := a.store.Get(id)
	if err != nil {
		return err
	}
	a.editor.Begin(e)
	return a.editDraft(ctx, true)
}

// editDraft prompts for every field. When editing, an empty answer keeps
// the current value.
func (a *App) editDraft(ctx context.Context, editing bool) error {
	hint := ""
	if editing {
		hint = " (empty keeps current)"
	}
	draft := a.editor.Draft()

	site, err := GetSimpleText(a.reader, "Site name"+hint, a.out)
	if err != nil {
		return err
	}
	username, err := GetSimpleText(a.reader, "Username"+hint, a.out)
	if err != nil {
		return err
	}
	secret, err := GetSecret(a.reader, "Password"+hint, a.out)
	if err != nil {
		return err
	}

	a.editor.SetSiteName(keep(site, draft.SiteName, editing))
	a.editor.SetUsername(keep(username, draft.Username, editing))
	a.editor.SetSecret(keep(secret, draft.Secret, editing))

	fmt.Fprintf(a.out, "Password strength: %s\n", common.StrengthLabel(a.editor.Strength()))

	for {
		saved, err := a.editor.Commit(ctx)
		if err == nil {
			fmt.Fprintf(a.out, "Saved %s (%s)\n", saved.SiteName, saved.ID)
			return nil
		}
		if errors.Is(err, common.ErrValidation) || errors.Is(err, common.ErrStaleScope) {
			a.editor.Discard()
			return err
		}

		// the draft survives a failed commit
		a.report(ctx, err)
		retry, cerr := GetConfirmation(a.reader, "Try again?", a.out)
		if cerr != nil || !retry {
			a.editor.Discard()
			return nil
		}
	}
}

func keep(answer, current string, editing bool) string {
	if editing && answer == "" {
		return current
	}
	return answer
}

func (a *App) Delete(ctx context.Context, id string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	id, err := a.entryID(id, "Entry id to delete")
	if err != nil {
		return err
	}
	e, err := a.store.Get(id)
	if err != nil {
		return err
	}

	ok, err := GetConfirmation(a.reader, fmt.Sprintf("Delete %s (%s)?", e.SiteName, e.Username), a.out)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(a.out, "Cancelled.")
		return nil
	}

	if err := a.store.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Deleted.")
	return nil
}

// Export requests an encrypted archive of the vault and optionally saves it
// to a local file.
func (a *App) Export(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	passphrase, err := GetSecret(a.reader, "Export passphrase", a.out)
	if err != nil {
		return err
	}
	confirm, err := GetSecret(a.reader, "Confirm passphrase", a.out)
	if err != nil {
		return err
	}
	if passphrase != confirm {
		return errPasswordMismatch
	}

	url, expiresAt, err := a.store.Export(ctx, passphrase)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Export ready until %s:\n%s\n", expiresAt.Local().Format(timeLayout), url)

	path, err := GetSimpleText(a.reader, "Save to file (empty to skip)", a.out)
	if err != nil || path == "" {
		return err
	}
	return a.download(ctx, url, path)
}

func (a *App) download(ctx context.Context, url, path string) error {
	if err := filex.EnsureParentDir(path); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		fmt.Fprintf(a.out, "Cannot create %s: %v\n", path, err)
		return err
	}

	n, err := netx.DownloadPresignedURL(ctx, url, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		a.logger.Warn(ctx, "export download failed", "error", err)
		return fmt.Errorf("%w: %v", common.ErrNetworkFailure, err)
	}
	fmt.Fprintf(a.out, "Saved %d bytes to %s (encrypted with your passphrase).\n", n, path)
	return nil
}
