package vaultdialog

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

const (
	Title       = "Secret Vault"
	Description = "Store your API keys securely in the encrypted vault. These will be used by the backend as overrides for environment variables."
)

// Render writes a plain-text view of the dialog to w. The secret value is
// masked; only its length is visible.
func (d *Dialog) Render(w io.Writer) error {
	v := d.View()
	if v.State == Closed {
		return ErrClosed
	}

	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", Title)
	fmt.Fprintf(&b, "%s\n\n", Description)

	switch v.Status.Kind {
	case StatusSuccess:
		fmt.Fprintf(&b, "[ok] %s\n\n", v.Status.Message)
	case StatusFailure:
		fmt.Fprintf(&b, "[error] %s\n\n", v.Status.Message)
	}

	fmt.Fprintf(&b, "Secret Name (e.g., OPENAI_API_KEY): %s\n", v.Name)
	fmt.Fprintf(&b, "Secret Value: %s\n", mask(v.Value))
	if v.State == Submitting {
		b.WriteString("Saving...\n")
	}

	b.WriteString("\nConfigured Secrets:\n")
	switch {
	case v.State == LoadingList && len(v.Names) == 0:
		b.WriteString("  Loading...\n")
	case len(v.Names) == 0:
		b.WriteString("  No secrets configured yet.\n")
	default:
		chips := make([]string, len(v.Names))
		for i, name := range v.Names {
			chips[i] = "[" + name + "]"
		}
		fmt.Fprintf(&b, "  %s\n", strings.Join(chips, " "))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func mask(value string) string {
	return strings.Repeat("*", utf8.RuneCountInString(value))
}
