package accounts

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

type noopNotifier struct{}

func (noopNotifier) SendVerification(context.Context, string, string, string) error {
	return nil
}

// VerificationLink joins the caller-supplied base link and the token.
func VerificationLink(baseLink, token string) string {
	return strings.TrimSuffix(baseLink, "/") + "/" + token
}

// WriterNotifier prints the verification link to a writer; it stands in
// for a real mail transport during development.
type WriterNotifier struct {
	Out io.Writer
}

// NewWriterNotifier defaults to stdout.
func NewWriterNotifier(out io.Writer) *WriterNotifier {
	if out == nil {
		out = os.Stdout
	}
	return &WriterNotifier{Out: out}
}

// SendVerification implements Notifier.
func (n *WriterNotifier) SendVerification(_ context.Context, email, token, baseLink string) error {
	fmt.Fprintln(n.Out, "====== SENDING EMAIL NOTIFICATION =======")
	fmt.Fprintf(n.Out, "to: %s\n", email)
	fmt.Fprintf(n.Out, "link: %s\n", VerificationLink(baseLink, token))
	return nil
}
