package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-gapi-session/provider/google"
)

// terminalAuthorizer prints the consent URL and reads back the URL the browser was
// redirected to.
func terminalAuthorizer(reader *bufio.Reader, out io.Writer) google.Authorizer {
	return func(ctx context.Context, authURL string) (string, string, error) {
		fmt.Fprintf(out, "Open this URL in your browser:\n\n  %s\n\nPaste the URL you were redirected to: ", authURL)

		type result struct {
			line string
			err  error
		}
		lines := make(chan result, 1)
		go func() {
			line, err := reader.ReadString('\n')
			lines <- result{line: line, err: err}
		}()

		select {
		case <-ctx.Done():
			return "", "", ctx.Err()
		case r := <-lines:
			if r.err != nil && r.line == "" {
				return "", "", fmt.Errorf("reading redirect url: %w", r.err)
			}
			return parseRedirect(strings.TrimSpace(r.line))
		}
	}
}

func parseRedirect(raw string) (code, state string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("parsing redirect url: %w", err)
	}
	q := u.Query()
	if e := q.Get("error"); e != "" {
		return "", "", fmt.Errorf("authorization denied: %s", e)
	}
	code = q.Get("code")
	if code == "" {
		return "", "", errors.New("redirect url has no code")
	}
	return code, q.Get("state"), nil
}
