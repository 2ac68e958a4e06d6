package google

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/term"
)

// FlowOptions tune the user-consent strategies.
type FlowOptions struct {
	// ForceConsent adds prompt=consent so Google returns a new refresh token.
	ForceConsent bool

	// Timeout bounds the whole consent flow. Defaults to two minutes.
	Timeout time.Duration

	// Out receives the instructions shown to the user. Defaults to stderr.
	Out io.Writer

	// In supplies the pasted redirect URL for the console strategy.
	// Defaults to stdin.
	In io.Reader
}

func (o FlowOptions) withDefaults() FlowOptions {
	if o.Timeout <= 0 {
		o.Timeout = 2 * time.Minute
	}
	if o.Out == nil {
		o.Out = os.Stderr
	}
	if o.In == nil {
		o.In = os.Stdin
	}
	return o
}

// openBrowser is swapped out in tests.
var openBrowser = func(u string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", u)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", u)
	default:
		cmd = exec.Command("xdg-open", u)
	}
	return cmd.Start()
}

// stdinIsTerminal is swapped out in tests.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// NewLocalServerProvider returns a provider that opens the consent page in
// a browser and receives the code on a loopback callback.
func NewLocalServerProvider(cfg *oauth2.Config, opts FlowOptions) CredentialProvider {
	opts = opts.withDefaults()
	return &userConsentProvider{
		name:   StrategyLocalServer,
		config: cfg,
		consent: func(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
			return localServerConsent(ctx, cfg, opts)
		},
	}
}

// NewConsoleProvider returns a provider that prints the consent URL and
// reads the redirect URL, or the bare code, pasted back by the user.
func NewConsoleProvider(cfg *oauth2.Config, opts FlowOptions) CredentialProvider {
	opts = opts.withDefaults()
	return &userConsentProvider{
		name:   StrategyConsole,
		config: cfg,
		consent: func(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
			return consoleConsent(ctx, cfg, opts)
		},
	}
}

func localServerConsent(ctx context.Context, base *oauth2.Config, opts FlowOptions) (*oauth2.Token, error) {
	state, err := randomState()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to listen for OAuth callback: %w", err)
	}
	defer ln.Close()

	cfg := *base
	cfg.RedirectURL = fmt.Sprintf("http://127.0.0.1:%d/oauth2/callback", ln.Addr().(*net.TCPAddr).Port)

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)
	report := func(err error) {
		select {
		case errCh <- err:
		default:
		}
	}

	srv := &http.Server{
		ReadHeaderTimeout: 10 * time.Second,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/oauth2/callback" {
				http.NotFound(w, r)
				return
			}
			q := r.URL.Query()
			if e := q.Get("error"); e != "" {
				report(fmt.Errorf("authorization error: %s", e))
				_, _ = w.Write([]byte("Authorization cancelled. You can close this window."))
				return
			}
			if q.Get("state") != state {
				report(errors.New("state mismatch"))
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte("State mismatch. You can close this window."))
				return
			}
			code := q.Get("code")
			if code == "" {
				report(errors.New("missing code"))
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte("Missing code. You can close this window."))
				return
			}
			select {
			case codeCh <- code:
			default:
			}
			_, _ = w.Write([]byte("Success! You can close this window."))
		}),
	}
	defer srv.Close()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			report(err)
		}
	}()

	authURL := cfg.AuthCodeURL(state, authURLParams(opts.ForceConsent)...)
	fmt.Fprintln(opts.Out, "Opening browser for authorization...")
	fmt.Fprintln(opts.Out, "If the browser doesn't open, visit this URL:")
	fmt.Fprintln(opts.Out, authURL)
	_ = openBrowser(authURL)

	select {
	case code := <-codeCh:
		tok, err := cfg.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("failed to exchange authorization code: %w", WrapOAuthError(err))
		}
		return tok, nil
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for OAuth callback: %w", ctx.Err())
	}
}

func consoleConsent(ctx context.Context, base *oauth2.Config, opts FlowOptions) (*oauth2.Token, error) {
	if opts.In == os.Stdin && !stdinIsTerminal() {
		return nil, errors.New("console authorization needs an interactive terminal")
	}

	state, err := randomState()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	cfg := *base
	cfg.RedirectURL = "http://localhost:1"

	authURL := cfg.AuthCodeURL(state, authURLParams(opts.ForceConsent)...)
	fmt.Fprintln(opts.Out, "Visit this URL to authorize:")
	fmt.Fprintln(opts.Out, authURL)
	fmt.Fprintln(opts.Out)
	fmt.Fprintln(opts.Out, "After authorizing, you'll be redirected to a localhost URL that won't load.")
	fmt.Fprintln(opts.Out, "Copy the URL from your browser's address bar and paste it here.")
	fmt.Fprint(opts.Out, "Paste redirect URL: ")

	line, err := bufio.NewReader(opts.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read redirect URL: %w", err)
	}

	code, gotState, err := extractCodeAndState(strings.TrimSpace(line))
	if err != nil {
		return nil, err
	}
	if gotState != "" && gotState != state {
		return nil, errors.New("state mismatch")
	}

	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", WrapOAuthError(err))
	}
	return tok, nil
}

func authURLParams(forceConsent bool) []oauth2.AuthCodeOption {
	opts := []oauth2.AuthCodeOption{oauth2.AccessTypeOffline}
	if forceConsent {
		opts = append(opts, oauth2.SetAuthURLParam("prompt", "consent"))
	}
	return opts
}

func randomState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// extractCodeAndState accepts either a full redirect URL or a bare code.
func extractCodeAndState(input string) (code string, state string, err error) {
	if input == "" {
		return "", "", errors.New("no redirect URL or code entered")
	}
	if !strings.Contains(input, "://") && !strings.Contains(input, "?") {
		return input, "", nil
	}
	parsed, err := url.Parse(input)
	if err != nil {
		return "", "", fmt.Errorf("invalid redirect URL: %w", err)
	}
	q := parsed.Query()
	code = q.Get("code")
	if code == "" {
		return "", "", errors.New("no code found in URL")
	}
	return code, q.Get("state"), nil
}
