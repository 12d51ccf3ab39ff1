package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/pairjournal/internal/client/client"
	"github.com/dmitrijs2005/pairjournal/internal/client/config"
	"github.com/dmitrijs2005/pairjournal/internal/client/services"
	"github.com/dmitrijs2005/pairjournal/internal/common"
	"github.com/dmitrijs2005/pairjournal/internal/keystore"
	"github.com/dmitrijs2005/pairjournal/internal/logging"
	"github.com/dmitrijs2005/pairjournal/internal/models"
	"github.com/dmitrijs2005/pairjournal/internal/partner"
	"golang.org/x/term"
)

// localTokenTTL bounds access tokens minted in-process. They never leave the
// process, so one long-lived token per session is enough.
const localTokenTTL = 12 * time.Hour

type App struct {
	config  *config.Config
	logger  logging.Logger
	backend services.Backend
	closer  io.Closer
	journal *services.Journal

	in          *bufio.Reader
	out         io.Writer
	interactive bool

	email   string
	records []models.EncryptedRecord
}

type Option func(*App)

// WithBackend replaces the backend the config would select.
func WithBackend(b services.Backend) Option {
	return func(a *App) { a.backend = b }
}

// WithIO reads commands and answers from in and writes to out. Passwords
// are read from in as plain lines.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(a *App) {
		a.in = bufio.NewReader(in)
		a.out = out
		a.interactive = false
	}
}

func NewApp(ctx context.Context, c *config.Config, opts ...Option) (*App, error) {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}

	a := &App{
		config:      c,
		logger:      logging.NewText(os.Stderr, level),
		in:          bufio.NewReader(os.Stdin),
		out:         os.Stdout,
		interactive: term.IsTerminal(int(os.Stdin.Fd())),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.backend == nil {
		b, closer, err := newBackend(ctx, c, a.logger)
		if err != nil {
			return nil, err
		}
		a.backend, a.closer = b, closer
	}

	a.journal = services.NewJournal(a.backend, a.logger,
		services.WithPartnerOptions(partner.WithPendingTTL(c.PendingTTL)))
	return a, nil
}

func newBackend(ctx context.Context, c *config.Config, l logging.Logger) (services.Backend, io.Closer, error) {
	switch c.Mode {
	case config.ModeRemote:
		rc, err := client.NewGRPCClient(c.ServerEndpointAddr)
		if err != nil {
			return nil, nil, fmt.Errorf("connect %s: %w", c.ServerEndpointAddr, err)
		}
		return rc, rc, nil

	case config.ModeLocal:
		secret := common.GenerateRandByteArray(32)
		loc, err := client.InitLocal(ctx, c.LocalDSN, secret, localTokenTTL, l)
		if err != nil {
			return nil, nil, fmt.Errorf("open %s: %w", c.LocalDSN, err)
		}
		return loc, loc, nil

	case config.ModeMemory:
		secret := common.GenerateRandByteArray(32)
		loc := client.NewLocal(keystore.NewMemoryStore(), secret, localTokenTTL, l)
		return loc, loc, nil
	}
	return nil, nil, fmt.Errorf("%w: unknown mode %q", common.ErrInvalidInput, c.Mode)
}

// Close ends the session and releases the backend.
func (a *App) Close() error {
	a.journal.SignOut()
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// commandContext bounds one command by the configured request timeout.
func (a *App) commandContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.config.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.config.RequestTimeout)
}

// readSecret reads a password without echo on a terminal, or as a plain
// line otherwise.
func (a *App) readSecret(prompt string) (string, error) {
	if !a.interactive {
		return GetSimpleText(a.in, prompt, a.out)
	}
	pw, err := GetPassword(prompt, a.out)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}

func (a *App) readNewSecret() (string, error) {
	pw, err := a.readSecret("New password")
	if err != nil {
		return "", err
	}
	again, err := a.readSecret("Repeat password")
	if err != nil {
		return "", err
	}
	if pw != again {
		return "", fmt.Errorf("%w: passwords do not match", common.ErrInvalidInput)
	}
	if pw == "" {
		return "", fmt.Errorf("%w: empty password", common.ErrInvalidInput)
	}
	return pw, nil
}
