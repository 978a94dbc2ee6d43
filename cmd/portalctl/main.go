// Command portalctl drives the vehicle portal session from a terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/diosesguerreros/vehicle-portal/internal/api/handler"
	"github.com/diosesguerreros/vehicle-portal/internal/core/domain"
	"github.com/diosesguerreros/vehicle-portal/internal/core/service"
	"github.com/diosesguerreros/vehicle-portal/internal/infrastructure/backend"
	"github.com/diosesguerreros/vehicle-portal/internal/infrastructure/tokenstore"
	"github.com/diosesguerreros/vehicle-portal/pkg/logger"
)

// cliClientID tags audit-less CLI sessions in logs.
const cliClientID = "portalctl"

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "login":
		err = loginCmd(ctx, os.Args[2:])
	case "logout":
		err = logoutCmd(ctx, os.Args[2:])
	case "whoami":
		err = whoamiCmd(ctx, os.Args[2:])
	case "menu":
		err = menuCmd(ctx, os.Args[2:])
	case "list":
		err = listCmd(ctx, os.Args[2:])
	case "help", "-h", "--help":
		usage(os.Stdout)
		return
	default:
		usage(os.Stderr)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "portalctl:", err)
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `portalctl - vehicle portal from the terminal

Usage:
  portalctl login  -u <username> -e <email> [-config config.yaml]
  portalctl logout [-config config.yaml]
  portalctl whoami [-config config.yaml]
  portalctl menu   [-config config.yaml]
  portalctl list   <page> [-config config.yaml]

Examples:
  portalctl login -u alice -e alice@example.com
  portalctl list vehicles
  API_BASE_URL=http://localhost:5000 portalctl whoami`)
}

// app is one CLI invocation: a single client with a file-backed token.
type app struct {
	cfg     *cliConfig
	session *service.SessionStore
	screens *service.ScreenRegistry
}

func newApp(configPath string) (*app, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: true,
		Output: os.Stderr,
	})

	rest, err := backend.New(backend.Config{BaseURL: cfg.APIBaseURL, Timeout: cfg.Timeout}, log)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:     cfg,
		session: service.NewSessionStore(cliClientID, tokenstore.NewFile(cfg.TokenFile), rest, nil, log),
		screens: service.DefaultScreens(rest, handler.NewValidator(), cfg.PoliciesPath, zerolog.Nop()),
	}, nil
}

// parse binds the shared -config flag plus extra and returns the positional args.
func parse(name string, args []string, extra func(fs *flag.FlagSet)) (string, []string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	cfgPath := fs.String("config", defaultConfigPath(), "path to config file")
	if extra != nil {
		extra(fs)
	}
	_ = fs.Parse(reorderArgs(args))
	return *cfgPath, fs.Args()
}

func loginCmd(ctx context.Context, args []string) error {
	var username, email string
	cfgPath, _ := parse("login", args, func(fs *flag.FlagSet) {
		fs.StringVar(&username, "u", "", "username")
		fs.StringVar(&email, "e", "", "email")
	})

	a, err := newApp(cfgPath)
	if err != nil {
		return err
	}

	creds := domain.Credentials{
		Username: strings.TrimSpace(username),
		Email:    strings.TrimSpace(email),
		Password: promptPassword("Password: "),
	}
	if err := handler.NewValidator().Validate(&creds); err != nil {
		return err
	}

	result := a.session.Login(ctx, creds)
	if !result.Success {
		return fmt.Errorf("login failed: %s", result.Error)
	}
	sess := a.session.Snapshot()
	fmt.Printf("Signed in as %s (%s)\n", sess.User.Username, sess.User.Role)
	return nil
}

func logoutCmd(ctx context.Context, args []string) error {
	cfgPath, _ := parse("logout", args, nil)
	a, err := newApp(cfgPath)
	if err != nil {
		return err
	}
	a.session.Logout(ctx)
	fmt.Println("Signed out")
	return nil
}

func whoamiCmd(ctx context.Context, args []string) error {
	cfgPath, _ := parse("whoami", args, nil)
	a, err := newApp(cfgPath)
	if err != nil {
		return err
	}
	sess := a.session.Bootstrap(ctx)
	if !sess.Authenticated() {
		fmt.Println("Not signed in")
		return nil
	}
	fmt.Printf("%s <%s> id=%d role=%s\n", sess.User.Username, sess.User.Email, sess.User.ID, sess.User.Role)
	return nil
}

func menuCmd(ctx context.Context, args []string) error {
	cfgPath, _ := parse("menu", args, nil)
	a, err := newApp(cfgPath)
	if err != nil {
		return err
	}
	sess := a.session.Bootstrap(ctx)
	if !sess.Authenticated() {
		return domain.ErrNotAuthenticated
	}
	return printMenu(os.Stdout, domain.ResolveMenu(sess.Role()))
}

func listCmd(ctx context.Context, args []string) error {
	cfgPath, rest := parse("list", args, nil)
	if len(rest) < 1 {
		return fmt.Errorf("missing <page>")
	}
	page := domain.PageID(rest[0])

	a, err := newApp(cfgPath)
	if err != nil {
		return err
	}
	sess := a.session.Bootstrap(ctx)
	if !sess.Authenticated() {
		return domain.ErrNotAuthenticated
	}
	if !domain.CanSee(sess.Role(), page) {
		return fmt.Errorf("%s: %w", page, domain.ErrForbidden)
	}
	screen, ok := a.screens.Lookup(page)
	if !ok {
		return fmt.Errorf("%s: %w", page, domain.ErrNotFound)
	}

	view := screen.Load(ctx, sess)
	if view.Error != "" {
		return fmt.Errorf("%s: %s", page, view.Error)
	}
	return printView(os.Stdout, view)
}

func printMenu(w io.Writer, items []domain.MenuItem) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PAGE\tLABEL")
	for _, item := range items {
		fmt.Fprintf(tw, "%s\t%s\n", item.ID, item.Label)
	}
	return tw.Flush()
}

func printView(w io.Writer, view service.ScreenView) error {
	if view.Message != "" {
		fmt.Fprintln(w, view.Message)
	}
	if len(view.Columns) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\t"+strings.ToUpper(strings.Join(view.Columns, "\t")))
	for _, row := range view.Rows {
		cells := make([]string, len(row.Cells))
		for i, c := range row.Cells {
			cells[i] = c.Value
			if cells[i] == "" {
				cells[i] = "-"
			}
		}
		fmt.Fprintf(tw, "%d\t%s\n", row.ID, strings.Join(cells, "\t"))
	}
	if len(view.Rows) == 0 {
		fmt.Fprintln(tw, "(no records)")
	}
	return tw.Flush()
}

func promptPassword(prompt string) string {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read password:", err)
		os.Exit(1)
	}
	return strings.TrimSpace(string(b))
}

// reorderArgs moves flags ahead of positional args so "list vehicles -config x"
// parses like "list -config x vehicles".
func reorderArgs(args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		if strings.HasPrefix(a, "-") {
			flags = append(flags, a)
			if !strings.Contains(a, "=") && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				flags = append(flags, args[i+1])
				i++
			}
			continue
		}
		positional = append(positional, a)
	}
	return append(flags, positional...)
}
