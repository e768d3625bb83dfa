package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-gapi-session/gapi"
	"github.com/jrsteele09/go-gapi-session/internal/config"
	"github.com/jrsteele09/go-gapi-session/provider/google"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const usage = `usage: gapi-session [command]

Without a command an interactive prompt is started.

commands:
  login       sign in and store the session
  logout      sign out and clear the session
  disconnect  revoke the grant and clear the session
  refresh     reload the access token
  offline     request an offline access code
  status      show whether the stored session is valid
  whoami      print the stored user data
  quit        leave the prompt`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Err(err).Msg("gapi-session failed")
		os.Exit(1)
	}
}

func run(args []string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.New()
	if err != nil {
		return err
	}
	setupLogging(c)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(c)
	if err != nil {
		return err
	}
	clientConfig, err := c.GetClientConfig()
	if err != nil {
		return err
	}

	stdin := bufio.NewReader(os.Stdin)
	global, err := google.New(terminalAuthorizer(stdin, os.Stdout), google.WithTokenStore(store), google.WithLogger(log.Logger))
	if err != nil {
		return err
	}

	host := newCLIHost()
	if _, err := gapi.Install(host, global, store, clientConfig, gapi.WithInitTimeout(c.GetInitTimeout())); err != nil {
		return err
	}
	p, err := host.plugin(gapi.Namespace)
	if err != nil {
		return err
	}

	if len(args) > 0 {
		return execute(ctx, p, args[0])
	}

	displayAppname(c.GetAppName())
	return prompt(ctx, p, stdin)
}

func prompt(ctx context.Context, p *gapi.Plugin, in *bufio.Reader) error {
	for {
		fmt.Print("> ")
		line, err := in.ReadString('\n')
		command := strings.TrimSpace(line)
		switch {
		case command == "quit" || command == "exit":
			return nil
		case command != "":
			if cmdErr := execute(ctx, p, command); cmdErr != nil {
				log.Err(cmdErr).Str("command", command).Msg("Command failed")
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func execute(ctx context.Context, p *gapi.Plugin, command string) error {
	switch command {
	case "login":
		return p.Login(ctx, func() {
			fmt.Printf("Signed in as %s\n", p.GetUserData().Email)
		})
	case "logout":
		return p.Logout(ctx, func() { fmt.Println("Signed out") })
	case "disconnect":
		return p.Disconnect(ctx, func() { fmt.Println("Disconnected") })
	case "refresh":
		if err := p.RefreshToken(ctx); err != nil {
			return err
		}
		fmt.Printf("Token refreshed, expires at %s\n", p.GetUserData().ExpiresAt)
		return nil
	case "offline":
		code, err := p.GrantOfflineAccess(ctx)
		if err != nil {
			return err
		}
		fmt.Println(code)
		return nil
	case "status":
		fmt.Printf("authenticated: %t\n", p.IsAuthenticated())
		return nil
	case "whoami":
		return printJSON(p.GetUserData())
	case "help":
		fmt.Println(usage)
		return nil
	}
	fmt.Fprintln(os.Stderr, usage)
	return fmt.Errorf("unknown command %q", command)
}

func setupLogging(c config.EnvConfig) {
	level, err := zerolog.ParseLevel(c.GetLogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
