package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/huddlechat/huddle-sdk-go/huddle"
	"github.com/huddlechat/huddle-sdk-go/huddle/rest"
)

var rootCmd = &cobra.Command{
	Use:   "huddle-chat",
	Short: "Interactive terminal client for a huddle chat server",
	RunE:  runChat,
}

var (
	flagConfig    string
	flagServerURL string
	flagAPIURL    string
	flagLogLevel  string
	flagEmail     string
	flagPassword  string
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagConfig, "config", "", "path to config file (default ~/.huddle/config.yaml)")
	flags.StringVar(&flagServerURL, "server-url", "", "websocket URL of the chat server")
	flags.StringVar(&flagAPIURL, "api-url", "", "base URL of the HTTP API")
	flags.StringVar(&flagLogLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&flagEmail, "email", "", "email to log in with when no token is cached")
	flags.StringVar(&flagPassword, "password", "", "password to log in with when no token is cached")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// identityLookup adapts the REST client to the session core's startup
// identity resolution.
type identityLookup struct {
	api *rest.Client
}

func (l identityLookup) Me(ctx context.Context, token string) (huddle.Identity, error) {
	l.api.SetToken(token)
	u, err := l.api.Me(ctx)
	if err != nil {
		return huddle.Identity{}, err
	}
	return huddle.Identity{UserID: u.ID, Username: u.Username, Avatar: u.Avatar}, nil
}

func runChat(cmd *cobra.Command, args []string) error {
	bootLog := newLogger("info")
	cfg, configPath, err := loadConfig(bootLog, flagConfig)
	if err != nil {
		return fmt.Errorf("load config %s: %w", configPath, err)
	}
	if flagServerURL != "" {
		cfg.ServerURL = flagServerURL
	}
	if flagAPIURL != "" {
		cfg.APIURL = flagAPIURL
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	logger := newLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	creds := newFileStore(cfg.CredsPath, logger)
	api := rest.NewClient(cfg.APIURL)

	token, ok := creds.Token()
	if !ok {
		if flagEmail == "" || flagPassword == "" {
			return fmt.Errorf("no cached token: pass --email and --password to log in")
		}
		resp, err := api.Login(ctx, rest.LoginRequest{Email: flagEmail, Password: flagPassword})
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}
		token = resp.Token
		creds.SetToken(token)
		logger.Info().Msg("logged in")
	}
	api.SetToken(token)

	wcfg := huddle.DefaultConfig()
	wcfg.URL = cfg.ServerURL
	wcfg.Token = token

	client := huddle.NewClient(&wcfg)
	client.SetLogger(huddle.NewZerologLogger(*logger))
	client.OnStateChanged(func(ev huddle.StateEvent) {
		logger.Debug().Str("from", ev.OldState.String()).Str("to", ev.NewState.String()).Msg("connection state")
	})

	session := huddle.NewSession(client, creds, identityLookup{api: api})
	session.SetLogger(huddle.NewZerologLogger(*logger))

	evictedCh := make(chan string, 1)
	session.OnMessage(func(m huddle.Message) {
		ts := time.UnixMilli(m.CreatedAt).Format("15:04:05")
		fmt.Printf("[%s] %s %s: %s\n", m.Channel, ts, m.User, m.Text)
	})
	session.OnEvicted(func(reason string) {
		evictedCh <- reason
	})
	session.OnError(func(err error) {
		logger.Warn().Err(err).Msg("session error")
	})

	fmt.Printf("Connecting to %s...\n", cfg.ServerURL)
	if err := session.Start(ctx); err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.Stop()

	fmt.Printf("Connected as %s. Type messages to chat, /help for commands.\n", session.Identity().Username)

	inputCh := make(chan string)
	go readInput(inputCh)

	for {
		select {
		case <-ctx.Done():
			fmt.Println("\nShutting down...")
			return nil
		case reason := <-evictedCh:
			if reason == "" {
				reason = "you have been logged out by the server"
			}
			fmt.Printf("\n%s\n", reason)
			return nil
		case line, ok := <-inputCh:
			if !ok {
				fmt.Println("\nInput closed.")
				return nil
			}
			done, err := handleLine(ctx, session, api, creds, line)
			if err != nil {
				fmt.Printf("error: %v\n", err)
			}
			if done {
				fmt.Println("Bye!")
				return nil
			}
		}
	}
}

func handleLine(ctx context.Context, session *huddle.Session, api *rest.Client, creds *fileStore, line string) (done bool, err error) {
	text := strings.TrimSpace(line)
	if text == "" {
		return false, nil
	}
	if !strings.HasPrefix(text, "/") {
		return false, session.SendMessage(ctx, text)
	}

	cmd, arg, _ := strings.Cut(text[1:], " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "quit", "q":
		return true, nil
	case "help":
		fmt.Println("/join <channel>  switch channel\n/create <name>   create channel\n/channels        list channels\n/who             show presence\n/rename <name>   change username\n/me              show identity\n/quit            exit")
	case "join":
		if arg == "" {
			return false, fmt.Errorf("usage: /join <channel>")
		}
		return false, session.JoinChannel(ctx, arg)
	case "create":
		if arg == "" {
			return false, fmt.Errorf("usage: /create <name>")
		}
		return false, session.CreateChannel(ctx, arg)
	case "channels":
		active := session.ActiveChannel()
		for _, name := range session.Channels() {
			marker := "  "
			if name == active {
				marker = "* "
			}
			fmt.Printf("%s%s\n", marker, name)
		}
	case "who":
		presence := session.Presence()
		names := make([]string, 0, len(presence))
		for name := range presence {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			entry := presence[name]
			if entry.IsOnline {
				fmt.Printf("  %s online\n", name)
			} else {
				fmt.Printf("  %s last seen %s\n", name, time.UnixMilli(entry.LastSeen).Format("15:04"))
			}
		}
	case "rename":
		if arg == "" {
			return false, fmt.Errorf("usage: /rename <username>")
		}
		// The profile edit goes through the HTTP collaborator; writing
		// the result to the credential store is what lets the session
		// pick the rename up.
		u, err := api.UpdateProfile(ctx, rest.UpdateProfileRequest{Username: arg})
		if err != nil {
			return false, err
		}
		creds.SetProfile(huddle.Identity{UserID: u.ID, Username: u.Username, Avatar: u.Avatar})
		fmt.Printf("you are now %s\n", u.Username)
	case "me":
		id := session.Identity()
		fmt.Printf("  %s (%s) channel=%s ready=%v\n", id.Username, id.UserID, session.ActiveChannel(), session.Ready())
	default:
		return false, fmt.Errorf("unknown command /%s", cmd)
	}
	return false, nil
}

func readInput(dst chan<- string) {
	defer close(dst)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		dst <- scanner.Text()
	}
}
