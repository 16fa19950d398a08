// Command chat is a minimal terminal front end for the sync core. It
// exists to drive internal/chat end to end against a running server; the
// core itself has no UI surface.
//
// Usage:
//
//	chat -server http://localhost:5000 -username alice -password secret
//
// Lines typed on stdin are sent to the role-appropriate recipient. Admins
// pick a counterpart with "/select <username>" ("/select" alone clears the
// selection) and list the roster with "/roster".
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lalith-99/supportchat/internal/chat"
	"github.com/lalith-99/supportchat/internal/client"
	"github.com/lalith-99/supportchat/internal/models"
	"github.com/lalith-99/supportchat/internal/observ"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		serverURL = flag.String("server", "http://localhost:5000", "server base URL")
		username  = flag.String("username", "", "account username")
		password  = flag.String("password", "", "account password")
		register  = flag.Bool("register", false, "create the account before logging in")
	)
	flag.Parse()

	if *username == "" || *password == "" {
		return fmt.Errorf("both -username and -password are required")
	}

	logger, err := observ.NewLogger("production", "warn")
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpClient := client.New(*serverURL, logger)
	if *register {
		if _, err := httpClient.Register(ctx, *username, *password); err != nil {
			return fmt.Errorf("register: %w", err)
		}
	} else {
		if _, err := httpClient.Login(ctx, *username, *password); err != nil {
			return fmt.Errorf("login: %w", err)
		}
	}

	channel, err := client.DialChannel(ctx, client.WSURL(*serverURL), httpClient.Token(), logger)
	if err != nil {
		return err
	}

	controller := chat.NewController(httpClient, httpClient, httpClient, channel, logger)
	controller.Start(ctx)
	defer controller.Close()

	sess := controller.Session()
	fmt.Printf("connected as %s (%s)\n", sess.Identity, sess.Role)

	go printLoop(ctx, controller, sess.Identity)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "/select"):
			controller.SelectScope(strings.TrimSpace(strings.TrimPrefix(line, "/select")))
		case line == "/roster":
			fmt.Printf("roster: %s\n", strings.Join(controller.Roster(), ", "))
		case line == "/quit":
			return nil
		default:
			if !controller.Send(ctx, line) {
				fmt.Println("(send refused: empty message or no counterpart selected)")
			}
		}

		if ctx.Err() != nil {
			return nil
		}
	}
	return scanner.Err()
}

// printLoop polls the conversation view and prints what it hasn't printed
// yet. Polling a snapshot keeps the demo honest: the core's only outputs
// are its snapshots, exactly as an embedding UI would consume them.
func printLoop(ctx context.Context, controller *chat.Controller, self string) {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	printed := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		messages := controller.Messages()
		if len(messages) < printed {
			// Scope switched; the log was replaced.
			printed = 0
			fmt.Println("--- conversation switched ---")
		}
		for _, msg := range messages[printed:] {
			printMessage(msg, self)
		}
		printed = len(messages)
	}
}

func printMessage(msg models.Message, self string) {
	sender := msg.Sender
	if sender == self {
		sender = "you"
	}
	fmt.Printf("[%s] %s: %s\n", msg.Timestamp.Local().Format("15:04:05"), sender, msg.Body)
}
