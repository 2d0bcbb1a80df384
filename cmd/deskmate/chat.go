package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kalambet/deskmate/internal/assistant"
	"github.com/kalambet/deskmate/internal/config"
	"github.com/kalambet/deskmate/internal/profile"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive chat (default command)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd)
	},
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a single question and print the reply",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")
		full, _ := cmd.Flags().GetBool("full")
		remote, _ := cmd.Flags().GetBool("server")

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		var reply assistant.Reply
		if remote {
			client, err := newAPIClient()
			if err != nil {
				return err
			}
			if reply, err = askServer(ctx, client, question); err != nil {
				return err
			}
		} else {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a, err := newApp(ctx, cfg, consoleWriter())
			if err != nil {
				return err
			}
			defer a.Close()
			reply = a.assistant.Handle(ctx, question)
		}

		printReply(os.Stdout, reply, full)
		return nil
	},
}

func init() {
	askCmd.Flags().Bool("full", false, "print the untruncated answer")
	askCmd.Flags().Bool("server", false, "ask the running deskmate server instead of a local backend")
}

func askServer(ctx context.Context, client *apiClient, question string) (assistant.Reply, error) {
	var reply assistant.Reply
	resp, err := client.post(ctx, "/ask", map[string]string{"question": question})
	if err != nil {
		return reply, err
	}
	if err := decodeJSON(resp, &reply); err != nil {
		if isAPIError(err, http.StatusUnauthorized) {
			return reply, fmt.Errorf("%w (the server was started with a different API token)", err)
		}
		return reply, err
	}
	return reply, nil
}

// consoleWriter returns stderr when --verbose is set. Interactive
// commands otherwise log to the file only.
func consoleWriter() io.Writer {
	if verbose {
		return os.Stderr
	}
	return nil
}

func runChat(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, consoleWriter())
	if err != nil {
		return err
	}
	defer a.Close()

	if name := a.assistant.Session().Profile()[profile.KeyName]; name != "" {
		fmt.Fprintf(os.Stdout, "Welcome back, %s.\n", name)
	}
	fmt.Fprintln(os.Stdout, colorize(colorBold, "Ask me anything. Type 'exit' to quit."))

	return chatLoop(ctx, a.assistant, os.Stdin, os.Stdout)
}

// chatLoop reads one question per line and prints each reply when it
// arrives. Input typed while a reply is pending is ignored, so at most
// one question is outstanding. On EOF the pending reply is still printed.
// "more" prints the untruncated text of the last reply when it was cut.
func chatLoop(ctx context.Context, a *assistant.Assistant, in io.Reader, out io.Writer) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	pending := false
	var last assistant.Reply
	prompt := func() { fmt.Fprint(out, colorize(colorCyan, "> ")) }
	prompt()

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			a.Wait()
			return nil

		case line, ok := <-lines:
			if !ok {
				lines = nil
				if !pending {
					fmt.Fprintln(out)
					return nil
				}
				continue
			}
			text := strings.TrimSpace(line)
			if pending {
				fmt.Fprintln(out, colorize(colorYellow, "(still thinking, input ignored)"))
				continue
			}
			switch strings.ToLower(text) {
			case "":
				prompt()
				continue
			case "exit", "quit":
				return nil
			case "more", "full":
				if last.Full == "" {
					fmt.Fprintln(out, colorize(colorYellow, "(nothing more to show)"))
				} else {
					printReply(out, last, true)
				}
				prompt()
				continue
			}
			if a.Submit(ctx, text) {
				pending = true
				fmt.Fprintln(out, colorize(colorYellow, assistant.ThinkingText))
			}

		case r := <-a.Replies():
			pending = false
			last = r
			printReply(out, r, false)
			if r.Full != "" {
				fmt.Fprintln(out, colorize(colorDim, "(type 'more' for the full answer)"))
			}
			if lines == nil {
				return nil
			}
			prompt()
		}
	}
}

