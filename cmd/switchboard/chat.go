// ABOUTME: chat command, an interactive console client for the turn API
// ABOUTME: Reads lines from stdin and prints each specialist reply with its route

package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/2389/switchboard/internal/gateway"
)

var (
	chatURL    string
	chatThread string
)

func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with a running gateway from the terminal",
		Long: `Open an interactive console on one thread of a running gateway.

Each line you type is sent as one turn. Type /new to start a fresh thread
and /quit (or Ctrl-D) to leave.`,
		Args: cobra.NoArgs,
		RunE: runChat,
	}
	cmd.Flags().StringVar(&chatURL, "url", "", "gateway base URL (default from server.http_addr)")
	cmd.Flags().StringVarP(&chatThread, "thread", "t", "", "thread id to continue (default: a new thread)")
	return cmd
}

// turnClient posts turns to the gateway HTTP API.
type turnClient struct {
	base string
	http *http.Client
}

func newTurnClient(base string) *turnClient {
	return &turnClient{base: base, http: &http.Client{Timeout: 3 * time.Minute}}
}

// send submits one message. Failed turns come back as an error carrying the API code.
func (c *turnClient) send(ctx context.Context, threadID, message string) (*gateway.TurnResponse, error) {
	body, err := json.Marshal(gateway.TurnRequest{
		ThreadID:  threadID,
		Message:   message,
		RequestID: uuid.NewString(),
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/turn", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending turn: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr gateway.TurnErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Code == "" {
			return nil, fmt.Errorf("turn failed: status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("turn failed: %s (status %d)", apiErr.Code, resp.StatusCode)
	}

	var out gateway.TurnResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &out, nil
}

func runChat(cmd *cobra.Command, args []string) error {
	base, err := baseURL(chatURL)
	if err != nil {
		return err
	}
	threadID := chatThread
	if threadID == "" {
		threadID = uuid.NewString()
	}
	return chatLoop(cmd.Context(), newTurnClient(base), threadID, cmd.InOrStdin(), cmd.OutOrStdout())
}

func chatLoop(ctx context.Context, client *turnClient, threadID string, in io.Reader, out io.Writer) error {
	gray := color.New(color.FgHiBlack)
	cyan := color.New(color.FgCyan)
	red := color.New(color.FgRed)

	gray.Fprintf(out, "thread %s (/new, /quit)\n", threadID)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/new":
			threadID = uuid.NewString()
			gray.Fprintf(out, "thread %s\n", threadID)
			continue
		}

		resp, err := client.send(ctx, threadID, line)
		if err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			red.Fprintf(out, "  %v\n", err)
			continue
		}

		cyan.Fprintf(out, "[%s]", resp.Destination)
		gray.Fprintf(out, " %s/%s\n", resp.Sentiment, resp.Urgency)
		fmt.Fprintln(out, resp.Response)
	}
}
