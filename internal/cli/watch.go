package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "watch <town>",
		Short: "Stream live events from a town",
		Long: `Connect to the town with the saved session token and print every
message the server sends.

Messages include:
  - welcome: Town snapshot on connect
  - player_joined / player_moved / player_disconnected
  - player_permission_changed
  - conversation_area_updated / conversation_area_destroyed
  - chat_message
  - town_destroyed: The town was deleted

Disconnecting ends the session. Press Ctrl+C to disconnect.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := cfg.TokenFor(args[0])
			if err != nil {
				return err
			}
			if token == "" {
				return errors.New("no session token: run join first or pass --token")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return watchTown(ctx, cmd, args[0], token, count)
		},
	}

	cmd.Flags().IntVar(&count, "count", 0, "Exit after this many messages (0 streams until disconnected)")

	return cmd
}

func watchTown(ctx context.Context, cmd *cobra.Command, townID, token string, count int) error {
	url, err := client.WebsocketURL(townPath(townID)+"/connect", token)
	if err != nil {
		return err
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("connection refused: HTTP %d", resp.StatusCode)
		}
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	// Unblock the read loop on cancellation
	go func() {
		<-ctx.Done()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	out := NewOutput(cfg.Output, cmd.OutOrStdout())
	if cfg.Output != "json" {
		out.PrintMessage(fmt.Sprintf("Connected to town %s", townID))
	}

	for received := 0; count == 0 || received < count; received++ {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				break
			}
			if websocket.IsCloseError(err, websocket.CloseGoingAway) {
				if cfg.Output != "json" {
					out.PrintMessage("Town destroyed")
				}
				return nil
			}
			return fmt.Errorf("stream error: %w", err)
		}

		var line EventLine
		if err := json.Unmarshal(data, &line); err != nil {
			return fmt.Errorf("invalid message: %w", err)
		}
		line.Time = time.Now()
		out.Print(line)
	}

	if cfg.Output != "json" {
		out.PrintMessage("Disconnected")
	}
	return nil
}
