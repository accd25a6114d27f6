package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"golf-concierge-be/internal/pkg/logger"
	"golf-concierge-be/pkg/events"
	pktNats "golf-concierge-be/pkg/nats"
)

var (
	natsURL    string
	eventType  string
	durable    string
	outputJSON bool
)

var rootCmd = &cobra.Command{
	Use:   "events",
	Short: "Tail the concierge's domain events from NATS JetStream",
	Long: `events attaches a durable consumer to the GOLF_EVENTS stream and prints
every quiz and chat event the server forwards, until interrupted.

Because the consumer is durable, restarting with the same --durable name
resumes where the previous run stopped.`,
	SilenceUsage: true,
	Args:         cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if natsURL == "" {
			return fmt.Errorf("--nats-url or NATS_URL is required")
		}

		sub, err := pktNats.NewSubscriber(natsURL, logger.NewNopLogger())
		if err != nil {
			return err
		}
		defer sub.Close()

		out := cmd.OutOrStdout()
		err = sub.Subscribe(cmd.Context(), subjectFor(eventType), durable, func(ctx context.Context, e events.Event) error {
			return printEvent(out, e, outputJSON)
		})
		if err != nil {
			return err
		}

		<-cmd.Context().Done()
		return nil
	},
}

func subjectFor(eventType string) string {
	if eventType == "" {
		return pktNats.SubjectPrefix + ".>"
	}
	return pktNats.Subject(strings.ToUpper(eventType))
}

func printEvent(w io.Writer, e events.Event, asJSON bool) error {
	if asJSON {
		line, err := json.Marshal(map[string]interface{}{
			"type":        e.EventType(),
			"data":        e.Payload(),
			"occurred_at": e.Timestamp(),
		})
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(line))
		return err
	}

	payload := e.Payload()
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "%s  %-16s", e.Timestamp().Local().Format(time.DateTime), e.EventType())
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, payload[k])
	}
	_, err := fmt.Fprintln(w, b.String())
	return err
}

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	rootCmd.Flags().StringVar(&natsURL, "nats-url", os.Getenv("NATS_URL"), "NATS server URL")
	rootCmd.Flags().StringVarP(&eventType, "type", "t", "", "only show one event type, e.g. QUIZ_COMPLETED")
	rootCmd.Flags().StringVar(&durable, "durable", "events-tail", "durable consumer name")
	rootCmd.Flags().BoolVar(&outputJSON, "json", false, "print events as JSON lines")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}
