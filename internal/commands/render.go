package commands

import (
	"fmt"
	"net/http"
	"time"

	"github.com/klabast/wb-services/groupie-dates/internal/cards"
	"github.com/spf13/cobra"
)

func newRenderCmd() *cobra.Command {
	var (
		url         string
		containerID string
		timeout     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Fetch a /dates endpoint and print the rendered cards",
		Long: `Fetch a /dates endpoint and print the container element with one
card per record. A failed fetch is logged and prints an empty container.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := &cards.Loader{
				Client: &http.Client{Timeout: timeout},
				URL:    url,
				Logger: logger,
			}
			container := cards.NewContainer(containerID)
			loader.Load(cmd.Context(), container)

			out := cmd.OutOrStdout()
			if err := cards.Render(out, container); err != nil {
				return fmt.Errorf("render: %w", err)
			}
			_, err := fmt.Fprintln(out)
			return err
		},
	}

	cmd.Flags().StringVar(&url, "url", "http://localhost:8080/dates", "Dates endpoint to render")
	cmd.Flags().StringVar(&containerID, "container", cards.ContainerID, "Container element id")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "HTTP client timeout (0 means none)")
	return cmd
}
