package main

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(courtsCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(autoAssignCmd)
	rootCmd.AddCommand(endSessionCmd)
	rootCmd.AddCommand(accrueCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(countersCmd)
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/health")
	},
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List all sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/sessions")
	},
}

var courtsCmd = &cobra.Command{
	Use:   "courts [sessionID]",
	Short: "List the courts of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/sessions/" + args[0] + "/courts")
	},
}

var suggestCmd = &cobra.Command{
	Use:   "suggest [courtID]",
	Short: "Suggest a balanced four for an empty court",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/courts/" + args[0] + "/suggest")
	},
}

var autoAssignCmd = &cobra.Command{
	Use:   "auto-assign [sessionID]",
	Short: "Fill every empty court from the waiting pool",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/sessions/" + args[0] + "/auto-assign")
	},
}

var endSessionCmd = &cobra.Command{
	Use:   "end-session [sessionID]",
	Short: "End a session, releasing its courts and players",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performPostRequest("/sessions/" + args[0] + "/end")
	},
}

var accrueCmd = &cobra.Command{
	Use:   "accrue [sessionID] [minutes]",
	Short: "Add wait-time minutes to a session's waiting players",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		url := host + "/sessions/" + args[0] + "/accrue"
		fmt.Printf("Making request to %s\n", url)

		body := fmt.Sprintf(`{"minutes": %s}`, args[1])
		resp, err := http.Post(url, "application/json", strings.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to make request: %w", err)
		}
		defer resp.Body.Close()

		return printResponse(resp)
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get application metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/metrics")
	},
}

var countersCmd = &cobra.Command{
	Use:   "counters",
	Short: "Get the persisted application counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/counters")
	},
}

func performGetRequest(endpoint string) error {
	url := host + endpoint
	fmt.Printf("Making request to %s\n", url)

	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	return printResponse(resp)
}

func performPostRequest(endpoint string) error {
	url := host + endpoint
	fmt.Printf("Making request to %s\n", url)

	resp, err := http.Post(url, "application/json", strings.NewReader(""))
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	return printResponse(resp)
}

func printResponse(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("Status Code: %d\n", resp.StatusCode)
	fmt.Println("Response Body:")
	fmt.Println(string(body))

	return nil
}
