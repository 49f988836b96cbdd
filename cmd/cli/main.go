package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/hamed0406/httpprobe/internal/domain"
)

// cli prints the latest result per server from a running httpprobe.
func main() {
	api := os.Getenv("API_BASE")
	if api == "" {
		api = "http://localhost:8080"
	}
	api = strings.TrimRight(api, "/")

	req, err := http.NewRequest(http.MethodGet, api+"/api/results/latest", nil)
	if err != nil {
		fmt.Println("Invalid API_BASE:", err)
		os.Exit(1)
	}
	if tok := os.Getenv("API_TOKEN"); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Println("Error contacting API:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		fmt.Println("API returned status:", resp.Status)
		os.Exit(1)
	}

	var recs []domain.Record
	if err := json.NewDecoder(resp.Body).Decode(&recs); err != nil {
		fmt.Println("Bad response:", err)
		os.Exit(1)
	}
	if len(recs) == 0 {
		fmt.Println("No results yet.")
		return
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SERVER\tITER\tDATETIME\tTCP\tTCP ms\tHTTP ms\tTOTAL ms\tBYTES\tOK")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%t\t%.3f\t%.3f\t%.3f\t%d\t%t\n",
			r.Server, r.Iteration, r.Datetime(), r.TCPSuccess,
			r.TCPTimeMS, r.HTTPTimeMS, r.TotalTimeMS, r.PageSize, r.IsSuccess)
	}
	tw.Flush()
}
