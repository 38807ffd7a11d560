// Command eeg-bads reads and edits the bad-channel set of a running viewer
// over its HTTP API.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/cortical-data/eegview/internal/httputil"
)

type markRequest struct {
	Name string `json:"name"`
	Bad  bool   `json:"bad"`
}

type replaceRequest struct {
	Bads []string `json:"bads"`
}

// badsClient talks to a viewer's /api/bads endpoint.
type badsClient struct {
	base   string
	client httputil.HTTPClient
}

func newBadsClient(base string, client httputil.HTTPClient) *badsClient {
	return &badsClient{base: strings.TrimRight(base, "/"), client: client}
}

// decodeBads parses a bads response, surfacing the server's error message on
// non-200 statuses.
func decodeBads(resp *http.Response) ([]string, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("server rejected request: %s", apiErr.Error)
		}
		return nil, fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	var out struct {
		Bads []string `json:"bads"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return out.Bads, nil
}

func (c *badsClient) list() ([]string, error) {
	resp, err := c.client.Get(c.base + "/api/bads")
	if err != nil {
		return nil, fmt.Errorf("failed to reach viewer: %w", err)
	}
	return decodeBads(resp)
}

func (c *badsClient) post(payload interface{}) ([]string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Post(c.base+"/api/bads", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to reach viewer: %w", err)
	}
	return decodeBads(resp)
}

func (c *badsClient) setChannel(name string, bad bool) ([]string, error) {
	return c.post(markRequest{Name: name, Bad: bad})
}

func (c *badsClient) replace(names []string) ([]string, error) {
	if names == nil {
		names = []string{}
	}
	return c.post(replaceRequest{Bads: names})
}

func splitNames(s string) []string {
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func main() {
	addr := flag.String("addr", "http://localhost:8880", "base URL of the running viewer")
	mark := flag.String("mark", "", "comma-separated channels to mark bad")
	unmark := flag.String("unmark", "", "comma-separated channels to mark good again")
	set := flag.String("set", "", "comma-separated list replacing the whole bad set")
	clear := flag.Bool("clear", false, "clear the bad set")
	flag.Parse()

	c := newBadsClient(*addr, httputil.NewStandardClient(nil))

	var err error
	switch {
	case *set != "":
		_, err = c.replace(splitNames(*set))
		if err == nil {
			log.Printf("✓ Replaced bad set")
		}
	case *clear:
		_, err = c.replace(nil)
		if err == nil {
			log.Printf("✓ Cleared bad set")
		}
	default:
		for _, name := range splitNames(*mark) {
			if name == "" {
				continue
			}
			if _, err = c.setChannel(name, true); err != nil {
				log.Fatalf("failed to mark %s: %v", name, err)
			}
			log.Printf("✓ Marked bad: %s", name)
		}
		for _, name := range splitNames(*unmark) {
			if name == "" {
				continue
			}
			if _, err = c.setChannel(name, false); err != nil {
				log.Fatalf("failed to unmark %s: %v", name, err)
			}
			log.Printf("✓ Unmarked: %s", name)
		}
	}
	if err != nil {
		log.Fatalf("failed to update bads: %v", err)
	}

	bads, err := c.list()
	if err != nil {
		log.Fatalf("failed to list bads: %v", err)
	}

	if len(bads) == 0 {
		fmt.Println("Bad channels: (none)")
	} else {
		fmt.Printf("Bad channels (%d): %s\n", len(bads), strings.Join(bads, ", "))
	}
}
