package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"platformparty/game"
)

// FetchMap downloads one stage map from the server's map endpoint and
// validates it. A nil hc uses http.DefaultClient.
func FetchMap(ctx context.Context, hc *http.Client, baseURL, name string) (game.StageMap, error) {
	if hc == nil {
		hc = http.DefaultClient
	}
	u := strings.TrimSuffix(baseURL, "/") + "/platform-party/maps/" + url.PathEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return game.StageMap{}, fmt.Errorf("fetch map %q: %w", name, err)
	}
	resp, err := hc.Do(req)
	if err != nil {
		return game.StageMap{}, fmt.Errorf("fetch map %q: %w", name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return game.StageMap{}, fmt.Errorf("fetch map %q: %s: %s", name, resp.Status, strings.TrimSpace(string(msg)))
	}
	var m game.StageMap
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return game.StageMap{}, fmt.Errorf("fetch map %q: %w", name, err)
	}
	if err := m.Validate(); err != nil {
		return game.StageMap{}, fmt.Errorf("fetch map %q: %w", name, err)
	}
	return m, nil
}
