package oauth2svc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

const githubAPIBase = "https://api.github.com"

type GitHubUser struct {
	ID    string
	Login string
	Email string
}

// FetchGitHubUser resolves the authenticated user behind an access token.
// GitHub hides the email on /user for private-email accounts, so fall back
// to the primary address from /user/emails.
func FetchGitHubUser(ctx context.Context, accessToken string) (*GitHubUser, error) {
	client := &http.Client{Timeout: 10 * time.Second}

	var raw struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
		Email string `json:"email"`
	}
	if err := githubGET(ctx, client, accessToken, "/user", &raw); err != nil {
		return nil, err
	}

	user := &GitHubUser{
		ID:    strconv.FormatInt(raw.ID, 10),
		Login: raw.Login,
		Email: raw.Email,
	}

	if user.Email == "" {
		var emails []struct {
			Email    string `json:"email"`
			Primary  bool   `json:"primary"`
			Verified bool   `json:"verified"`
		}
		if err := githubGET(ctx, client, accessToken, "/user/emails", &emails); err == nil {
			for _, e := range emails {
				if e.Primary && e.Verified {
					user.Email = e.Email
					break
				}
			}
		}
	}

	return user, nil
}

func githubGET(ctx context.Context, client *http.Client, token, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, githubAPIBase+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("github request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github %s returned status %d", path, resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
