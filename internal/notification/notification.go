package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// WebhookPayload represents the notification payload sent to webhook
type WebhookPayload struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Webhook posts release notifications to a configured URL
type Webhook struct {
	URL    string
	Client *http.Client
}

func NewWebhook(url string) *Webhook {
	return &Webhook{
		URL: url,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Notify sends a notification to the configured webhook URL. An empty URL
// is a no-op.
func (w *Webhook) Notify(ctx context.Context, title, message string) error {
	if w == nil || w.URL == "" {
		slog.Debug("Notification webhook URL not configured, skipping notification")
		return nil
	}

	payload := WebhookPayload{
		Title:   title,
		Message: message,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := w.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification webhook returned non-success status: %d", resp.StatusCode)
	}

	slog.Info("Notification sent", slog.String("title", title))
	return nil
}

// ExtractRepoName extracts owner/repo from a git URL
// e.g., https://github.com/acme/portfolio.git -> acme/portfolio
func ExtractRepoName(url string) string {
	url = strings.TrimSuffix(strings.TrimSuffix(url, "/"), ".git")

	re := regexp.MustCompile(`(?:github\.com|gitlab\.com|bitbucket\.org)[/:]([^/]+/[^/]+)$`)
	matches := re.FindStringSubmatch(url)
	if len(matches) > 1 {
		return matches[1]
	}

	// Fallback: try to get last two path segments
	parts := strings.Split(url, "/")
	if len(parts) >= 2 {
		return parts[len(parts)-2] + "/" + parts[len(parts)-1]
	}

	return url
}

// InstallerMessage formats the notification for a freshly built installer.
// Format: 📦 PortfolioControlSystemSetup_v3.1.0.exe (Portfolio Control System 3.1.0) ✅
func InstallerMessage(appName, version, installerName string, signed bool) (title, message string) {
	title = fmt.Sprintf("%s %s installer ready", appName, version)
	message = fmt.Sprintf("📦 %s (%s %s)", installerName, appName, version)
	if signed {
		message += " [signed]"
	}
	return title, message + " ✅"
}

// PublishMessage formats the notification for a successful push.
func PublishMessage(remoteURL, branch string) (title, message string) {
	title = "Repository published"
	message = fmt.Sprintf("🚀 %s (%s) ✅", ExtractRepoName(remoteURL), branch)
	return title, message
}
