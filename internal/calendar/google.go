package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/terraincognita07/tukicale/internal/models"
	"golang.org/x/oauth2"
)

const (
	googleCalendarAPIBase = "https://www.googleapis.com/calendar/v3"
	googleCalendarScope   = "https://www.googleapis.com/auth/calendar"
	googleEventsPageSize  = "2500"
	googleRequestTimeout  = 30 * time.Second
)

var googleEndpoint = oauth2.Endpoint{
	AuthURL:   "https://accounts.google.com/o/oauth2/auth",
	TokenURL:  "https://oauth2.googleapis.com/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

var googleEventColors = map[models.EventCategory]string{
	models.CategoryPeriod:     "11",
	models.CategoryFertile:    "10",
	models.CategoryPMS:        "5",
	models.CategoryNextPeriod: "4",
	models.CategoryIntimacy:   "8",
	models.CategoryHealth:     "3",
}

var ErrGoogleAPI = errors.New("google calendar api error")

// GoogleOAuthConfig builds the installed-app OAuth configuration for the
// calendar scope.
func GoogleOAuthConfig(clientID string, clientSecret string, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     googleEndpoint,
		RedirectURL:  redirectURL,
		Scopes:       []string{googleCalendarScope},
	}
}

// NewGoogleHTTPClient returns a client that refreshes the token when needed
// and writes every refreshed token back to the store.
func NewGoogleHTTPClient(ctx context.Context, config *oauth2.Config, token *oauth2.Token, store *TokenStore) *http.Client {
	source := oauth2.ReuseTokenSource(token, config.TokenSource(ctx, token))
	client := oauth2.NewClient(ctx, &savingTokenSource{
		ctx:     ctx,
		source:  source,
		store:   store,
		current: token.AccessToken,
	})
	client.Timeout = googleRequestTimeout
	return client
}

type GoogleOption func(*GoogleMirror)

func WithBaseURL(baseURL string) GoogleOption {
	return func(mirror *GoogleMirror) {
		mirror.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithTimeZone(name string) GoogleOption {
	return func(mirror *GoogleMirror) {
		mirror.timeZone = name
	}
}

// GoogleMirror talks to the Calendar v3 REST API. The http client is expected
// to carry authorization, see NewGoogleHTTPClient.
type GoogleMirror struct {
	httpClient *http.Client
	baseURL    string
	timeZone   string
}

func NewGoogleMirror(httpClient *http.Client, options ...GoogleOption) *GoogleMirror {
	mirror := &GoogleMirror{
		httpClient: httpClient,
		baseURL:    googleCalendarAPIBase,
	}
	for _, option := range options {
		option(mirror)
	}
	if mirror.httpClient == nil {
		mirror.httpClient = &http.Client{Timeout: googleRequestTimeout}
	}
	return mirror
}

type googleCalendarListEntry struct {
	ID      string `json:"id"`
	Summary string `json:"summary"`
}

type googleCalendarListPage struct {
	Items         []googleCalendarListEntry `json:"items"`
	NextPageToken string                    `json:"nextPageToken"`
}

type googleEventDate struct {
	Date string `json:"date"`
}

type googleEvent struct {
	ID           string          `json:"id,omitempty"`
	Summary      string          `json:"summary"`
	Start        googleEventDate `json:"start"`
	End          googleEventDate `json:"end"`
	ColorID      string          `json:"colorId,omitempty"`
	Transparency string          `json:"transparency,omitempty"`
	Visibility   string          `json:"visibility,omitempty"`
}

type googleEventsPage struct {
	Items         []googleEvent `json:"items"`
	NextPageToken string        `json:"nextPageToken"`
}

// ResolveCalendar finds the calendar whose summary equals name, creating it
// when the account has none.
func (mirror *GoogleMirror) ResolveCalendar(ctx context.Context, name string) (string, error) {
	pageToken := ""
	for {
		query := url.Values{}
		query.Set("minAccessRole", "owner")
		if pageToken != "" {
			query.Set("pageToken", pageToken)
		}

		var page googleCalendarListPage
		if err := mirror.do(ctx, http.MethodGet, "/users/me/calendarList?"+query.Encode(), nil, &page); err != nil {
			return "", fmt.Errorf("list calendars: %w", err)
		}
		for _, entry := range page.Items {
			if entry.Summary == name {
				return entry.ID, nil
			}
		}
		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	payload := map[string]string{"summary": name}
	if mirror.timeZone != "" {
		payload["timeZone"] = mirror.timeZone
	}
	var created googleCalendarListEntry
	if err := mirror.do(ctx, http.MethodPost, "/calendars", payload, &created); err != nil {
		return "", fmt.Errorf("create calendar: %w", err)
	}
	return created.ID, nil
}

func (mirror *GoogleMirror) ListEvents(ctx context.Context, calendarID string, since time.Time) ([]models.RemoteEvent, error) {
	events := make([]models.RemoteEvent, 0)
	pageToken := ""
	for {
		query := url.Values{}
		query.Set("timeMin", since.UTC().Format(time.RFC3339))
		query.Set("singleEvents", "true")
		query.Set("maxResults", googleEventsPageSize)
		if pageToken != "" {
			query.Set("pageToken", pageToken)
		}

		var page googleEventsPage
		path := "/calendars/" + url.PathEscape(calendarID) + "/events?" + query.Encode()
		if err := mirror.do(ctx, http.MethodGet, path, nil, &page); err != nil {
			return nil, fmt.Errorf("list events: %w", err)
		}
		for _, item := range page.Items {
			events = append(events, models.RemoteEvent{ID: item.ID})
		}
		if page.NextPageToken == "" {
			return events, nil
		}
		pageToken = page.NextPageToken
	}
}

// DeleteEvent treats an event that is already gone as deleted.
func (mirror *GoogleMirror) DeleteEvent(ctx context.Context, calendarID string, eventID string) error {
	path := "/calendars/" + url.PathEscape(calendarID) + "/events/" + url.PathEscape(eventID)
	err := mirror.do(ctx, http.MethodDelete, path, nil, nil)
	var apiErr *GoogleAPIError
	if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusGone || apiErr.StatusCode == http.StatusNotFound) {
		return nil
	}
	return err
}

func (mirror *GoogleMirror) CreateEvent(ctx context.Context, calendarID string, event models.MirroredEvent) error {
	payload := googleEvent{
		Summary:      event.Summary,
		Start:        googleEventDate{Date: event.Start},
		End:          googleEventDate{Date: event.End},
		ColorID:      googleEventColors[event.Category],
		Transparency: "transparent",
		Visibility:   "private",
	}
	path := "/calendars/" + url.PathEscape(calendarID) + "/events"
	return mirror.do(ctx, http.MethodPost, path, payload, nil)
}

type GoogleAPIError struct {
	StatusCode int
	Body       string
}

func (err *GoogleAPIError) Error() string {
	return fmt.Sprintf("google calendar api error %d: %s", err.StatusCode, err.Body)
}

func (err *GoogleAPIError) Unwrap() error {
	return ErrGoogleAPI
}

func (mirror *GoogleMirror) do(ctx context.Context, method string, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, mirror.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := mirror.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &GoogleAPIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(content))}
	}
	if out == nil || len(content) == 0 {
		return nil
	}
	if err := json.Unmarshal(content, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
