package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"bookhub/internal/metrics"
	"bookhub/internal/scrapejob"
	"bookhub/pkg/models"
)

const defaultBaseURL = "http://localhost:8080"

type tokenData struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type loginResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func main() {
	global := flag.NewFlagSet("bookhub", flag.ExitOnError)
	baseURL := global.String("api", defaultBaseURL, "API base URL")
	tokenPath := global.String("token", defaultTokenPath(), "token file path")
	if err := global.Parse(os.Args[1:]); err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	args := global.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	cmd := args[0]
	sub := ""
	rest := []string{}
	if len(args) > 1 {
		sub = args[1]
		rest = args[2:]
	}

	client := &http.Client{Timeout: 15 * time.Second}
	api := strings.TrimRight(*baseURL, "/") + "/api/v1"

	switch cmd {
	case "auth":
		handleAuth(ctx, client, api, *tokenPath, sub, rest)
	case "books":
		handleBooks(ctx, client, api, sub, rest)
	case "stats":
		handleStats(ctx, client, api, sub)
	case "ml":
		handleML(ctx, client, api, sub)
	case "scrape":
		handleScrape(ctx, client, *baseURL, api, *tokenPath, sub, rest)
	case "metrics":
		var resp metrics.Summary
		if err := doJSON(ctx, client, http.MethodGet, api+"/metrics", "", nil, &resp); err != nil {
			log.Fatalf("metrics failed: %v", err)
		}
		printJSON(resp)
	default:
		printUsage()
		os.Exit(1)
	}
}

func handleAuth(ctx context.Context, client *http.Client, api, tokenPath, sub string, args []string) {
	switch sub {
	case "register", "login":
		fs := flag.NewFlagSet("auth "+sub, flag.ExitOnError)
		username := fs.String("username", "", "username")
		password := fs.String("password", "", "password")
		_ = fs.Parse(args)

		if *username == "" || *password == "" {
			log.Fatal("username and password are required")
		}
		payload := map[string]string{"username": *username, "password": *password}

		if sub == "register" {
			if err := doJSON(ctx, client, http.MethodPost, api+"/auth/register", "", payload, nil); err != nil {
				log.Fatalf("register failed: %v", err)
			}
		}

		var resp loginResponse
		if err := doJSON(ctx, client, http.MethodPost, api+"/auth/login", "", payload, &resp); err != nil {
			log.Fatalf("login failed: %v", err)
		}
		if err := saveToken(tokenPath, tokenData{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}); err != nil {
			log.Fatalf("save token: %v", err)
		}
		fmt.Printf("logged in as %s (access token expires %s)\n", *username, resp.ExpiresAt.Local().Format(time.RFC1123))
	case "refresh":
		td := mustToken(tokenPath)
		var resp loginResponse
		if err := doJSON(ctx, client, http.MethodPost, api+"/auth/refresh", td.RefreshToken, nil, &resp); err != nil {
			log.Fatalf("refresh failed: %v", err)
		}
		td.AccessToken = resp.AccessToken
		if err := saveToken(tokenPath, td); err != nil {
			log.Fatalf("save token: %v", err)
		}
		fmt.Println("access token refreshed")
	case "me":
		td := mustToken(tokenPath)
		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodGet, api+"/users/me", td.AccessToken, nil, &resp); err != nil {
			log.Fatalf("me failed: %v", err)
		}
		printJSON(resp)
	case "logout":
		if td, err := readToken(tokenPath); err == nil && td.AccessToken != "" {
			// server side revocation is best effort; the local file goes either way
			_ = doJSON(ctx, client, http.MethodPost, api+"/auth/logout", td.AccessToken, nil, nil)
		}
		if err := clearToken(tokenPath); err != nil {
			log.Fatalf("logout failed: %v", err)
		}
		fmt.Println("logged out")
	default:
		log.Fatal("usage: bookhub auth <register|login|refresh|me|logout>")
	}
}

func handleBooks(ctx context.Context, client *http.Client, api, sub string, args []string) {
	var endpoint string
	switch sub {
	case "list":
		endpoint = api + "/books"
	case "show":
		fs := flag.NewFlagSet("books show", flag.ExitOnError)
		id := fs.Int64("id", 0, "book id")
		_ = fs.Parse(args)
		if *id <= 0 {
			log.Fatal("book id is required")
		}
		endpoint = api + "/books/" + strconv.FormatInt(*id, 10)
	case "search":
		fs := flag.NewFlagSet("books search", flag.ExitOnError)
		title := fs.String("title", "", "title substring")
		category := fs.String("category", "", "category substring")
		_ = fs.Parse(args)
		qv := url.Values{}
		if *title != "" {
			qv.Set("title", *title)
		}
		if *category != "" {
			qv.Set("category", *category)
		}
		endpoint = api + "/books/search?" + qv.Encode()
	case "top-rated":
		fs := flag.NewFlagSet("books top-rated", flag.ExitOnError)
		limit := fs.Int("limit", 10, "number of books")
		_ = fs.Parse(args)
		endpoint = api + "/books/top-rated?limit=" + strconv.Itoa(*limit)
	case "price-range":
		fs := flag.NewFlagSet("books price-range", flag.ExitOnError)
		minPrice := fs.String("min", "", "minimum price")
		maxPrice := fs.String("max", "", "maximum price")
		_ = fs.Parse(args)
		qv := url.Values{}
		if *minPrice != "" {
			qv.Set("min", *minPrice)
		}
		if *maxPrice != "" {
			qv.Set("max", *maxPrice)
		}
		endpoint = api + "/books/price-range?" + qv.Encode()
	case "categories":
		var resp []string
		if err := doJSON(ctx, client, http.MethodGet, api+"/categories", "", nil, &resp); err != nil {
			log.Fatalf("categories failed: %v", err)
		}
		printJSON(resp)
		return
	default:
		log.Fatal("usage: bookhub books <list|show|search|top-rated|price-range|categories>")
	}

	if sub == "show" {
		var resp models.Book
		if err := doJSON(ctx, client, http.MethodGet, endpoint, "", nil, &resp); err != nil {
			log.Fatalf("show failed: %v", err)
		}
		printJSON(resp)
		return
	}

	var resp []models.Book
	if err := doJSON(ctx, client, http.MethodGet, endpoint, "", nil, &resp); err != nil {
		log.Fatalf("books %s failed: %v", sub, err)
	}
	printJSON(resp)
}

func handleStats(ctx context.Context, client *http.Client, api, sub string) {
	switch sub {
	case "overview":
		var resp models.Overview
		if err := doJSON(ctx, client, http.MethodGet, api+"/stats/overview", "", nil, &resp); err != nil {
			log.Fatalf("overview failed: %v", err)
		}
		printJSON(resp)
	case "categories":
		var resp []models.CategoryStat
		if err := doJSON(ctx, client, http.MethodGet, api+"/stats/categories", "", nil, &resp); err != nil {
			log.Fatalf("category stats failed: %v", err)
		}
		printJSON(resp)
	default:
		log.Fatal("usage: bookhub stats <overview|categories>")
	}
}

func handleML(ctx context.Context, client *http.Client, api, sub string) {
	switch sub {
	case "features":
		var resp []models.BookFeatures
		if err := doJSON(ctx, client, http.MethodGet, api+"/ml/features", "", nil, &resp); err != nil {
			log.Fatalf("features failed: %v", err)
		}
		printJSON(resp)
	case "encoding":
		var resp map[string]int
		if err := doJSON(ctx, client, http.MethodGet, api+"/ml/category-encoding", "", nil, &resp); err != nil {
			log.Fatalf("category encoding failed: %v", err)
		}
		printJSON(resp)
	default:
		log.Fatal("usage: bookhub ml <features|encoding>")
	}
}

func handleScrape(ctx context.Context, client *http.Client, baseURL, api, tokenPath, sub string, args []string) {
	switch sub {
	case "trigger":
		fs := flag.NewFlagSet("scrape trigger", flag.ExitOnError)
		maxPages := fs.Int("max-pages", 0, "listing pages to crawl (0 = server default)")
		truncate := fs.Bool("truncate", false, "clear the catalog before loading")
		_ = fs.Parse(args)

		td := mustToken(tokenPath)
		payload := map[string]any{"max_pages": *maxPages, "truncate": *truncate}
		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodPost, api+"/scraping/trigger", td.AccessToken, payload, &resp); err != nil {
			log.Fatalf("trigger failed: %v", err)
		}
		printJSON(resp)
	case "status":
		td := mustToken(tokenPath)
		var resp scrapejob.Job
		if err := doJSON(ctx, client, http.MethodGet, api+"/scraping/status", td.AccessToken, nil, &resp); err != nil {
			log.Fatalf("status failed: %v", err)
		}
		printJSON(resp)
	case "watch":
		wsURL, err := websocketURL(baseURL, "/api/v1/scraping/events")
		if err != nil {
			log.Fatalf("invalid base url: %v", err)
		}
		if err := runWebSocket(wsURL); err != nil {
			log.Fatalf("watch failed: %v", err)
		}
	default:
		log.Fatal("usage: bookhub scrape <trigger|status|watch>")
	}
}

func runWebSocket(wsURL string) error {
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		fmt.Println(string(msg))
	}
}

func doJSON(ctx context.Context, client *http.Client, method, endpoint, token string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = strings.NewReader(string(b))
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s failed: %s", method, endpoint, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("json: %v", err)
	}
	fmt.Println(string(b))
}

func defaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./.bookhub-token.json"
	}
	return filepath.Join(home, ".bookhub", "token.json")
}

func saveToken(path string, td tokenData) error {
	if td.AccessToken == "" {
		return errors.New("empty token")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(td, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func readToken(path string) (tokenData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return tokenData{}, err
	}
	var td tokenData
	if err := json.Unmarshal(data, &td); err != nil {
		return tokenData{}, err
	}
	td.AccessToken = strings.TrimSpace(td.AccessToken)
	td.RefreshToken = strings.TrimSpace(td.RefreshToken)
	return td, nil
}

func mustToken(path string) tokenData {
	td, err := readToken(path)
	if err != nil {
		log.Fatalf("token not found, please login: %v", err)
	}
	if td.AccessToken == "" {
		log.Fatal("token empty, please login")
	}
	return td
}

func clearToken(path string) error {
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

func websocketURL(baseURL, path string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return (&url.URL{
		Scheme: scheme,
		Host:   u.Host,
		Path:   path,
	}).String(), nil
}

func printUsage() {
	fmt.Println("bookhub [--api URL] [--token PATH] <command> [subcommand] [flags]")
	fmt.Println("commands:")
	fmt.Println("  auth register|login|refresh|me|logout")
	fmt.Println("  books list|show|search|top-rated|price-range|categories")
	fmt.Println("  stats overview|categories")
	fmt.Println("  ml features|encoding")
	fmt.Println("  scrape trigger|status|watch")
	fmt.Println("  metrics")
}
