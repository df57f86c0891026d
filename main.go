package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"eve-tradeworks/internal/auth"
	"eve-tradeworks/internal/config"
	"eve-tradeworks/internal/datadump"
	"eve-tradeworks/internal/db"
	"eve-tradeworks/internal/engine"
	"eve-tradeworks/internal/esi"
	"eve-tradeworks/internal/fetch"
	"eve-tradeworks/internal/logger"
	"eve-tradeworks/internal/table"
	"eve-tradeworks/internal/zkillboard"
)

var version = "dev"

func main() {
	cfgPath := flag.String("c", "config.json", "config file path")
	quiet := flag.Bool("q", false, "suppress progress output")
	sellBuy := flag.Bool("sb", false, "instant flip: buy at source, sell into destination buy orders")
	zkb := flag.Bool("zkb", false, "loss-weighted resale using zKillboard demand")
	namesOnly := flag.Bool("s", false, "print item names only (multibuy paste)")
	namePrices := flag.Bool("sp", false, "print item names with sell prices")
	nameLen := flag.Int("n", 0, "truncate item names to this many characters")
	debugItem := flag.Int("debug-item", 0, "analyze a single type id with all filters disabled")
	forceRefresh := flag.Bool("force-refresh", false, "refetch market history even if cached")
	forceNoRefresh := flag.Bool("force-no-refresh", false, "use cached history regardless of age")
	flag.Parse()

	logger.SetQuiet(*quiet)
	logger.Banner(version)

	cfg, err := config.FromFile(*cfgPath)
	if err != nil {
		logger.Error("Config", "%v", err)
		os.Exit(1)
	}

	wd, _ := os.Getwd()
	dataDir := filepath.Join(wd, "data")
	os.MkdirAll(dataDir, 0755)

	database, err := db.Open(filepath.Join(dataDir, "cache.db"))
	if err != nil {
		logger.Error("DB", "%v", err)
		os.Exit(1)
	}
	defer database.Close()
	database.CleanupOldHistory()

	esiClient := esi.NewClient()
	if !esiClient.HealthCheck() {
		logger.Warn("ESI", "Health check failed, continuing anyway")
	}

	var characterID int64
	if cfg.Source.Citadel || cfg.Destination.Citadel {
		characterID, err = authenticate(database, esiClient)
		if err != nil {
			logger.Error("Auth", "%v", err)
			os.Exit(1)
		}
	}

	fetchSvc := fetch.NewService(esiClient, database, *cfg)
	src, err := fetchSvc.ResolveMarket(cfg.Source, characterID)
	if err != nil {
		logger.Error("Fetch", "%v", err)
		os.Exit(1)
	}
	dst, err := fetchSvc.ResolveMarket(cfg.Destination, characterID)
	if err != nil {
		logger.Error("Fetch", "%v", err)
		os.Exit(1)
	}

	opts := fetch.Options{
		DebugItem:      int32(*debugItem),
		ForceRefresh:   *forceRefresh,
		ForceNoRefresh: *forceNoRefresh,
	}
	if len(cfg.IncludeGroups) > 0 {
		dump, err := datadump.Open(dataDir, &http.Client{Timeout: 10 * time.Minute})
		if err != nil {
			logger.Error("Datadump", "%v", err)
			os.Exit(1)
		}
		opts.AllowedGroups, err = dump.ResolveIncludeGroups(cfg.IncludeGroups)
		dump.Close()
		if err != nil {
			logger.Error("Datadump", "%v", err)
			os.Exit(1)
		}
	}

	start := time.Now()
	pairs, err := fetchSvc.Pairs(src, dst, opts)
	if err != nil {
		logger.Error("Fetch", "%v", err)
		os.Exit(1)
	}

	disableFilters := *debugItem != 0
	var recs []engine.TradeRecommendation

	switch {
	case *sellBuy:
		recs = engine.Run(pairs, engine.NewSellBuy(*cfg), disableFilters)
		sel := engine.OptimizeCargo(recs, cfg.CargoCapacity)
		logger.Section(fmt.Sprintf("%s -> %s (instant flip)", src.Name, dst.Name))
		renderSelection(sel, *namesOnly, *namePrices, *nameLen)
		logger.Stats("items", len(sel.Items))
		logger.Stats("profit", fmt.Sprintf("%.2f", sel.TotalProfit))
		logger.Stats("cargo m³", fmt.Sprintf("%.1f / %.1f", sel.TotalVolume, cfg.CargoCapacity))
	case *zkb:
		losses, err := zkillboard.NewClient().FetchLossRates(cfg.ZkillEntity, esiClient, cfg.ZkbDownloadPages)
		if err != nil {
			logger.Error("Zkillboard", "%v", err)
			os.Exit(1)
		}
		recs = engine.Run(pairs, engine.NewSellSellZkb(*cfg, losses), disableFilters)
		logger.Section(fmt.Sprintf("%s -> %s (loss weighted)", src.Name, dst.Name))
		renderRecs(recs, table.RenderSellSellZkb, *namesOnly, *namePrices, *nameLen)
		logger.Stats("items", len(recs))
	default:
		recs = engine.Run(pairs, engine.NewSellSell(*cfg), disableFilters)
		logger.Section(fmt.Sprintf("%s -> %s (resale)", src.Name, dst.Name))
		renderRecs(recs, table.RenderSellSell, *namesOnly, *namePrices, *nameLen)
		logger.Stats("items", len(recs))
	}
	logger.Stats("took", time.Since(start).Round(time.Millisecond))
}

func renderRecs(recs []engine.TradeRecommendation, render func(w io.Writer, recs []engine.TradeRecommendation, nameLen int), namesOnly, namePrices bool, nameLen int) {
	switch {
	case namesOnly:
		table.RenderNames(os.Stdout, recs)
	case namePrices:
		table.RenderNamePrices(os.Stdout, recs)
	default:
		render(os.Stdout, recs, nameLen)
	}
}

func renderSelection(sel engine.OptimizedSelection, namesOnly, namePrices bool, nameLen int) {
	switch {
	case namesOnly:
		table.RenderNames(os.Stdout, sel.Items)
	case namePrices:
		table.RenderNamePrices(os.Stdout, sel.Items)
	default:
		table.RenderSellBuy(os.Stdout, sel, nameLen)
	}
}

// authenticate returns a character id with a valid structure-market token,
// running the one-shot localhost SSO flow when no stored session works.
func authenticate(database *db.DB, esiClient *esi.Client) (int64, error) {
	sso := &auth.SSOConfig{
		ClientID:     os.Getenv("ESI_CLIENT_ID"),
		ClientSecret: os.Getenv("ESI_CLIENT_SECRET"),
		CallbackURL:  envOrDefault("ESI_CALLBACK_URL", "http://localhost:13370/callback"),
		Scopes:       "esi-markets.structure_markets.v1 esi-search.search_structures.v1 esi-universe.read_structures.v1",
	}
	sessions := auth.NewSessionStore(database.SqlDB())

	token, err := sessions.EnsureValidToken(sso)
	if err != nil {
		if sso.ClientID == "" || sso.ClientSecret == "" {
			return 0, fmt.Errorf("citadel access needs ESI_CLIENT_ID and ESI_CLIENT_SECRET: %w", err)
		}
		token, err = loginFlow(sso, sessions)
		if err != nil {
			return 0, err
		}
	}

	characterID, err := auth.CharacterIDFromToken(token)
	if err != nil {
		return 0, err
	}
	esiClient.SetToken(token)
	return characterID, nil
}

// loginFlow prints the SSO URL and waits for the browser redirect on the
// callback address.
func loginFlow(sso *auth.SSOConfig, sessions *auth.SessionStore) (string, error) {
	state := auth.GenerateState()
	logger.Info("Auth", "Log in via:")
	fmt.Println(sso.BuildAuthURL(state))

	type result struct {
		code string
		err  error
	}
	done := make(chan result, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			done <- result{err: fmt.Errorf("sso state mismatch")}
			return
		}
		fmt.Fprintln(w, "Logged in, you can close this tab.")
		done <- result{code: r.URL.Query().Get("code")}
	})
	srv := &http.Server{Addr: "127.0.0.1:13370", Handler: mux}
	go srv.ListenAndServe()
	defer srv.Close()

	res := <-done
	if res.err != nil {
		return "", res.err
	}

	tok, err := sso.ExchangeCode(res.code)
	if err != nil {
		return "", fmt.Errorf("exchange code: %w", err)
	}
	characterID, err := auth.CharacterIDFromToken(tok.AccessToken)
	if err != nil {
		return "", err
	}
	if err := sessions.Save(&auth.Session{
		CharacterID:  characterID,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second),
	}); err != nil {
		return "", err
	}
	logger.Success("Auth", "Logged in as character %d", characterID)
	return tok.AccessToken, nil
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
