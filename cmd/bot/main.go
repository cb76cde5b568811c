package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/sirupsen/logrus"

	"sniper-suite-go/internal/bulk"
	"sniper-suite-go/internal/config"
	"sniper-suite-go/internal/ledger"
	"sniper-suite-go/internal/liquidity"
	"sniper-suite-go/internal/logger"
	"sniper-suite-go/internal/monitor"
	"sniper-suite-go/internal/notify"
	"sniper-suite-go/internal/pricefeed"
	"sniper-suite-go/internal/safety"
	"sniper-suite-go/internal/sniper"
	"sniper-suite-go/internal/solana"
	"sniper-suite-go/internal/swap"
	"sniper-suite-go/internal/trading"
	"sniper-suite-go/internal/wallet"
)

const Version = "1.0.0"

// CLI flags
var (
	configFile = flag.String("config", "", "Path to config file")
	network    = flag.String("network", "", "Network to use (mainnet/devnet)")
	logLevel   = flag.String("log-level", "", "Log level (debug/info/warn/error)")
	fastMode   = flag.Bool("fast", false, "Skip safety checks and buy immediately on pool detection")

	monitorTokens = flag.String("monitor", "", "Comma-separated mints to watch for pool launch")

	bulkOp        = flag.String("bulk", "", "Bulk operation instead of sniping: distribute, collect, buy, sell")
	bulkWallets   = flag.Int("bulk-wallets", 5, "Number of wallets to generate for distribute/buy")
	groupName     = flag.String("group-name", "bulk", "Name for the generated wallet group")
	mnemonicsFile = flag.String("mnemonics", "", "File with one mnemonic per line to recover group wallets")
	tokenMint     = flag.String("token", "", "Token mint for bulk buy/sell")
	amountSOL     = flag.Float64("amount", 0, "SOL amount per wallet for distribute/buy")
	sellPct       = flag.Float64("sell-percentage", 100.0, "Percentage of holdings to sell")
	leaveSOL      = flag.Float64("leave", 0.002, "SOL left behind per wallet on collect")
)

// App wires the sniper suite components together.
type App struct {
	config    *config.Config
	logger    *logger.Logger
	journal   *logger.TradeJournal
	rpcClient *solana.Client

	directory *wallet.MemoryDirectory
	vault     *wallet.EncryptedVault
	store     ledger.Store
	notifier  notify.Notifier
	prices    *pricefeed.Feed

	executor    *trading.Executor
	manager     *sniper.Manager
	poller      *liquidity.Poller
	coordinator *bulk.Coordinator

	primary  wallet.WalletRef
	password string

	ctx    context.Context
	cancel context.CancelFunc
}

func main() {
	flag.Parse()

	cfg := loadConfiguration()
	log := initializeLogger(cfg)

	app, err := NewApp(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to create application")
	}

	if *bulkOp != "" {
		if err := app.RunBulk(); err != nil {
			log.WithError(err).Fatal("Bulk operation failed")
		}
		return
	}

	if err := app.Run(); err != nil {
		log.WithError(err).Fatal("Sniper failed")
	}
}

func loadConfiguration() *config.Config {
	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if *network != "" {
		cfg.Network = *network
		cfg.RPCUrl = config.GetRPCEndpoint(cfg.Network)
		cfg.WSUrl = config.GetWSEndpoint(cfg.Network)
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *fastMode {
		cfg.Sniper.FastMode = true
	}

	return cfg
}

func initializeLogger(cfg *config.Config) *logger.Logger {
	log, err := logger.NewLogger(logger.LogConfig{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		LogToFile:   cfg.Logging.LogToFile,
		LogFilePath: cfg.Logging.LogFilePath,
		TradeLogDir: cfg.Logging.TradeLogDir,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	return log
}

// NewApp builds every component and imports the primary wallet from the
// environment. SNIPER_PRIVATE_KEY holds the base58 key, SNIPER_WALLET_PASSWORD
// protects it in the vault.
func NewApp(cfg *config.Config, log *logger.Logger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	journal, err := logger.NewTradeJournal(cfg.Logging.TradeLogDir, log)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create trade journal: %w", err)
	}

	rpcClient := solana.NewClient(solana.ClientConfig{
		Endpoint: cfg.RPCUrl,
		APIKey:   cfg.RPCAPIKey,
		Timeout:  30 * time.Second,
	}, log.Logger)

	directory := wallet.NewMemoryDirectory()
	vault := wallet.NewEncryptedVault(directory)

	var store ledger.Store
	if cfg.DatabaseURL != "" {
		pgStore, err := ledger.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to open trade ledger: %w", err)
		}
		store = pgStore
		log.Info("🗄️ Trade ledger backed by PostgreSQL")
	} else {
		store = ledger.NewMemoryStore()
		log.Info("🗄️ Trade ledger in memory only")
	}

	var notifier notify.Notifier = notify.Noop{}
	if cfg.Telegram.Enabled {
		notifier = notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID, log.Logger)
		log.Info("📣 Telegram notifications enabled")
	}

	router := swap.NewRouter(swap.RouterConfig{
		QuoteURL:   cfg.Jupiter.QuoteURL,
		SwapURL:    cfg.Jupiter.SwapURL,
		MaxRetries: cfg.Advanced.MaxRetries,
		RetryDelay: cfg.Advanced.RetryDelay(),
	}, rpcClient, log.Logger)

	executor := trading.NewExecutor(router, rpcClient, store, journal, notifier, log)
	oracle := safety.NewRPCOracle(rpcClient, log.Logger)

	wsURL := cfg.WSUrl
	sourceFactory := func() (monitor.EventSource, error) {
		ws := solana.NewWSClient(wsURL, log.Logger)
		return monitor.NewWSSource(ws, monitor.DefaultPlatforms(), monitor.MarkerNormalizer{}, log), nil
	}

	manager := sniper.NewManager(sourceFactory, oracle, executor, notifier, log)
	poller := liquidity.NewPoller(liquidity.DefaultCheckers(rpcClient), executor, log)
	coordinator := bulk.NewCoordinator(directory, vault, executor, rpcClient, notifier, log)
	prices := pricefeed.NewFeed(cfg.Jupiter.PriceURL, log.Logger)

	app := &App{
		config:      cfg,
		logger:      log,
		journal:     journal,
		rpcClient:   rpcClient,
		directory:   directory,
		vault:       vault,
		store:       store,
		notifier:    notifier,
		prices:      prices,
		executor:    executor,
		manager:     manager,
		poller:      poller,
		coordinator: coordinator,
		ctx:         ctx,
		cancel:      cancel,
	}

	if err := app.importPrimaryWallet(); err != nil {
		cancel()
		return nil, err
	}

	return app, nil
}

func (a *App) importPrimaryWallet() error {
	privateKey := os.Getenv("SNIPER_PRIVATE_KEY")
	if privateKey == "" {
		return fmt.Errorf("SNIPER_PRIVATE_KEY is not set")
	}
	a.password = os.Getenv("SNIPER_WALLET_PASSWORD")
	if a.password == "" {
		return fmt.Errorf("SNIPER_WALLET_PASSWORD is not set")
	}

	account, err := types.AccountFromBase58(privateKey)
	if err != nil {
		return fmt.Errorf("invalid SNIPER_PRIVATE_KEY: %w", err)
	}

	encrypted, err := wallet.EncryptKey(privateKey, a.password)
	if err != nil {
		return fmt.Errorf("failed to encrypt primary key: %w", err)
	}

	a.primary = a.directory.AddWallet(account.PublicKey.String(), "primary", encrypted)
	a.logger.WithField("address", a.primary.Address).Info("🔑 Primary wallet loaded")
	return nil
}

// Run starts the sniper daemon: the pool sniper session plus any pre-launch
// monitors, until interrupted.
func (a *App) Run() error {
	a.logger.LogStartup(Version, a.config.Network, a.config.RPCUrl)

	if err := a.testConnection(); err != nil {
		return err
	}
	a.logStatus()

	signer, err := a.vault.DecryptSigner(a.primary.ID, a.password)
	if err != nil {
		return fmt.Errorf("failed to unlock primary wallet: %w", err)
	}

	if err := a.manager.Start(a.ctx, a.primary, signer, a.config.Sniper); err != nil {
		return fmt.Errorf("failed to start sniper: %w", err)
	}

	if err := a.startMonitors(signer); err != nil {
		a.manager.Stop()
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	a.logger.Info("🎯 Sniper running - waiting for new pools")

	sig := <-sigChan
	a.logger.Info(fmt.Sprintf("🛑 Received signal: %v", sig))

	return a.shutdown()
}

// startMonitors registers a pre-launch watch for each -monitor mint
func (a *App) startMonitors(signer types.Account) error {
	if *monitorTokens == "" {
		return nil
	}

	for _, mint := range strings.Split(*monitorTokens, ",") {
		mint = strings.TrimSpace(mint)
		if mint == "" {
			continue
		}
		cfg := liquidity.MonitorConfig{
			TokenAddress:  mint,
			WalletID:      a.primary.ID,
			BuyAmountSOL:  a.config.Sniper.BuyAmountSOL,
			SlippageBPS:   a.config.Sniper.SlippageBPS,
			CheckInterval: a.config.Liquidity.CheckInterval(),
		}
		if err := a.poller.StartMonitor(cfg, signer); err != nil {
			return fmt.Errorf("failed to start monitor for %s: %w", mint, err)
		}
	}
	return nil
}

// RunBulk executes one bulk operation and exits
func (a *App) RunBulk() error {
	if err := a.testConnection(); err != nil {
		return err
	}

	switch *bulkOp {
	case "distribute":
		return a.runDistribute()
	case "collect":
		return a.runCollect()
	case "buy":
		return a.runBulkBuy()
	case "sell":
		return a.runBulkSell()
	default:
		return fmt.Errorf("unknown bulk operation %q (want distribute, collect, buy or sell)", *bulkOp)
	}
}

func (a *App) runDistribute() error {
	if *amountSOL <= 0 {
		return fmt.Errorf("-amount must be positive for distribute")
	}

	group, err := a.prepareGroup()
	if err != nil {
		return err
	}

	result, err := a.coordinator.DistributeSOL(a.ctx, a.primary.ID, group.ID, *amountSOL, a.password)
	if err != nil {
		return err
	}
	a.printBulkResult(result)
	return nil
}

func (a *App) runCollect() error {
	group, err := a.prepareGroup()
	if err != nil {
		return err
	}

	result, err := a.coordinator.CollectSOL(a.ctx, group.ID, a.primary.ID, *leaveSOL, a.password)
	if err != nil {
		return err
	}
	a.printBulkResult(result)
	return nil
}

func (a *App) runBulkBuy() error {
	if *tokenMint == "" {
		return fmt.Errorf("-token is required for bulk buy")
	}
	if *amountSOL <= 0 {
		return fmt.Errorf("-amount must be positive for bulk buy")
	}

	group, err := a.prepareGroup()
	if err != nil {
		return err
	}

	result, err := a.coordinator.BulkBuy(a.ctx, group.ID, *tokenMint, *amountSOL, a.config.Sniper.SlippageBPS, a.password)
	if err != nil {
		return err
	}
	a.printBulkResult(result)
	return nil
}

func (a *App) runBulkSell() error {
	if *tokenMint == "" {
		return fmt.Errorf("-token is required for bulk sell")
	}

	group, err := a.prepareGroup()
	if err != nil {
		return err
	}

	result, err := a.coordinator.BulkSell(a.ctx, group.ID, *tokenMint, *sellPct, a.config.Sniper.SlippageBPS, a.password)
	if err != nil {
		return err
	}
	a.printBulkResult(result)
	return nil
}

// prepareGroup recovers the wallet group from a mnemonics file, or generates
// a fresh one when none is given. Generated mnemonics are printed once;
// without them the wallets cannot be recovered.
func (a *App) prepareGroup() (wallet.WalletGroup, error) {
	if *mnemonicsFile != "" {
		return a.recoverGroup(*mnemonicsFile)
	}

	group, mnemonics, err := wallet.GenerateGroup(a.directory, *groupName, a.password, *bulkWallets)
	if err != nil {
		return wallet.WalletGroup{}, fmt.Errorf("failed to generate wallet group: %w", err)
	}

	a.logger.WithField("count", len(group.Wallets)).Info("👛 Generated wallet group")
	fmt.Println("Save these mnemonics - they are shown only once:")
	for i, m := range mnemonics {
		fmt.Printf("  %d. %s  %s\n", i+1, group.Wallets[i].Address, m)
	}

	return group, nil
}

func (a *App) recoverGroup(path string) (wallet.WalletGroup, error) {
	file, err := os.Open(path)
	if err != nil {
		return wallet.WalletGroup{}, fmt.Errorf("failed to open mnemonics file: %w", err)
	}
	defer file.Close()

	var ids []int64
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		mnemonic := strings.TrimSpace(scanner.Text())
		if mnemonic == "" {
			continue
		}
		recovered, err := wallet.Recover(mnemonic, a.password)
		if err != nil {
			return wallet.WalletGroup{}, fmt.Errorf("failed to recover wallet %d: %w", len(ids)+1, err)
		}
		ref := a.directory.AddWallet(recovered.Address, fmt.Sprintf("%s-%d", *groupName, len(ids)+1), recovered.EncryptedKey)
		ids = append(ids, ref.ID)
	}
	if err := scanner.Err(); err != nil {
		return wallet.WalletGroup{}, fmt.Errorf("failed to read mnemonics file: %w", err)
	}
	if len(ids) == 0 {
		return wallet.WalletGroup{}, fmt.Errorf("mnemonics file %s is empty", path)
	}

	group, err := a.directory.AddGroup(*groupName, ids)
	if err != nil {
		return wallet.WalletGroup{}, err
	}

	a.logger.WithField("count", len(ids)).Info("👛 Recovered wallet group")
	return group, nil
}

func (a *App) printBulkResult(result *bulk.Result) {
	fmt.Printf("\n%s: %d wallets, %d succeeded, %d failed, %.4f SOL moved\n",
		result.Operation, result.Total, result.Successful, result.Failed, result.SumAmountSOL)
	for _, outcome := range result.Outcomes {
		if outcome.Error != "" {
			fmt.Printf("  %2d. %s  FAILED: %s\n", outcome.Index, outcome.Address, outcome.Error)
		} else {
			fmt.Printf("  %2d. %s  %.4f SOL  %s\n", outcome.Index, outcome.Address, outcome.AmountSOL, outcome.Signature)
		}
	}
}

func (a *App) testConnection() error {
	ctx, cancel := context.WithTimeout(a.ctx, 10*time.Second)
	defer cancel()

	if _, err := a.rpcClient.GetSlot(ctx); err != nil {
		return fmt.Errorf("RPC connection test failed: %w", err)
	}
	a.logger.Info("✅ RPC connection test passed")
	return nil
}

func (a *App) logStatus() {
	balance, err := a.rpcClient.GetBalance(a.ctx, a.primary.Address)
	if err != nil {
		a.logger.WithError(err).Warn("⚠️ Failed to fetch primary balance")
	} else {
		a.logger.LogBalance(a.primary.Address, config.ConvertLamportsToSOL(balance))
	}

	if price, err := a.prices.SOLPrice(a.ctx); err == nil {
		a.logger.WithField("sol_usd", price).Info("💵 SOL price")
	}

	a.logger.WithFields(logrus.Fields{
		"buy_amount_sol":    a.config.Sniper.BuyAmountSOL,
		"min_liquidity_sol": a.config.Sniper.MinLiquiditySOL,
		"min_safety_score":  a.config.Sniper.MinSafetyScore,
		"fast_mode":         a.config.Sniper.FastMode,
	}).Info("⚙️ Sniper configuration")
}

func (a *App) shutdown() error {
	a.logger.Info("🛑 Shutting down...")

	a.poller.StopAll()

	stats, err := a.manager.Stop()
	if err == nil {
		a.logger.WithFields(logrus.Fields{
			"pools_detected": stats.PoolsDetected,
			"tokens_bought":  stats.TokensBought,
			"tokens_skipped": stats.TokensSkipped,
			"success_rate":   fmt.Sprintf("%.1f%%", stats.SuccessRate()*100),
		}).Info("📊 Final session statistics")
	}

	if summary, err := ledger.SummarizeWallet(a.ctx, a.store, a.primary.ID); err == nil && summary.Trades > 0 {
		a.logger.WithFields(logrus.Fields{
			"trades":        summary.Trades,
			"tokens_traded": summary.TokensTraded,
			"buy_sol":       summary.BuySOL,
			"sell_sol":      summary.SellSOL,
			"net_sol":       summary.NetSOL,
			"win_rate":      fmt.Sprintf("%.1f%%", summary.WinRate()*100),
		}).Info("💰 Wallet trade summary")
	}

	a.cancel()

	if pgStore, ok := a.store.(*ledger.PostgresStore); ok {
		pgStore.Close()
	}

	a.logger.Info("✅ Shutdown complete")
	return nil
}
