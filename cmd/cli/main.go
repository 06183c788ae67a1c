package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	postgresRepo "github.com/harborbank/bankcore/internal/adapter/repository/postgres"
	"github.com/harborbank/bankcore/internal/domain"
	"github.com/harborbank/bankcore/internal/infrastructure/config"
	"github.com/harborbank/bankcore/internal/infrastructure/postgres"
)

var (
	baseURL string
	timeout time.Duration
	userID  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "bankctl",
		Short: "BankCore CLI tool",
		Long:  `A command line interface for interacting with the BankCore API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the BankCore API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&userID, "user", "", "User ID sent as X-User-ID")

	// Account commands
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Account operations",
	}

	var openOwner, openCurrency, openIBAN, openBalance string
	openCmd := &cobra.Command{
		Use:   "open",
		Short: "Open a new account (connects directly to the database)",
		Run: func(cmd *cobra.Command, args []string) {
			openAccount(openOwner, openCurrency, openIBAN, openBalance)
		},
	}
	openCmd.Flags().StringVar(&openOwner, "owner", "", "Owner user ID")
	openCmd.Flags().StringVar(&openCurrency, "currency", "GBP", "ISO 4217 currency code")
	openCmd.Flags().StringVar(&openIBAN, "iban", "", "Account IBAN")
	openCmd.Flags().StringVar(&openBalance, "balance", "0", "Opening balance")
	openCmd.MarkFlagRequired("owner")
	openCmd.MarkFlagRequired("iban")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts owned by the user",
		Run: func(cmd *cobra.Command, args []string) {
			getJSON("/api/v1/accounts")
		},
	}

	balanceCmd := &cobra.Command{
		Use:   "balance <account-id>",
		Short: "Show an account balance",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			getJSON("/api/v1/accounts/" + args[0] + "/balance")
		},
	}

	accountCmd.AddCommand(openCmd, listCmd, balanceCmd)
	rootCmd.AddCommand(accountCmd)

	// Transaction commands
	transactionCmd := &cobra.Command{
		Use:   "transaction",
		Short: "Transaction operations",
	}

	getCmd := &cobra.Command{
		Use:   "get <transaction-id>",
		Short: "Show a transaction",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			getJSON("/api/v1/transactions/" + args[0])
		},
	}

	var listLimit, listOffset int
	historyCmd := &cobra.Command{
		Use:   "list <account-id>",
		Short: "List transactions touching an account",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			getJSON(fmt.Sprintf("/api/v1/accounts/%s/transactions?limit=%d&offset=%d",
				args[0], listLimit, listOffset))
		},
	}
	historyCmd.Flags().IntVar(&listLimit, "limit", 20, "Page size")
	historyCmd.Flags().IntVar(&listOffset, "offset", 0, "Page offset")

	transactionCmd.AddCommand(getCmd, historyCmd)
	rootCmd.AddCommand(transactionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func getJSON(path string) {
	if userID == "" {
		fmt.Println("--user is required for API commands")
		os.Exit(1)
	}

	client := &http.Client{Timeout: timeout}
	req, err := http.NewRequest(http.MethodGet, baseURL+path, nil)
	if err != nil {
		fmt.Printf("Error building request: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("X-User-ID", userID)

	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Request failed (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	var pretty json.RawMessage
	if err := json.Unmarshal(body, &pretty); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(pretty, "", "  ")
	fmt.Println(string(out))
}

func openAccount(owner, currency, iban, balance string) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if err := domain.ValidateCurrency(currency); err != nil {
		fmt.Printf("Invalid currency: %v\n", err)
		os.Exit(1)
	}
	if err := domain.ValidateIBAN(iban); err != nil {
		fmt.Printf("Invalid IBAN: %v\n", err)
		os.Exit(1)
	}

	opening, err := decimal.NewFromString(balance)
	if err != nil || opening.IsNegative() {
		fmt.Printf("Invalid opening balance: %s\n", balance)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		fmt.Printf("Failed to connect to postgres: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	now := time.Now().UTC()
	account := &domain.Account{
		ID:        postgresRepo.NewULIDGenerator().Generate(),
		OwnerID:   owner,
		IBAN:      strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(iban)), " ", ""),
		Currency:  currency,
		Balance:   opening,
		Status:    domain.AccountStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := postgresRepo.NewAccountRepository(pool).Create(ctx, account); err != nil {
		fmt.Printf("Failed to create account: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Account opened\n")
	fmt.Printf("ID:       %s\n", account.ID)
	fmt.Printf("Owner:    %s\n", account.OwnerID)
	fmt.Printf("IBAN:     %s\n", account.IBAN)
	fmt.Printf("Currency: %s\n", account.Currency)
	fmt.Printf("Balance:  %s\n", account.Balance.String())
}
