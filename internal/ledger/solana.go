// File: internal/ledger/solana.go
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"

	"github.com/crack-enjoyer/RevsTrackerBot/internal/metrics"
	"github.com/crack-enjoyer/RevsTrackerBot/pkg/utils"
)

// SolanaConfig holds connection configuration for the Solana RPC endpoint
type SolanaConfig struct {
	Endpoint       string        `json:"endpoint"`
	Account        string        `json:"account"`
	RequestTimeout time.Duration `json:"request_timeout"`
	RetryAttempts  uint          `json:"retry_attempts"`
	RetryDelay     time.Duration `json:"retry_delay"`
}

// SolanaClient implements Client against a Solana JSON-RPC endpoint
type SolanaClient struct {
	config  *SolanaConfig
	rpc     *rpc.Client
	account solana.PublicKey
	logger  *logrus.Logger

	metricsManager *metrics.Manager
}

// NewSolanaClient creates a Solana ledger client for the monitored account.
// The HTTP transport retries transient failures before the error surfaces
// to the monitor loop.
func NewSolanaClient(config *SolanaConfig) (*SolanaClient, error) {
	account, err := solana.PublicKeyFromBase58(config.Account)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeConfiguration, "Invalid monitored account address", err.Error())
	}

	httpClient := retryablehttp.NewClient()
	httpClient.Logger = nil
	httpClient.RetryMax = 2
	httpClient.RetryWaitMin = 500 * time.Millisecond
	httpClient.RetryWaitMax = 3 * time.Second
	httpClient.HTTPClient.Timeout = config.RequestTimeout

	rpcClient := rpc.NewWithCustomRPCClient(jsonrpc.NewClientWithOpts(config.Endpoint, &jsonrpc.RPCClientOpts{
		HTTPClient: httpClient.StandardClient(),
	}))

	return &SolanaClient{
		config:  config,
		rpc:     rpcClient,
		account: account,
		logger:  utils.GetLogger(),
	}, nil
}

// SetMetricsManager attaches a metrics manager for RPC request counters
func (c *SolanaClient) SetMetricsManager(m *metrics.Manager) {
	c.metricsManager = m
}

// Connect probes the endpoint with bounded retries so startup fails fast
// on a dead endpoint instead of looping silently.
func (c *SolanaClient) Connect(ctx context.Context) error {
	attempts := c.config.RetryAttempts
	if attempts == 0 {
		attempts = 3
	}

	err := retry.Do(
		func() error { return c.Health(ctx) },
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(c.config.RetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeConnection, "Failed to connect to Solana endpoint", err.Error())
	}

	c.logger.WithFields(logrus.Fields{
		"endpoint": c.config.Endpoint,
		"account":  c.account.String(),
	}).Info("Connected to Solana endpoint")

	return nil
}

// ListSignatures returns up to limit recent signatures, newest first
func (c *SolanaClient) ListSignatures(ctx context.Context, limit int) ([]SignatureInfo, error) {
	out, err := c.rpc.GetSignaturesForAddressWithOpts(ctx, c.account, &rpc.GetSignaturesForAddressOpts{
		Limit:      &limit,
		Commitment: rpc.CommitmentConfirmed,
	})
	c.record("getSignaturesForAddress", err)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeConnection, "Failed to list signatures", err.Error())
	}

	infos := make([]SignatureInfo, 0, len(out))
	for _, sig := range out {
		info := SignatureInfo{
			Signature: sig.Signature.String(),
			Slot:      sig.Slot,
		}
		if sig.BlockTime != nil {
			info.BlockTime = sig.BlockTime.Time()
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// GetTransactionDetail fetches the pre/post balance snapshot for a signature
func (c *SolanaClient) GetTransactionDetail(ctx context.Context, signature string) (*TransactionDetail, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeParse, "Invalid transaction signature", err.Error())
	}

	maxVersion := uint64(0)
	res, err := c.rpc.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     rpc.CommitmentConfirmed,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	c.record("getTransaction", err)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, utils.NewAppError(utils.ErrCodeConnection, "Failed to fetch transaction", err.Error())
	}
	if res == nil || res.Meta == nil || res.Transaction == nil {
		return nil, ErrTransactionNotFound
	}

	tx, err := res.Transaction.GetTransaction()
	if err != nil {
		return nil, utils.NewAppError(utils.ErrCodeParse, "Failed to decode transaction", err.Error())
	}

	detail := &TransactionDetail{
		Signature:    signature,
		AccountKeys:  make([]string, 0, len(tx.Message.AccountKeys)),
		PreBalances:  res.Meta.PreBalances,
		PostBalances: res.Meta.PostBalances,
		Fee:          res.Meta.Fee,
	}
	if res.BlockTime != nil {
		detail.BlockTime = res.BlockTime.Time()
	}
	for _, key := range tx.Message.AccountKeys {
		detail.AccountKeys = append(detail.AccountKeys, key.String())
	}

	return detail, nil
}

// Health checks endpoint health
func (c *SolanaClient) Health(ctx context.Context) error {
	out, err := c.rpc.GetHealth(ctx)
	c.record("getHealth", err)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeConnection, "Health check failed", err.Error())
	}
	if out != rpc.HealthOk {
		return utils.NewAppError(utils.ErrCodeConnection, "Endpoint unhealthy", out)
	}
	return nil
}

// Balance returns the monitored account's balance in SOL
func (c *SolanaClient) Balance(ctx context.Context) (float64, error) {
	res, err := c.rpc.GetBalance(ctx, c.account, rpc.CommitmentConfirmed)
	c.record("getBalance", err)
	if err != nil {
		return 0, utils.NewAppError(utils.ErrCodeConnection, "Failed to fetch balance", err.Error())
	}
	return float64(res.Value) / float64(solana.LAMPORTS_PER_SOL), nil
}

// Close releases the underlying RPC client
func (c *SolanaClient) Close() error {
	return c.rpc.Close()
}

func (c *SolanaClient) record(method string, err error) {
	if c.metricsManager == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	c.metricsManager.GetPrometheusMetrics().RecordRPCRequest(method, status)
}

// ValidateAddress reports whether the given string is a well-formed base58
// Solana public key.
func ValidateAddress(address string) error {
	if _, err := solana.PublicKeyFromBase58(address); err != nil {
		return utils.NewAppError(utils.ErrCodeValidation, "Invalid Solana address", err.Error())
	}
	return nil
}
