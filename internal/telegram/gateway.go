// File: internal/telegram/gateway.go
package telegram

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/crack-enjoyer/RevsTrackerBot/internal/commands"
	"github.com/crack-enjoyer/RevsTrackerBot/pkg/utils"
)

// Gateway long-polls the Bot API for inbound messages and routes them
// through the command router. It is the only consumer of getUpdates.
type Gateway struct {
	client *Client
	router *commands.Router
	logger *logrus.Logger

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	offset int64
}

// NewGateway creates an update gateway
func NewGateway(client *Client, router *commands.Router) *Gateway {
	return &Gateway{
		client:   client,
		router:   router,
		logger:   utils.GetLogger(),
		stopChan: make(chan struct{}),
	}
}

// Start begins the update polling loop
func (g *Gateway) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.running {
		return utils.NewAppError(utils.ErrCodeInternal, "Gateway already running", "")
	}
	g.running = true

	g.wg.Add(1)
	go g.pollLoop(ctx)

	g.logger.Info("Telegram gateway started")
	return nil
}

// Stop stops the polling loop
func (g *Gateway) Stop() error {
	g.mu.Lock()
	if !g.running {
		g.mu.Unlock()
		return nil
	}
	g.running = false
	g.mu.Unlock()

	g.stopOnce.Do(func() {
		close(g.stopChan)
	})
	g.wg.Wait()

	g.logger.Info("Telegram gateway stopped")
	return nil
}

// pollLoop long-polls getUpdates and dispatches each message
func (g *Gateway) pollLoop(ctx context.Context) {
	defer g.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-g.stopChan:
			return
		default:
		}

		updates, err := g.client.GetUpdates(ctx, g.offset)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			g.logger.WithError(err).Warn("Failed to fetch Telegram updates")
			select {
			case <-time.After(5 * time.Second):
			case <-g.stopChan:
				return
			case <-ctx.Done():
				return
			}
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= g.offset {
				g.offset = update.UpdateID + 1
			}
			if update.Message == nil {
				continue
			}
			g.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage routes one inbound message. The recover guard keeps a
// malformed command from taking down the polling loop.
func (g *Gateway) handleMessage(ctx context.Context, msg *Message) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.WithFields(logrus.Fields{
				"chat_id": msg.Chat.ID,
				"panic":   r,
			}).Error("Command handler panicked")
		}
	}()

	reply := g.router.HandleMessage(ctx, msg.Chat.ID, msg.Text)
	if reply == "" {
		return
	}

	if err := g.client.SendMessage(ctx, msg.Chat.ID, reply); err != nil {
		g.logger.WithFields(logrus.Fields{
			"chat_id": msg.Chat.ID,
			"error":   err.Error(),
		}).Warn("Failed to send command reply")
	}
}
