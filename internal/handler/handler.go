package handler

import (
	"github.com/go-telegram/bot"
	"github.com/taskwallet/bot/internal/config"
	"github.com/taskwallet/bot/internal/service"
)

// Handler holds all dependencies needed by command and callback handlers.
type Handler struct {
	bot         *bot.Bot
	cfg         *config.Config
	users       *service.UserService
	ledger      *service.LedgerService
	registry    *service.RegistryService
	assignments *service.AssignmentService
	withdrawals *service.WithdrawalService
	sessions    service.SessionStore
	broadcast   *service.BroadcastService
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Bot         *bot.Bot
	Cfg         *config.Config
	Users       *service.UserService
	Ledger      *service.LedgerService
	Registry    *service.RegistryService
	Assignments *service.AssignmentService
	Withdrawals *service.WithdrawalService
	Sessions    service.SessionStore
	Broadcast   *service.BroadcastService
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		bot:         deps.Bot,
		cfg:         deps.Cfg,
		users:       deps.Users,
		ledger:      deps.Ledger,
		registry:    deps.Registry,
		assignments: deps.Assignments,
		withdrawals: deps.Withdrawals,
		sessions:    deps.Sessions,
		broadcast:   deps.Broadcast,
	}
}
