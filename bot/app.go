// Package bot wires the Telegram surface of the auction bot: command and
// callback handlers, the submission conversation, and the background sweeps.
package bot

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	tele "gopkg.in/telebot.v4"

	"github.com/phantomtroupe/auctionbot/config"
	"github.com/phantomtroupe/auctionbot/service/auctions"
	"github.com/phantomtroupe/auctionbot/service/sweeper"
	"github.com/phantomtroupe/auctionbot/service/users"
	"github.com/phantomtroupe/auctionbot/store"
	tg "github.com/phantomtroupe/auctionbot/telegram"
	"github.com/phantomtroupe/auctionbot/telegram/commands"
	tghelpers "github.com/phantomtroupe/auctionbot/telegram/helpers"
	"github.com/phantomtroupe/auctionbot/telegram/router"
	"github.com/phantomtroupe/auctionbot/telegram/state"
)

// App owns the bot wiring and the service instances behind the handlers.
type App struct {
	cfg *config.Config
	db  *sqlx.DB

	subs  *store.SubmissionStore
	bans  *store.BanStore
	users *users.Service

	fsm state.Manager
	reg *tg.Registry

	// Set in onStart once the bot instance exists.
	bot         *tele.Bot
	notify      *notifier
	auctions    *auctions.Service
	sweep       *sweeper.Sweeper
	sweepCancel context.CancelFunc
}

// New builds the application and registers all commands, callbacks, and
// conversation states.
func New(cfg *config.Config, db *sqlx.DB) *App {
	a := &App{
		cfg:   cfg,
		db:    db,
		subs:  store.NewSubmissionStore(db),
		bans:  store.NewBanStore(db),
		users: users.New(store.NewUserStore(db)),
		fsm:   state.NewMemoryManager(),
		reg:   tg.NewRegistry(),
	}
	a.registerCommands()
	a.registerCallbacks()
	a.registerStates()
	return a
}

func (a *App) registerCommands() {
	a.reg.RegisterCommand("/start", commands.Command{
		Handler:     a.handleStart,
		Description: "Start the bot",
	})
	a.reg.RegisterCommand("/help", commands.Command{
		Handler:     a.handleHelp,
		Description: "How the auction works",
	})
	a.reg.RegisterCommand("/add", commands.Command{
		Handler:     a.handleAdd,
		Description: "Submit a card for auction",
	})
	a.reg.RegisterCommand("/cancel", commands.Command{
		Handler:     a.handleCancel,
		Description: "Cancel the current submission",
	})
	a.reg.RegisterCommand("/bid", commands.Command{
		Handler:     a.handleBid,
		Description: "Place a bid (in the auction group)",
	})
	a.reg.RegisterCommand("/items", commands.Command{
		Handler:     a.handleItems,
		Description: "Browse active auctions",
	})
	a.reg.RegisterCommand("/myitems", commands.Command{
		Handler:     a.handleMyItems,
		Description: "Your submissions and their status",
	})
	a.reg.RegisterCommand("/status", commands.Command{
		Handler:     a.handleStatus,
		Description: "Bot and database status",
		AdminOnly:   true,
		Hidden:      true,
	})
	a.reg.RegisterCommand("/forceend", commands.Command{
		Handler:     a.handleForceEnd,
		Description: "End an auction immediately",
		AdminOnly:   true,
		Hidden:      true,
	})
	a.reg.RegisterCommand("/rm", commands.Command{
		Handler:     a.handleRemove,
		Description: "Delete auction items",
		AdminOnly:   true,
		Hidden:      true,
	})
	a.reg.RegisterCommand("/aban", commands.Command{
		Handler:     a.handleBan,
		Description: "Globally ban a user",
		AdminOnly:   true,
		Hidden:      true,
	})
	a.reg.RegisterCommand("/unaban", commands.Command{
		Handler:     a.handleUnban,
		Description: "Lift a global ban",
		AdminOnly:   true,
		Hidden:      true,
	})
}

func (a *App) registerCallbacks() {
	_ = a.reg.RegisterCallback("approve", a.cbApprove)
	_ = a.reg.RegisterCallback("reject", a.cbReject)
	_ = a.reg.RegisterCallback("cat", a.cbCategory)
	_ = a.reg.RegisterCallback("rar", a.cbRarity)
	_ = a.reg.RegisterCallback("cancel_add", a.cbCancelAdd)
	_ = a.reg.RegisterCallback("recheck", a.cbRecheck)
	_ = a.reg.RegisterCallback("browse_cat", a.cbBrowseCategory)
	_ = a.reg.RegisterCallback("browse_rar", a.cbBrowseRarity)
}

func (a *App) registerStates() {
	state.RegisterHandler(stateAddCategory, a.fsmRemindCategory)
	state.RegisterHandler(stateAddRarity, a.fsmRemindRarity)
	state.RegisterHandler(stateAddPhoto, a.fsmPhoto)
	state.RegisterHandler(stateAddBid, a.fsmBaseBid)
}

// TelegramRunOptions assembles routes, middleware, and lifecycle hooks for
// the Telegram runtime.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	routes := router.CommandRoutes(a.reg, router.CommandRouteOptions{
		IsPrivileged: a.cfg.IsPrivileged,
		OnReject: func(c tele.Context) error {
			return tghelpers.ReplyHTML(c, "🚫 This command is restricted to admins.")
		},
	})
	routes = append(routes, router.CallbackRoute(a.reg, router.CallbackOptions{}))
	routes = append(routes, router.MessageRoutes(a.fsm, a.reg, router.MessageOptions{})...)

	return tg.RunOptions{
		Config:      a.cfg,
		Registry:    a.reg,
		Middlewares: tg.DefaultMiddlewares(a.cfg, nil),
		Routes:      routes,
		OnStart:     a.onStart,
		OnStop:      a.onStop,
	}, nil
}

func (a *App) onStart(ctx context.Context, rt tg.Runtime) error {
	a.bot = rt.Bot
	a.notify = newNotifier(rt.Bot)
	a.auctions = auctions.New(auctions.Options{
		Submissions:  a.subs,
		Bans:         a.bans,
		Notifier:     a.notify,
		Chats:        a.cfg.Chats,
		Rules:        a.cfg.Auction,
		IsPrivileged: a.cfg.IsPrivileged,
	})
	a.sweep = sweeper.New(sweeper.Options{
		Store:           a.subs,
		Announcer:       a.auctions,
		Stripper:        a.notify,
		ChannelID:       a.cfg.Chats.ChannelID,
		SweepInterval:   a.cfg.Auction.SweepInterval(),
		CleanupInterval: a.cfg.Auction.CleanupInterval(),
	})

	sweepCtx, cancel := context.WithCancel(context.Background())
	a.sweepCancel = cancel
	go a.sweep.Run(sweepCtx)
	return nil
}

func (a *App) onStop(ctx context.Context, rt tg.Runtime) error {
	if a.sweepCancel != nil {
		a.sweepCancel()
	}
	return nil
}

func actorFrom(u *tele.User) auctions.Actor {
	if u == nil {
		return auctions.Actor{}
	}
	return auctions.Actor{ID: u.ID, Name: fullName(u), Username: u.Username}
}

func fullName(u *tele.User) string {
	return strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
}

func isGroupChat(c tele.Context) bool {
	chat := c.Chat()
	if chat == nil {
		return false
	}
	return chat.Type == tele.ChatGroup || chat.Type == tele.ChatSuperGroup
}

func isPrivateChat(c tele.Context) bool {
	chat := c.Chat()
	return chat != nil && chat.Type == tele.ChatPrivate
}
