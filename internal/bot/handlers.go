package bot

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"croupier/internal/casino"
	"croupier/internal/games"
	"croupier/internal/storage"
)

const defaultReportDays = 7

type commandOptions map[string]*discordgo.ApplicationCommandInteractionDataOption

func optionsByName(options []*discordgo.ApplicationCommandInteractionDataOption) commandOptions {
	out := make(commandOptions, len(options))
	for _, option := range options {
		out[option.Name] = option
	}
	return out
}

func (o commandOptions) intValue(name string) (int64, bool) {
	option, ok := o[name]
	if !ok {
		return 0, false
	}
	return option.IntValue(), true
}

func (o commandOptions) stringValue(name string) string {
	if option, ok := o[name]; ok {
		return option.StringValue()
	}
	return ""
}

func (o commandOptions) userID(name string) string {
	if option, ok := o[name]; ok {
		if user := option.UserValue(nil); user != nil {
			return user.ID
		}
	}
	return ""
}

func (b *Bot) onInteractionCreate(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	switch interaction.Type {
	case discordgo.InteractionApplicationCommand:
		b.handleCommand(session, interaction)
	case discordgo.InteractionMessageComponent:
		b.handleComponent(session, interaction)
	}
}

func (b *Bot) handleCommand(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	data := interaction.ApplicationCommandData()
	options := optionsByName(data.Options)
	player := playerFrom(interaction)
	if player.UserID == "" {
		return
	}

	switch data.Name {
	case "balance":
		b.handleBalance(ctx, session, interaction, player, options)
	case "slots":
		bet, _ := options.intValue("bet")
		result, err := b.casino.PlaySlots(ctx, player, bet)
		if b.rejected(session, interaction, "🎰 Slots", err) {
			return
		}
		embed := b.slotsEmbed(result)
		embed.Fields = append(embed.Fields, b.slotsPaytableField())
		b.respondEmbed(session, interaction, withCreditWarning(embed, err), false)
	case "coinflip":
		bet, _ := options.intValue("bet")
		pick, err := games.ParseCoinSide(options.stringValue("side"))
		if b.rejected(session, interaction, "🪙 Coinflip", err) {
			return
		}
		result, err := b.casino.PlayCoinflip(ctx, player, bet, pick)
		if b.rejected(session, interaction, "🪙 Coinflip", err) {
			return
		}
		b.respondEmbed(session, interaction, withCreditWarning(b.coinflipEmbed(result), err), false)
	case "dice":
		bet, _ := options.intValue("bet")
		result, err := b.casino.PlayDice(ctx, player, bet)
		if b.rejected(session, interaction, "🎲 Dice", err) {
			return
		}
		b.respondEmbed(session, interaction, withCreditWarning(b.diceEmbed(result), err), false)
	case "blackjack":
		bet, _ := options.intValue("bet")
		view, err := b.casino.StartBlackjack(ctx, player, bet)
		if b.rejected(session, interaction, "🃏 Blackjack", err) {
			return
		}
		b.respondComponents(session, interaction, withCreditWarning(b.blackjackEmbed(view), err), blackjackComponents(view), false)
	case "minesweeper":
		b.handleMinesweeper(ctx, session, interaction, player, options)
	case "crash":
		b.handleCrash(ctx, session, interaction, player, options)
	case "casino":
		if len(data.Options) == 0 {
			return
		}
		sub := data.Options[0]
		b.handleCasino(ctx, session, interaction, player, sub.Name, optionsByName(sub.Options))
	}
}

// rejected answers with an ephemeral error unless the round went through. A failed payout
// still counts as a played round and is rendered by the caller.
func (b *Bot) rejected(session *discordgo.Session, interaction *discordgo.InteractionCreate, title string, err error) bool {
	if err == nil || errors.Is(err, casino.ErrCreditFailed) {
		return false
	}
	if !isPlayerError(err) {
		b.logger.Warn("casino command failed", zap.String("command", title), zap.Error(err))
	}
	b.respondEmbed(session, interaction, b.errorEmbed(title, err), true)
	return true
}

func isPlayerError(err error) bool {
	for _, target := range []error{
		casino.ErrBetTooSmall, casino.ErrBetTooLarge, casino.ErrInsufficientBalance,
		casino.ErrRateLimited, casino.ErrCasinoDisabled, casino.ErrNotSessionOwner,
		casino.ErrSessionNotFound, games.ErrGameOver, games.ErrInvalidAction,
		games.ErrInvalidChoice, games.ErrOutOfBounds, games.ErrNothingRevealed, errBadCustomID,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (b *Bot) handleBalance(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, player casino.Player, options commandOptions) {
	userID := player.UserID
	if other := options.userID("user"); other != "" {
		userID = other
	}
	balance, err := b.casino.Balance(ctx, userID)
	if b.rejected(session, interaction, "💰 Balance", err) {
		return
	}
	embed := b.commandEmbed("💰 Balance", "<@"+userID+">", b.cfg.Notifications.EmbedColors.Neutral, []*discordgo.MessageEmbedField{
		{Name: "Chips", Value: strconv.FormatInt(balance, 10), Inline: true},
	})
	b.respondEmbed(session, interaction, embed, userID == player.UserID)
}

func (b *Bot) handleMinesweeper(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, player casino.Player, options commandOptions) {
	bet, _ := options.intValue("bet")
	difficulty, err := games.ParseDifficulty(options.stringValue("difficulty"))
	if b.rejected(session, interaction, "💣 Minesweeper", err) {
		return
	}
	view, err := b.casino.StartMinesweeper(ctx, player, bet, difficulty)
	if b.rejected(session, interaction, "💣 Minesweeper", err) {
		return
	}
	components, separate := minesComponents(view)
	b.respondComponents(session, interaction, b.minesEmbed(view), components, false)
	if !separate {
		return
	}

	cashOut := minesCashOutButton(view)
	cashOut.Disabled = false
	board := &minesBoard{original: interaction.Interaction}
	message, err := session.FollowupMessageCreate(interaction.Interaction, true, &discordgo.WebhookParams{
		Content: "Cash out whenever you like.",
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{cashOut}},
		},
	})
	if err != nil {
		b.logger.Warn("minesweeper cash-out follow-up failed", zap.String("session_id", view.SessionID), zap.Error(err))
	} else {
		board.followupID = message.ID
	}
	b.rounds.trackBoard(view.SessionID, board)
}

func (b *Bot) handleCrash(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, player casino.Player, options commandOptions) {
	bet, _ := options.intValue("bet")
	frame := &crashFrame{}
	hooks := casino.CrashHooks{
		OnTick: func(view casino.CrashView) {
			if view.State != games.CrashRunning {
				return
			}
			frame.draw(func() {
				b.editOriginal(session, interaction, b.crashEmbed(view), crashComponents(view))
			})
		},
		OnCrash: func(view casino.CrashView, err error) {
			b.rounds.dropCrash(view.SessionID)
			frame.finish(func() {
				b.editOriginal(session, interaction, withCreditWarning(b.crashEmbed(view), err), nil)
			})
		},
	}
	view, err := b.casino.StartCrash(ctx, player, bet, hooks)
	if b.rejected(session, interaction, "🚀 Crash", err) {
		return
	}
	b.rounds.trackCrash(view.SessionID, frame)
	b.respondComponents(session, interaction, b.crashEmbed(view), crashComponents(view), false)
}

func (b *Bot) handleCasino(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, player casino.Player, sub string, options commandOptions) {
	colors := b.cfg.Notifications.EmbedColors
	switch sub {
	case "stats":
		userID := player.UserID
		if other := options.userID("user"); other != "" {
			userID = other
		}
		balance, err := b.casino.Balance(ctx, userID)
		if b.rejected(session, interaction, "📊 Casino stats", err) {
			return
		}
		stats, err := b.store.Stats(ctx, userID)
		if b.rejected(session, interaction, "📊 Casino stats", err) {
			return
		}
		b.respondEmbed(session, interaction, b.statsEmbed(userID, balance, stats), false)
	case "leaderboard":
		size := b.cfg.Casino.LeaderboardSize
		if size <= 0 {
			size = 10
		}
		accounts, err := b.store.TopBalances(ctx, size)
		if b.rejected(session, interaction, "🏆 Leaderboard", err) {
			return
		}
		b.respondEmbed(session, interaction, b.leaderboardEmbed(accounts), false)
	case "report":
		if interaction.GuildID == "" {
			b.respondEmbed(session, interaction, b.commandEmbed("📈 Casino report", "This command only works in a server.", colors.Error, nil), true)
			return
		}
		days := int64(defaultReportDays)
		if value, ok := options.intValue("days"); ok && value > 0 {
			days = value
		}
		since := time.Now().UTC().Add(-time.Duration(days) * 24 * time.Hour)
		report, err := b.analytics.Report(ctx, interaction.GuildID, since)
		if b.rejected(session, interaction, "📈 Casino report", err) {
			return
		}
		b.respondEmbed(session, interaction, b.reportEmbed(report, int(days)), true)
	case "settings":
		b.handleSettings(ctx, session, interaction, options)
	}
}

func (b *Bot) handleSettings(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options commandOptions) {
	colors := b.cfg.Notifications.EmbedColors
	if interaction.GuildID == "" {
		b.respondEmbed(session, interaction, b.commandEmbed("⚙️ Casino settings", "This command only works in a server.", colors.Error, nil), true)
		return
	}
	settings := b.guildSettings(ctx, interaction.GuildID)
	if len(options) > 0 {
		if !canManageGuild(interaction) {
			b.respondEmbed(session, interaction, b.commandEmbed("⚙️ Casino settings", "You need Manage Server to change casino settings.", colors.Error, nil), true)
			return
		}
		settings = applySettings(settings, options)
		if settings.MaxBet > 0 && settings.MinBet > settings.MaxBet {
			b.respondEmbed(session, interaction, b.commandEmbed("⚙️ Casino settings", "Minimum bet can't be above the maximum bet.", colors.Error, nil), true)
			return
		}
		if err := b.store.UpsertGuildSettings(ctx, settings); err != nil {
			b.logger.Warn("guild settings update failed", zap.String("guild_id", interaction.GuildID), zap.Error(err))
			b.respondEmbed(session, interaction, b.errorEmbed("⚙️ Casino settings", err), true)
			return
		}
		b.logger.Info("casino settings updated",
			zap.String("guild_id", settings.GuildID),
			zap.Bool("enabled", settings.Enabled),
			zap.Int64("min_bet", settings.MinBet),
			zap.Int64("max_bet", settings.MaxBet),
		)
	}
	b.respondEmbed(session, interaction, b.settingsEmbed(settings, b.effectiveLimits(settings)), true)
}

func applySettings(settings storage.GuildSettings, options commandOptions) storage.GuildSettings {
	if option, ok := options["channel"]; ok {
		if channel := option.ChannelValue(nil); channel != nil {
			settings.CasinoChannel = channel.ID
		}
	}
	if option, ok := options["enabled"]; ok {
		settings.Enabled = option.BoolValue()
	}
	if value, ok := options.intValue("min_bet"); ok && value >= 0 {
		settings.MinBet = value
	}
	if value, ok := options.intValue("max_bet"); ok && value >= 0 {
		settings.MaxBet = value
	}
	return settings
}

// effectiveLimits mirrors casino.LimitsFor without the enabled check so a closed casino
// still shows what it would accept.
func (b *Bot) effectiveLimits(settings storage.GuildSettings) casino.Limits {
	limits := casino.Limits{MinBet: b.cfg.Casino.MinBet, MaxBet: b.cfg.Casino.MaxBet}
	if settings.MinBet > limits.MinBet {
		limits.MinBet = settings.MinBet
	}
	if settings.MaxBet > 0 && settings.MaxBet < limits.MaxBet {
		limits.MaxBet = settings.MaxBet
	}
	return limits
}

func (b *Bot) handleComponent(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	player := playerFrom(interaction)
	id, err := parseCustomID(interaction.MessageComponentData().CustomID)
	if err != nil {
		b.respondEmbed(session, interaction, b.errorEmbed("Croupier", err), true)
		return
	}

	switch id.Game {
	case games.GameBlackjack:
		b.handleBlackjackButton(ctx, session, interaction, player, id)
	case games.GameMinesweeper:
		b.handleMinesButton(ctx, session, interaction, player, id)
	case games.GameCrash:
		b.handleCrashButton(ctx, session, interaction, player, id)
	default:
		b.respondEmbed(session, interaction, b.errorEmbed("Croupier", errBadCustomID), true)
	}
}

func (b *Bot) handleBlackjackButton(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, player casino.Player, id componentID) {
	var (
		view casino.BlackjackView
		err  error
	)
	switch id.Action {
	case actionHit:
		view, err = b.casino.BlackjackHit(ctx, player, id.SessionID)
	case actionStand:
		view, err = b.casino.BlackjackStand(ctx, player, id.SessionID)
	case actionDouble:
		view, err = b.casino.BlackjackDouble(ctx, player, id.SessionID)
	default:
		err = errBadCustomID
	}
	if b.rejected(session, interaction, "🃏 Blackjack", err) {
		return
	}
	b.updateMessage(session, interaction, withCreditWarning(b.blackjackEmbed(view), err), blackjackComponents(view))
}

func (b *Bot) handleMinesButton(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, player casino.Player, id componentID) {
	var (
		view casino.MinesView
		err  error
	)
	switch id.Action {
	case actionReveal:
		row, col, cellErr := id.cell()
		if cellErr != nil {
			err = cellErr
			break
		}
		view, err = b.casino.MinesReveal(ctx, player, id.SessionID, row, col)
	case actionCashOut:
		view, err = b.casino.MinesCashOut(ctx, player, id.SessionID)
	default:
		err = errBadCustomID
	}
	if b.rejected(session, interaction, "💣 Minesweeper", err) {
		return
	}
	embed := withCreditWarning(b.minesEmbed(view), err)
	components, _ := minesComponents(view)
	b.updateMessage(session, interaction, embed, components)
	if view.Result != nil {
		b.closeSplitBoard(session, interaction, id.SessionID, embed)
	}
}

// closeSplitBoard settles the other half of a hard board: the board message when cash-out
// was pressed on the follow-up, the follow-up when the round ended on the board.
func (b *Bot) closeSplitBoard(session *discordgo.Session, interaction *discordgo.InteractionCreate, sessionID string, embed *discordgo.MessageEmbed) {
	board := b.rounds.takeBoard(sessionID)
	if board == nil {
		return
	}
	if board.isFollowup(interaction.Message) {
		b.editOriginal(session, &discordgo.InteractionCreate{Interaction: board.original}, embed, nil)
		return
	}
	if board.followupID == "" {
		return
	}
	content := "Round over."
	components := []discordgo.MessageComponent{}
	if _, err := session.FollowupMessageEdit(board.original, board.followupID, &discordgo.WebhookEdit{
		Content:    &content,
		Components: &components,
	}); err != nil {
		b.logger.Debug("cash-out follow-up edit failed", zap.String("session_id", sessionID), zap.Error(err))
	}
}

func (b *Bot) handleCrashButton(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, player casino.Player, id componentID) {
	if id.Action != actionCashOut {
		b.respondEmbed(session, interaction, b.errorEmbed("🚀 Crash", errBadCustomID), true)
		return
	}
	view, err := b.casino.CrashCashOut(ctx, player, id.SessionID)
	if b.rejected(session, interaction, "🚀 Crash", err) {
		return
	}
	draw := func() {
		b.updateMessage(session, interaction, withCreditWarning(b.crashEmbed(view), err), crashComponents(view))
	}
	frame := b.rounds.takeCrash(id.SessionID)
	if frame == nil {
		draw()
		return
	}
	frame.finish(draw)
}
